package normalize

import "strings"

// EducationLevel is an ordinal position in the education hierarchy.
// The zero value means the text could not be placed.
type EducationLevel int

const (
	LevelUnknown EducationLevel = iota
	LessThanHighSchool
	HighSchool
	Diploma
	PostSecondary
	Associate
	Bachelor
	Master
	Doctorate
)

var levelNames = map[EducationLevel]string{
	LevelUnknown:       "unknown",
	LessThanHighSchool: "less-than-high-school",
	HighSchool:         "high-school",
	Diploma:            "diploma",
	PostSecondary:      "post-secondary",
	Associate:          "associate",
	Bachelor:           "bachelor",
	Master:             "master",
	Doctorate:          "doctorate",
}

func (l EducationLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LevelUnknown]
}

// educationAliases are searched in order; the first alias contained in the
// text decides the level, so wording naming several levels resolves to the lowest.
var educationAliases = []struct {
	alias string
	level EducationLevel
}{
	{"less than high school", LessThanHighSchool},
	{"high school", HighSchool},
	{"secondary school", HighSchool},
	{"diploma", Diploma},
	{"certificate", Diploma},
	{"post secondary", PostSecondary},
	{"associate", Associate},
	{"bachelor", Bachelor},
	{"master", Master},
	{"phd", Doctorate},
	{"doctorate", Doctorate},
}

// ParseEducationLevel places free text in the hierarchy.
func ParseEducationLevel(text string) (EducationLevel, bool) {
	return levelOf(normalizeEducation(text))
}

func levelOf(normalized string) (EducationLevel, bool) {
	if normalized == "" {
		return LevelUnknown, false
	}
	for _, entry := range educationAliases {
		if strings.Contains(normalized, entry.alias) {
			return entry.level, true
		}
	}
	return LevelUnknown, false
}

func normalizeEducation(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.ReplaceAll(s, "'s degree", "")
	s = strings.ReplaceAll(s, " degree", "")
	return strings.Join(strings.Fields(s), " ")
}

// Verdict is the outcome of an education comparison.
type Verdict int

const (
	// Indeterminate means one side could not be placed in the hierarchy.
	Indeterminate Verdict = iota
	Met
	NotMet
)

// Comparison describes how an applicant's education relates to a requirement.
type Comparison struct {
	Verdict     Verdict
	NotRequired bool
	Applicant   EducationLevel
	Required    EducationLevel
}

// CompareEducation checks whether the applicant's education meets the
// required level. Either side may be free text. When both sides resolve to a
// level the hierarchy decides, so "less than high school" does not meet a
// bare "high school" requirement; text containment is only consulted when one
// side is off the ladder.
func CompareEducation(applicant, required string) Comparison {
	if strings.TrimSpace(required) == "" || strings.Contains(strings.ToLower(required), "not required") {
		return Comparison{Verdict: Met, NotRequired: true}
	}

	app := normalizeEducation(applicant)
	req := normalizeEducation(required)

	appLevel, _ := levelOf(app)
	reqLevel, _ := levelOf(req)
	c := Comparison{Applicant: appLevel, Required: reqLevel}

	if app == "" || req == "" {
		return c
	}

	if appLevel == LevelUnknown || reqLevel == LevelUnknown {
		if strings.Contains(req, app) || strings.Contains(app, req) {
			c.Verdict = Met
		}
		return c
	}

	if appLevel >= reqLevel {
		c.Verdict = Met
	} else {
		c.Verdict = NotMet
	}
	return c
}
