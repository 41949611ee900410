package normalize

import (
	"errors"
	"fmt"
	"math"
)

// Skill is one of the four tested language abilities.
type Skill string

const (
	Reading   Skill = "reading"
	Writing   Skill = "writing"
	Listening Skill = "listening"
	Speaking  Skill = "speaking"
)

// ErrNoScores is returned when no skill score was provided.
var ErrNoScores = errors.New("at least one IELTS skill score is required")

// IELTSScores holds raw IELTS General Training band scores. Nil or 0 means the
// skill was not taken.
type IELTSScores struct {
	Reading   *float64 `json:"reading,omitempty" mapstructure:"reading"`
	Writing   *float64 `json:"writing,omitempty" mapstructure:"writing"`
	Listening *float64 `json:"listening,omitempty" mapstructure:"listening"`
	Speaking  *float64 `json:"speaking,omitempty" mapstructure:"speaking"`
}

// CLBResult holds per-skill CLB levels and the overall level, which is the
// lowest of the provided skills.
type CLBResult struct {
	Reading   *int `json:"reading,omitempty"`
	Writing   *int `json:"writing,omitempty"`
	Listening *int `json:"listening,omitempty"`
	Speaking  *int `json:"speaking,omitempty"`
	Overall   int  `json:"overall"`
}

type ieltsStep struct {
	min float64
	clb int
}

// Band floors per skill, highest first. Anything below the last floor is CLB 4.
var ieltsSteps = map[Skill][]ieltsStep{
	Reading:   {{8, 10}, {7, 9}, {6.5, 8}, {6, 7}, {5, 6}, {4, 5}},
	Writing:   {{7.5, 10}, {7, 9}, {6.5, 8}, {6, 7}, {5.5, 6}, {5, 5}},
	Listening: {{8.5, 10}, {8, 9}, {7.5, 8}, {6, 7}, {5.5, 6}, {5, 5}},
	Speaking:  {{7.5, 10}, {7, 9}, {6.5, 8}, {6, 7}, {5.5, 6}, {5, 5}},
}

const ieltsFloorCLB = 4

// SkillCLB converts a single IELTS band score to a CLB level.
func SkillCLB(skill Skill, score float64) (int, error) {
	steps, ok := ieltsSteps[skill]
	if !ok {
		return 0, fmt.Errorf("unknown language skill %q", skill)
	}
	if err := validateBand(score); err != nil {
		return 0, fmt.Errorf("%s: %w", skill, err)
	}

	for _, step := range steps {
		if score >= step.min {
			return step.clb, nil
		}
	}
	return ieltsFloorCLB, nil
}

// ConvertIELTS converts every provided skill and reports the overall level.
func ConvertIELTS(scores IELTSScores) (CLBResult, error) {
	var result CLBResult

	fields := []struct {
		skill Skill
		score *float64
		out   **int
	}{
		{Reading, scores.Reading, &result.Reading},
		{Writing, scores.Writing, &result.Writing},
		{Listening, scores.Listening, &result.Listening},
		{Speaking, scores.Speaking, &result.Speaking},
	}

	provided := 0
	overall := MaxCLB
	for _, f := range fields {
		if f.score == nil || *f.score == 0 {
			continue
		}
		level, err := SkillCLB(f.skill, *f.score)
		if err != nil {
			return CLBResult{}, err
		}
		*f.out = &level
		overall = min(overall, level)
		provided++
	}

	if provided == 0 {
		return CLBResult{}, ErrNoScores
	}

	result.Overall = overall
	return result, nil
}

func validateBand(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 9 {
		return fmt.Errorf("band score %v is outside 0-9", score)
	}
	if score*2 != math.Trunc(score*2) {
		return fmt.Errorf("band score %v is not a multiple of 0.5", score)
	}
	return nil
}
