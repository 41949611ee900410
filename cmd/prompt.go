package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/normalize"
)

const (
	PromptYes       = "Yes"
	PromptNo        = "No"
	PromptCLB       = "I know my CLB level"
	PromptIELTS     = "Convert from IELTS band scores"
	PromptSkipSkill = ""
)

var educationChoices = []string{
	normalize.LessThanHighSchool.String(),
	normalize.HighSchool.String(),
	normalize.Diploma.String(),
	normalize.PostSecondary.String(),
	normalize.Associate.String(),
	normalize.Bachelor.String(),
	normalize.Master.String(),
	normalize.Doctorate.String(),
}

func floatValidator(minimum float64) promptui.ValidateFunc {
	return func(input string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return errors.New("enter a number")
		}
		if v < minimum {
			return fmt.Errorf("must be at least %v", minimum)
		}
		return nil
	}
}

func intValidator(minimum, maximum int) promptui.ValidateFunc {
	return func(input string) error {
		v, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if v < minimum || v > maximum {
			return fmt.Errorf("must be between %d and %d", minimum, maximum)
		}
		return nil
	}
}

func bandValidator(input string) error {
	if strings.TrimSpace(input) == PromptSkipSkill {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return errors.New("enter a band score such as 6.5, or leave empty")
	}
	_, err = normalize.SkillCLB(normalize.Reading, v)
	return err
}

func ask(label string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{Label: label, Validate: validate}
	value, err := p.Run()
	return strings.TrimSpace(value), err
}

func choose(label string, items []string) (string, error) {
	s := promptui.Select{Label: label, Items: items}
	_, value, err := s.Run()
	return value, err
}

func yesNo(label string) (bool, error) {
	value, err := choose(label, []string{PromptNo, PromptYes})
	return value == PromptYes, err
}

// promptProfile asks for every profile field. Validators only accept values
// that parse, so the conversions below cannot fail.
func promptProfile() (*applicant.Profile, error) {
	p := &applicant.Profile{}

	years, err := ask("Years of skilled work experience", floatValidator(0))
	if err != nil {
		return nil, err
	}
	p.WorkExperienceYears, _ = strconv.ParseFloat(years, 64)

	if p.EducationLevel, err = choose("Highest education completed", educationChoices); err != nil {
		return nil, err
	}

	if p.CLBScore, err = promptCLB(); err != nil {
		return nil, err
	}

	teer, err := choose("NOC TEER category of your main occupation", []string{"0", "1", "2", "3", "4", "5"})
	if err != nil {
		return nil, err
	}
	p.NOCTEERLevel = applicant.TEER(teer)

	age, err := ask("Age (0 to skip age checks)", intValidator(0, 120))
	if err != nil {
		return nil, err
	}
	p.Age, _ = strconv.Atoi(age)

	if p.HasCanadianExperience, err = yesNo("Do you have Canadian work experience?"); err != nil {
		return nil, err
	}
	if p.HasJobOffer, err = yesNo("Do you have a valid Canadian job offer?"); err != nil {
		return nil, err
	}

	funds, err := ask("Settlement funds available (CAD)", floatValidator(0))
	if err != nil {
		return nil, err
	}
	p.SettlementFundsCAD, _ = strconv.ParseFloat(funds, 64)

	family, err := ask("Family size, including yourself", intValidator(1, 50))
	if err != nil {
		return nil, err
	}
	p.FamilySize, _ = strconv.Atoi(family)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func promptCLB() (int, error) {
	mode, err := choose("Language level", []string{PromptCLB, PromptIELTS})
	if err != nil {
		return 0, err
	}

	if mode == PromptCLB {
		value, err := ask("CLB level (0-10)", intValidator(0, normalize.MaxCLB))
		if err != nil {
			return 0, err
		}
		clb, _ := strconv.Atoi(value)
		return clb, nil
	}

	var scores normalize.IELTSScores
	for _, skill := range []struct {
		name normalize.Skill
		dst  **float64
	}{
		{normalize.Reading, &scores.Reading},
		{normalize.Writing, &scores.Writing},
		{normalize.Listening, &scores.Listening},
		{normalize.Speaking, &scores.Speaking},
	} {
		value, err := ask(fmt.Sprintf("IELTS %s band (empty to skip)", skill.name), bandValidator)
		if err != nil {
			return 0, err
		}
		if value == PromptSkipSkill {
			continue
		}
		band, _ := strconv.ParseFloat(value, 64)
		*skill.dst = &band
	}

	result, err := normalize.ConvertIELTS(scores)
	if err != nil {
		return 0, err
	}
	return result.Overall, nil
}
