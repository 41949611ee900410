package catalog

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/pr-pathways/internal/normalize"
)

const additionalPerPersonKey = "additional_per_person"

var flagType = reflect.TypeOf(Flag{})

// flagHook turns booleans and prose into a Flag.
func flagHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != flagType {
		return data, nil
	}

	switch v := data.(type) {
	case bool:
		return Flag{Required: v}, nil
	case string:
		text := strings.TrimSpace(v)
		return Flag{Required: text != "", Text: text}, nil
	case Flag:
		return v, nil
	default:
		return nil, fmt.Errorf("expected boolean or text, got %s", describe(data))
	}
}

func decodeBlock[T any](rules map[string]any, key string) (*T, error) {
	value, ok := rules[key]
	if !ok || value == nil {
		return nil, nil
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object, got %s", key, describe(value))
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: flagHook,
		Result:     &out,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(fields); err != nil {
		return nil, err
	}

	return &out, nil
}

func decodeRules(program string, raw map[string]any) Rules {
	var rules Rules

	record := func(criterion string, err error) {
		if err == nil {
			return
		}
		if rules.Problems == nil {
			rules.Problems = make(map[string]*DataError)
		}
		rules.Problems[criterion] = &DataError{Program: program, Criterion: criterion, Reason: err.Error()}
	}

	var err error

	rules.WorkExperience, err = decodeBlock[WorkExperience](raw, "work_experience")
	record(CriterionWorkExperience, err)

	rules.Education, err = decodeBlock[Education](raw, "education")
	record(CriterionEducation, err)

	rules.Language, err = decodeBlock[Language](raw, "language")
	if err == nil && rules.Language != nil {
		rules.Language.Minimum, err = normalize.ParseLanguageMinimum(rules.Language.EnglishMin)
		if err != nil {
			err = fmt.Errorf("english_min %q: %w", rules.Language.EnglishMin, err)
		}
	}
	record(CriterionLanguage, err)

	rules.Age, err = decodeBlock[Age](raw, "age")
	if err == nil && rules.Age != nil {
		err = checkAgeBounds(rules.Age)
	}
	record(CriterionAge, err)

	rules.SettlementFunds, err = decodeBlock[SettlementFunds](raw, "settlement_funds")
	if err == nil && rules.SettlementFunds != nil {
		rules.SettlementFunds.Table, err = ParseFundsTable(rules.SettlementFunds.TableCAD)
	}
	record(CriterionSettlementFunds, err)

	rules.Connection, err = decodeBlock[Connection](raw, "connection_requirements")
	record(CriterionJobOffer, err)

	return rules
}

func checkAgeBounds(age *Age) error {
	if age.MinAge != nil && age.MaxAge != nil && *age.MinAge > *age.MaxAge {
		return fmt.Errorf("min_age %d is above max_age %d", *age.MinAge, *age.MaxAge)
	}
	return nil
}

// ParseFundsTable parses a table_cad mapping. An empty mapping yields nil.
func ParseFundsTable(raw map[string]float64) (*FundsTable, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	table := &FundsTable{Amounts: make(map[int]float64, len(raw))}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		amount := raw[key]
		if amount < 0 {
			return nil, fmt.Errorf("table_cad[%s] is negative", key)
		}

		if key == additionalPerPersonKey {
			table.AdditionalPerPerson = amount
			continue
		}

		size, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || size < 1 {
			return nil, fmt.Errorf("table_cad key %q is not a family size", key)
		}
		table.Amounts[size] = amount
		table.Largest = max(table.Largest, size)
	}

	if len(table.Amounts) == 0 {
		return nil, fmt.Errorf("table_cad has no family sizes")
	}

	return table, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "text"
	case float64, int, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
