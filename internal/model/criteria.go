package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"unicode/utf16"
)

// CriterionKind distinguishes rating criteria from free text.
type CriterionKind uint8

const (
	CriterionRating CriterionKind = iota
	CriterionFreeText
)

// Criterion describes how one evaluation answer is validated.
type Criterion struct {
	Name      string
	Kind      CriterionKind
	Min       float64
	Max       float64
	MaxLength int
}

const (
	CriterionEaseOfUse         = "ease_of_use"
	CriterionParticipationEase = "participation_ease"
	CriterionEnjoyment         = "enjoyment"
	CriterionDataSecurity      = "data_security"
	CriterionPrivacySafety     = "privacy_safety"
	CriterionMentalEffort      = "mental_effort"
	CriterionOverallExperience = "overall_experience"
)

// EvaluationCriteria lists every required criterion in questionnaire order.
var EvaluationCriteria = []Criterion{
	{Name: CriterionEaseOfUse, Kind: CriterionRating, Min: 1, Max: 7},
	{Name: CriterionParticipationEase, Kind: CriterionRating, Min: 1, Max: 7},
	{Name: CriterionEnjoyment, Kind: CriterionRating, Min: 1, Max: 7},
	{Name: CriterionDataSecurity, Kind: CriterionRating, Min: 1, Max: 7},
	{Name: CriterionPrivacySafety, Kind: CriterionRating, Min: 1, Max: 7},
	{Name: CriterionMentalEffort, Kind: CriterionRating, Min: 1, Max: 9},
	{Name: CriterionOverallExperience, Kind: CriterionFreeText, MaxLength: 1000},
}

// RequiredCriteriaCount is the number of answers a complete evaluation has.
var RequiredCriteriaCount = len(EvaluationCriteria)

// defaultCriterion applies to names outside the table.
var defaultCriterion = Criterion{Kind: CriterionRating, Min: 1, Max: 7}

// LookupCriterion returns the rule for name. Unknown names get the 1-7 rating
// rule and ok=false.
func LookupCriterion(name string) (Criterion, bool) {
	for _, c := range EvaluationCriteria {
		if c.Name == name {
			return c, true
		}
	}
	c := defaultCriterion
	c.Name = name
	return c, false
}

// InvalidAnswerError names the criterion whose value was rejected.
type InvalidAnswerError struct {
	Key string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("Invalid value for %s", e.Key)
}

// ValidateCriterion checks value against the rule for name.
func ValidateCriterion(name string, value any) error {
	rule, _ := LookupCriterion(name)
	switch rule.Kind {
	case CriterionFreeText:
		s, ok := value.(string)
		if !ok || textLength(s) > rule.MaxLength {
			return &InvalidAnswerError{Key: name}
		}
	default:
		n, ok := toFloat(value)
		if !ok || n < rule.Min || n > rule.Max {
			return &InvalidAnswerError{Key: name}
		}
	}
	return nil
}

// textLength counts UTF-16 code units, the unit browsers use for a text
// field's maxlength, so characters outside the BMP count twice.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// ValidateAnswers checks every pair in sorted key order and returns the first
// failure.
func ValidateAnswers(answers map[string]any) error {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ValidateCriterion(k, answers[k]); err != nil {
			return err
		}
	}
	return nil
}

// HasAllCriteria reports whether every required criterion has a non-nil answer.
func HasAllCriteria(answers map[string]any) bool {
	for _, c := range EvaluationCriteria {
		if v, ok := answers[c.Name]; !ok || v == nil {
			return false
		}
	}
	return true
}

func toFloat(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
