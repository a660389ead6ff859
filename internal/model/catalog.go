package model

import "strings"

const (
	// PrefixCharacteristics marks respondent-characteristics questions.
	PrefixCharacteristics = "KR"
	// PrefixSurvey marks the main survey questions.
	PrefixSurvey = "S"
	// DontKnowResponse is the "don't know" sentinel answer, compared case-insensitively.
	DontKnowResponse = "tidak tahu"
)

// questionCodes is the ordered catalog seeded into every new session.
// S001 was retired from the questionnaire and is intentionally absent.
var questionCodes = [...]string{
	"KR001", "KR002", "KR003", "KR004", "KR005", "KR006",
	"S002", "S003", "S004", "S005", "S006", "S007", "S008", "S009", "S010",
	"S011", "S012", "S013", "S014", "S015", "S016", "S017", "S018", "S019", "S020",
	"S021", "S022", "S023", "S024", "S025", "S026", "S027", "S028", "S029",
	"UCODE",
}

// QuestionCodes returns a copy of the question-code catalog in seed order.
func QuestionCodes() []string {
	out := make([]string, len(questionCodes))
	copy(out, questionCodes[:])
	return out
}

// InitialResponses builds the unanswered response slots for a new session.
func InitialResponses() []Response {
	responses := make([]Response, 0, len(questionCodes))
	for _, code := range questionCodes {
		responses = append(responses, Response{
			QuestionCode:  code,
			ValidResponse: StringValue(""),
		})
	}
	return responses
}

// IsCharacteristicsQuestion reports whether code belongs to the characteristics tab.
func IsCharacteristicsQuestion(code string) bool {
	return strings.HasPrefix(code, PrefixCharacteristics)
}

// IsSurveyQuestion reports whether code belongs to the survey tab.
func IsSurveyQuestion(code string) bool {
	return strings.HasPrefix(code, PrefixSurvey)
}
