package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates survey session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// Response is one question slot inside a survey session.
type Response struct {
	QuestionCode  string        `json:"question_code" binding:"required,question_code"`
	ValidResponse ResponseValue `json:"valid_response"`
	// ResponseTime is the time spent on the question in milliseconds.
	ResponseTime *int64 `json:"response_time,omitempty" binding:"omitempty,min=0"`
}

// TimeConsumed holds the total milliseconds spent on each survey tab.
type TimeConsumed struct {
	Karakteristik float64 `json:"karakteristik"`
	Survei        float64 `json:"survei"`
}

// ResponseMetrics is derived from the responses when a session completes.
type ResponseMetrics struct {
	IsBreakoff       bool    `json:"is_breakoff"`
	AvgResponseTime  float64 `json:"avg_response_time"`
	ItemNonresponse  int     `json:"item_nonresponse"`
	DontKnowResponse int     `json:"dont_know_response"`
}

// SurveySession is a respondent's pass through the question catalog.
// There is at most one session row per user.
type SurveySession struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Status       SessionStatus    `json:"status"`
	Responses    []Response       `json:"responses"`
	TimeConsumed *TimeConsumed    `json:"time_consumed,omitempty"`
	Metrics      *ResponseMetrics `json:"metrics,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SessionPatch carries the fields a generic session update may replace.
// Nil fields are left untouched.
type SessionPatch struct {
	Responses    []Response
	TimeConsumed *TimeConsumed
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.Responses == nil && p.TimeConsumed == nil
}

// TimeStats is returned by a time-consumed update.
type TimeStats struct {
	TimeConsumed                 TimeConsumed `json:"time_consumed"`
	AvgResponseTime              float64      `json:"avg_response_time"`
	KarakteristikQuestions       int          `json:"karakteristik_questions"`
	SurveiQuestions              int          `json:"survei_questions"`
	AvgResponseTimeKarakteristik float64      `json:"avg_response_time_karakteristik"`
	AvgResponseTimeSurvei        float64      `json:"avg_response_time_survei"`
}

// SubmitResponseRequest is the payload for answering one question.
type SubmitResponseRequest struct {
	QuestionCode  string        `json:"question_code" binding:"required,question_code"`
	ValidResponse ResponseValue `json:"valid_response"`
	ResponseTime  *int64        `json:"response_time" binding:"omitempty,min=0"`
}

// UpdateSessionRequest is the payload for a generic session patch.
type UpdateSessionRequest struct {
	Responses    *[]Response   `json:"responses" binding:"omitempty,dive"`
	TimeConsumed *TimeConsumed `json:"time_consumed"`
}

// UpdateTimeConsumedRequest is the payload for recording per-tab durations.
type UpdateTimeConsumedRequest struct {
	Karakteristik *float64 `json:"karakteristik" binding:"required,min=0"`
	Survei        *float64 `json:"survei" binding:"required,min=0"`
}
