package model

import (
	"time"

	"github.com/google/uuid"
)

// Role separates respondents from survey administrators.
type Role string

const (
	RoleRespondent Role = "respondent"
	RoleAdmin      Role = "admin"
)

// User is an account that can log in. The active pointers are
// best-effort back-references maintained by the session and evaluation
// services; the session and evaluation tables remain the source of truth.
type User struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	Role                  Role       `json:"role"`
	ActiveSurveySessionID *uuid.UUID `json:"active_survey_session_id,omitempty"`
	ActiveEvaluationID    *uuid.UUID `json:"active_evaluation_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// LoginRequest is the payload for email + password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
