package model

import (
	"time"

	"github.com/google/uuid"
)

// UniqueSurveyCode identifies a respondent invited to the survey.
type UniqueSurveyCode struct {
	ID            uuid.UUID `json:"id"`
	NamaResponden string    `json:"nama_responden"`
	KodeUnik      string    `json:"kode_unik"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateUniqueCodeRequest registers one code.
type CreateUniqueCodeRequest struct {
	NamaResponden string `json:"nama_responden" binding:"required,max=200"`
	KodeUnik      string `json:"kode_unik" binding:"required,max=64"`
}

// BulkInsertResult reports an unordered bulk insert: rows that went in and
// codes rejected as duplicates.
type BulkInsertResult struct {
	Inserted   []UniqueSurveyCode `json:"inserted"`
	Duplicates []string           `json:"duplicates,omitempty"`
}
