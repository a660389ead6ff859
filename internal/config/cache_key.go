package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key holding the JTI of a user's current login.
func (r *CacheKeyStruct) UserLoginKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// SurveySessionLockKey returns the lock key serialising writes to one survey session.
func (r *CacheKeyStruct) SurveySessionLockKey(sessionID string) string {
	return fmt.Sprintf("lock:survey_session:%s", sessionID)
}

// EvaluationLockKey returns the lock key serialising writes to one evaluation.
func (r *CacheKeyStruct) EvaluationLockKey(evaluationID string) string {
	return fmt.Sprintf("lock:survey_evaluation:%s", evaluationID)
}

// UniqueCodeKey returns the in-process cache key for a unique survey code lookup.
func (r *CacheKeyStruct) UniqueCodeKey(kodeUnik string) string {
	return fmt.Sprintf("unique_code:%s", kodeUnik)
}

var CacheKey = NewCacheKeyStruct()
