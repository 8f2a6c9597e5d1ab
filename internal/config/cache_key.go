package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPaperKey returns the cache key for a delivered paper in one language.
func (r *CacheKeyStruct) ExamPaperKey(scheduleID, language string) string {
	return fmt.Sprintf("exam:%s:paper:%s", scheduleID, language)
}

// ExamPaperPattern matches every cached paper, used for invalidation after
// question bank edits.
func (r *CacheKeyStruct) ExamPaperPattern() string {
	return "exam:*:paper:*"
}

// UserAnswersKey returns the hash key holding a user's autosaved answers
// (field = question position, value = option index).
func (r *CacheKeyStruct) UserAnswersKey(scheduleID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:answers", userID, scheduleID)
}

// TrialSessionKey returns the key for a trial quiz's question list.
func (r *CacheKeyStruct) TrialSessionKey(trialID string) string {
	return fmt.Sprintf("trial:%s", trialID)
}

var CacheKey = NewCacheKeyStruct()
