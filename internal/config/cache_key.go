package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID string) string {
	return fmt.Sprintf("login:%s", candidateID)
}

// AttemptStartKey returns the cache key for a candidate's attempt start time.
func (r *CacheKeyStruct) AttemptStartKey(testID, candidateID string) string {
	return fmt.Sprintf("candidate:%s:test:%s:attempt_start", candidateID, testID)
}

// TestPayloadKey returns the cache key for a test's candidate-facing paper.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// TestDurationKey returns the cache key for a test's duration in minutes.
func (r *CacheKeyStruct) TestDurationKey(testID string) string {
	return fmt.Sprintf("test:%s:duration", testID)
}

var CacheKey = NewCacheKeyStruct()
