package model

import (
	"time"

	"github.com/google/uuid"
)

// Verdict classifies a submitted response.
type Verdict string

const (
	VerdictCorrect      Verdict = "CORRECT"
	VerdictIncorrect    Verdict = "INCORRECT"
	VerdictUndetermined Verdict = "UNDETERMINED"
)

// AnswerEntry is one saved response to one question within a result.
// At most one entry exists per (result, question) — question identity is the
// upsert key.
type AnswerEntry struct {
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	NumericalValue   *float64   `json:"numerical_value,omitempty"`
	Verdict          Verdict    `json:"verdict"`
	Score            int        `json:"score"`
	MarkedForReview  bool       `json:"marked_for_review"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SubjectScore is the per-subject rollup. Total counts only entries with a
// determined verdict.
type SubjectScore struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Score     int `json:"score"`
}

// Rollups holds the aggregated counters derived from the answer entries.
// They are recomputed from scratch after every mutation and never read back
// as input.
type Rollups struct {
	SubjectScores map[Subject]SubjectScore `json:"subject_scores"`
	TotalScore    int                      `json:"total_score"`
	Attempted     int                      `json:"attempted"`
	Correct       int                      `json:"correct"`
	Incorrect     int                      `json:"incorrect"`
}

// Result is the persisted record of one candidate's attempt at one test.
type Result struct {
	ID          uuid.UUID     `json:"id"`
	CandidateID uuid.UUID     `json:"candidate_id"`
	TestID      uuid.UUID     `json:"test_id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Entries     []AnswerEntry `json:"answers"`
	Rollups
}

// Finalized reports whether the attempt has been closed.
func (r *Result) Finalized() bool {
	return r.FinishedAt != nil
}

// EntryFor returns the entry for a question, or nil if none was saved.
func (r *Result) EntryFor(questionID uuid.UUID) *AnswerEntry {
	for i := range r.Entries {
		if r.Entries[i].QuestionID == questionID {
			return &r.Entries[i]
		}
	}
	return nil
}

// AttemptInfo is the minimal attempt state overlaid onto the lobby listing.
type AttemptInfo struct {
	FinishedAt *time.Time
	TotalScore int
}

// AnswerAction tags why a submission was sent; it does not change scoring.
type AnswerAction string

const (
	AnswerActionSaveAndNext   AnswerAction = "save_and_next"
	AnswerActionMarkForReview AnswerAction = "mark_for_review"
)

// SubmitAnswerRequest is the payload for saving or revising one answer.
// SelectedOptionID and NumericalValue are mutually exclusive; both absent
// means a review-flag-only update. NumericalValue is a string so "12.50"
// and "12.5" canonicalize to the same number server-side.
type SubmitAnswerRequest struct {
	QuestionID       string       `json:"question_id" binding:"required,uuid"`
	SelectedOptionID *string      `json:"selected_option_id" binding:"omitempty,uuid"`
	NumericalValue   *string      `json:"numerical_value" binding:"omitempty,max=64"`
	MarkedForReview  *bool        `json:"marked_for_review" binding:"omitempty"`
	Action           AnswerAction `json:"action" binding:"required,oneof=save_and_next mark_for_review"`
}
