package model

import (
	"time"

	"github.com/google/uuid"
)

// Test represents a timed mock test.
type Test struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalMarks      int        `json:"total_marks"`
	IsActive        bool       `json:"is_active"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Instructions    string     `json:"instructions,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateTestRequest is the payload for authoring a test.
type CreateTestRequest struct {
	Title           string     `json:"title" binding:"required,min=3,max=100"`
	Description     string     `json:"description" binding:"required,max=2000"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=10,max=480"`
	TotalMarks      int        `json:"total_marks" binding:"required,min=1"`
	StartDate       *time.Time `json:"start_date" binding:"omitempty"`
	EndDate         *time.Time `json:"end_date" binding:"omitempty,gtfield=StartDate"`
	Instructions    string     `json:"instructions" binding:"omitempty,max=10000"`
}

// UpdateTestStatusRequest is the payload for activating/deactivating a test.
type UpdateTestStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// TestPayload is the Redis-cached paper sent to candidates (no answer keys).
type TestPayload struct {
	TestID          uuid.UUID              `json:"test_id"`
	Title           string                 `json:"title"`
	DurationMinutes int                    `json:"duration_minutes"`
	Instructions    string                 `json:"instructions,omitempty"`
	Questions       []QuestionForCandidate `json:"questions"`
}

// LobbyTest is a test as listed in the candidate lobby, with the candidate's
// existing result overlaid when one exists.
type LobbyTest struct {
	Test
	HasResult  bool       `json:"has_result"`
	Finalized  bool       `json:"finalized"`
	TotalScore *int       `json:"total_score,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
