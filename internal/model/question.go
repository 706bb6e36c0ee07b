package model

import (
	"errors"

	"github.com/google/uuid"
)

// QuestionType distinguishes the two answer modalities.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "MCQ"
	QuestionTypeNumerical QuestionType = "NUMERICAL"
)

// Option is a single choice of an MCQ question. Exactly one option per
// question carries IsCorrect.
type Option struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}

// Question represents a single test question with its answer key.
// Options is populated only for MCQ, NumericalAnswer only for NUMERICAL.
type Question struct {
	ID              uuid.UUID    `json:"id"`
	TestID          uuid.UUID    `json:"test_id"`
	Subject         Subject      `json:"subject"`
	QuestionType    QuestionType `json:"question_type"`
	QuestionText    string       `json:"question_text"`
	Options         []Option     `json:"options,omitempty"`
	NumericalAnswer *float64     `json:"numerical_answer,omitempty"`
	Images          []string     `json:"images,omitempty"`
	OrderNum        int          `json:"order_num"`
}

// CorrectOption returns the option flagged correct, or nil for numerical
// questions and malformed keys.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// OptionForCandidate is an MCQ option without the correctness flag.
type OptionForCandidate struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// QuestionForCandidate is a question stripped of its answer key. This is the
// only question shape ever delivered to a candidate during an open attempt.
type QuestionForCandidate struct {
	ID           uuid.UUID            `json:"id"`
	Subject      Subject              `json:"subject"`
	QuestionType QuestionType         `json:"question_type"`
	QuestionText string               `json:"question_text"`
	Options      []OptionForCandidate `json:"options,omitempty"`
	Images       []string             `json:"images,omitempty"`
	OrderNum     int                  `json:"order_num"`
}

// ForCandidate strips the answer key from a question.
func (q *Question) ForCandidate() QuestionForCandidate {
	out := QuestionForCandidate{
		ID:           q.ID,
		Subject:      q.Subject,
		QuestionType: q.QuestionType,
		QuestionText: q.QuestionText,
		Images:       q.Images,
		OrderNum:     q.OrderNum,
	}
	for _, opt := range q.Options {
		out.Options = append(out.Options, OptionForCandidate{ID: opt.ID, Text: opt.Text})
	}
	return out
}

// CreateOptionRequest is one option in a question-authoring payload.
type CreateOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=2000"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	TestID          string                `json:"test_id" binding:"required,uuid"`
	Subject         Subject               `json:"subject" binding:"required,oneof=PHYSICS CHEMISTRY MATHEMATICS"`
	QuestionType    QuestionType          `json:"question_type" binding:"required,oneof=MCQ NUMERICAL"`
	QuestionText    string                `json:"question_text" binding:"required,min=1,max=5000"`
	Options         []CreateOptionRequest `json:"options" binding:"omitempty,dive"`
	NumericalAnswer *float64              `json:"numerical_answer" binding:"omitempty"`
	Images          []string              `json:"images" binding:"omitempty,dive,max=2048"`
	OrderNum        int                   `json:"order_num" binding:"min=0"`
}

// Authoring errors the binding tags cannot express.
var (
	ErrQuestionNeedsOptions   = errors.New("mcq question requires between 2 and 6 options with exactly one correct")
	ErrQuestionNeedsNumerical = errors.New("numerical question requires a numerical answer and no options")
)

// ToQuestion validates the cross-field rules and builds a Question.
// Option ids are minted here so the key never depends on client input.
func (r *CreateQuestionRequest) ToQuestion(testID uuid.UUID) (*Question, error) {
	q := &Question{
		TestID:       testID,
		Subject:      r.Subject,
		QuestionType: r.QuestionType,
		QuestionText: r.QuestionText,
		Images:       r.Images,
		OrderNum:     r.OrderNum,
	}

	switch r.QuestionType {
	case QuestionTypeMCQ:
		if len(r.Options) < 2 || len(r.Options) > 6 {
			return nil, ErrQuestionNeedsOptions
		}
		correct := 0
		for _, opt := range r.Options {
			if opt.IsCorrect {
				correct++
			}
			q.Options = append(q.Options, Option{
				ID:        uuid.New(),
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
			})
		}
		if correct != 1 {
			return nil, ErrQuestionNeedsOptions
		}
	case QuestionTypeNumerical:
		if r.NumericalAnswer == nil || len(r.Options) > 0 {
			return nil, ErrQuestionNeedsNumerical
		}
		q.NumericalAnswer = r.NumericalAnswer
	}

	return q, nil
}
