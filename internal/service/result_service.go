package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/scoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Common result errors.
var (
	ErrInvalidReference  = errors.New("referenced id is not a valid uuid")
	ErrQuestionNotFound  = errors.New("question does not belong to this test")
	ErrResultFinalized   = errors.New("attempt is already submitted")
	ErrResultNotFound    = errors.New("no attempt found for this test")
	ErrAmbiguousResponse = errors.New("selected_option_id and numerical_value are mutually exclusive")
	ErrBadNumericalValue = errors.New("numerical_value is not a valid number")
)

// ResultStore persists attempts. Satisfied by *repository.ResultRepository.
type ResultStore interface {
	GetByCandidateAndTest(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error)
	Create(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error)
	SaveEntryAndRollups(ctx context.Context, resultID uuid.UUID, entry *model.AnswerEntry, rollups *model.Rollups) error
	Finalize(ctx context.Context, candidateID, testID uuid.UUID, finishedAt time.Time) (bool, error)
}

// QuestionCatalog resolves questions and their subjects. Satisfied by
// *repository.QuestionRepository.
type QuestionCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	SubjectsByTest(ctx context.Context, testID uuid.UUID) (map[uuid.UUID]model.Subject, error)
}

// ResultService owns the answer lifecycle of an attempt: saving and
// revising responses, recomputing rollups, and closing the attempt.
type ResultService struct {
	results   ResultStore
	questions QuestionCatalog
	rdb       *redis.Client
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, questions QuestionCatalog, rdb *redis.Client) *ResultService {
	return &ResultService{results: results, questions: questions, rdb: rdb}
}

// StartAttempt opens (or resumes) the candidate's attempt at a test.
// The start time is cached in Redis so the clock stream can compute the
// remaining duration without a database round trip.
func (s *ResultService) StartAttempt(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	result, err := s.results.Create(ctx, candidateID, testID)
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	startKey := config.CacheKey.AttemptStartKey(testID.String(), candidateID.String())
	if err := s.rdb.Set(ctx, startKey, result.StartedAt.Unix(), 0).Err(); err != nil {
		log.Warn().Err(err).Str("test_id", testID.String()).Msg("failed to cache attempt start time")
	}

	return result, nil
}

// SubmitAnswer saves or revises one answer within an open attempt and
// returns the attempt with freshly recomputed rollups.
//
// The merge rules:
//   - a response (option or numerical) replaces the previous response and
//     its verdict entirely; the entry never accumulates both modalities
//   - a payload with no response is a review-flag-only update and leaves
//     the saved response and verdict untouched
//   - the review flag follows marked_for_review when present, otherwise
//     it is derived from the action
func (s *ResultService) SubmitAnswer(ctx context.Context, candidateID, testID uuid.UUID, req *model.SubmitAnswerRequest) (*model.Result, error) {
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return nil, ErrInvalidReference
	}
	if req.SelectedOptionID != nil && req.NumericalValue != nil {
		return nil, ErrAmbiguousResponse
	}

	result, err := s.results.GetByCandidateAndTest(ctx, candidateID, testID)
	if errors.Is(err, pgx.ErrNoRows) {
		result, err = s.results.Create(ctx, candidateID, testID)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if result.Finalized() {
		return nil, ErrResultFinalized
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	if question.TestID != testID {
		return nil, ErrQuestionNotFound
	}

	entry := model.AnswerEntry{QuestionID: questionID, Verdict: model.VerdictUndetermined}
	if existing := result.EntryFor(questionID); existing != nil {
		entry = *existing
	}

	hasResponse := req.SelectedOptionID != nil || req.NumericalValue != nil
	if hasResponse {
		var resp scoring.Response
		if req.SelectedOptionID != nil {
			optionID, err := uuid.Parse(*req.SelectedOptionID)
			if err != nil {
				return nil, ErrInvalidReference
			}
			resp = scoring.SelectedOption(optionID)
			entry.SelectedOptionID = &optionID
			entry.NumericalValue = nil
		} else {
			resp, err = scoring.ParseNumerical(*req.NumericalValue)
			if err != nil {
				return nil, ErrBadNumericalValue
			}
			value, _ := resp.Value()
			entry.NumericalValue = &value
			entry.SelectedOptionID = nil
		}

		outcome := scoring.Score(question, resp)
		entry.Verdict = outcome.Verdict
		entry.Score = outcome.Delta
	}

	if req.MarkedForReview != nil {
		entry.MarkedForReview = *req.MarkedForReview
	} else {
		entry.MarkedForReview = req.Action == model.AnswerActionMarkForReview
	}
	entry.UpdatedAt = time.Now()

	// Merge into the in-memory entry set, then recompute every rollup
	// from scratch. Stored aggregates are never inputs.
	replaced := false
	for i := range result.Entries {
		if result.Entries[i].QuestionID == questionID {
			result.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		result.Entries = append(result.Entries, entry)
	}

	subjects, err := s.questions.SubjectsByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	result.Rollups = scoring.Recompute(result.Entries, func(id uuid.UUID) (model.Subject, bool) {
		subject, ok := subjects[id]
		return subject, ok
	})

	if err := s.results.SaveEntryAndRollups(ctx, result.ID, &entry, &result.Rollups); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	return result, nil
}

// GetResult returns the candidate's attempt at a test, rollups and
// entries included.
func (s *ResultService) GetResult(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	result, err := s.results.GetByCandidateAndTest(ctx, candidateID, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return result, nil
}

// FinalizeAttempt closes the candidate's attempt. Submitting an already
// finalized attempt is a no-op that returns the stored result, so the
// manual submit button and the deadline worker can race safely.
func (s *ResultService) FinalizeAttempt(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	closed, err := s.results.Finalize(ctx, candidateID, testID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}
	if !closed {
		log.Debug().
			Str("candidate_id", candidateID.String()).
			Str("test_id", testID.String()).
			Msg("attempt already finalized")
	}

	startKey := config.CacheKey.AttemptStartKey(testID.String(), candidateID.String())
	if err := s.rdb.Del(ctx, startKey).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to drop attempt start key")
	}

	return s.GetResult(ctx, candidateID, testID)
}
