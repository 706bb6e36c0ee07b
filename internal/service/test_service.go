package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Common test errors.
var (
	ErrTestNotFound = errors.New("test not found")
	ErrTestInactive = errors.New("test is not accepting attempts")
)

// TestService handles test authoring and paper delivery.
type TestService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	rdb          *redis.Client
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
) *TestService {
	return &TestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		rdb:          rdb,
	}
}

// GetLobby returns every active test with the candidate's attempt state
// overlaid, so the lobby can show "resume" vs "view score".
func (s *TestService) GetLobby(ctx context.Context, candidateID uuid.UUID) ([]model.LobbyTest, error) {
	tests, err := s.testRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tests: %w", err)
	}

	attempts, err := s.resultRepo.AttemptInfoByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	lobby := make([]model.LobbyTest, 0, len(tests))
	for _, t := range tests {
		entry := model.LobbyTest{Test: t}
		if a, ok := attempts[t.ID]; ok {
			entry.HasResult = true
			entry.Finalized = a.FinishedAt != nil
			entry.FinishedAt = a.FinishedAt
			score := a.TotalScore
			entry.TotalScore = &score
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// GetPaper returns the candidate-facing paper for a test: questions with
// answer keys stripped. The payload is cached in Redis so a hall of
// candidates starting at once does not hammer PostgreSQL.
func (s *TestService) GetPaper(ctx context.Context, testID uuid.UUID) (*model.TestPayload, error) {
	cacheKey := config.CacheKey.TestPayloadKey(testID.String())

	cached, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == nil {
		payload := &model.TestPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry. Rebuild below.
		_ = s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached paper: %w", err)
	}

	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	if !test.IsActive {
		return nil, ErrTestInactive
	}

	questions, err := s.questionRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	payload := &model.TestPayload{
		TestID:          test.ID,
		Title:           test.Title,
		DurationMinutes: test.DurationMinutes,
		Instructions:    test.Instructions,
		Questions:       make([]model.QuestionForCandidate, 0, len(questions)),
	}
	for i := range questions {
		payload.Questions = append(payload.Questions, questions[i].ForCandidate())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	if err := s.rdb.Set(ctx, cacheKey, raw, 0).Err(); err != nil {
		log.Warn().Err(err).Str("test_id", testID.String()).Msg("failed to cache paper")
	}
	// The clock stream reads the duration without loading the full paper.
	_ = s.rdb.Set(ctx, config.CacheKey.TestDurationKey(testID.String()), strconv.Itoa(test.DurationMinutes), 0)

	return payload, nil
}

// GetTest returns a test by id.
func (s *TestService) GetTest(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return test, nil
}

// CreateTest authors a new test. Tests start inactive and are activated
// explicitly once their questions are loaded.
func (s *TestService) CreateTest(ctx context.Context, req *model.CreateTestRequest) (*model.Test, error) {
	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	test := &model.Test{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		IsActive:        false,
		StartDate:       startDate,
		EndDate:         req.EndDate,
		Instructions:    req.Instructions,
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	return test, nil
}

// ListTests returns every active test. Admin listing reuses the lobby
// query without the attempt overlay.
func (s *TestService) ListTests(ctx context.Context) ([]model.Test, error) {
	return s.testRepo.ListActive(ctx)
}

// SetStatus activates or deactivates a test. Deactivation drops the
// cached paper so new entrants see the change immediately; candidates
// already inside keep their clock and finish normally.
func (s *TestService) SetStatus(ctx context.Context, testID uuid.UUID, active bool) error {
	if err := s.testRepo.SetActive(ctx, testID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTestNotFound
		}
		return fmt.Errorf("set test status: %w", err)
	}
	if !active {
		_ = s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(testID.String()))
	}
	return nil
}

// CreateQuestion adds a question to a test and invalidates the cached paper.
func (s *TestService) CreateQuestion(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	testID, err := uuid.Parse(req.TestID)
	if err != nil {
		return nil, ErrTestNotFound
	}
	if _, err := s.testRepo.GetByID(ctx, testID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	question, err := req.ToQuestion(testID)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	_ = s.rdb.Del(ctx, config.CacheKey.TestPayloadKey(testID.String()))
	return question, nil
}
