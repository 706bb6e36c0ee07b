package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/middleware"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/response"
	"github.com/prepnova/mocktest-backend/internal/service"
	"github.com/prepnova/mocktest-backend/internal/validator"
)

// CandidateHandler handles candidate-facing endpoints (lobby, test taking).
type CandidateHandler struct {
	testService   *service.TestService
	resultService *service.ResultService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	testService *service.TestService,
	resultService *service.ResultService,
) *CandidateHandler {
	return &CandidateHandler{
		testService:   testService,
		resultService: resultService,
	}
}

// GetLobby godoc
// GET /api/v1/candidate/tests
// Returns active tests with the candidate's attempt state overlaid.
func (h *CandidateHandler) GetLobby(c *gin.Context) {
	candidateID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.testService.GetLobby(c.Request.Context(), candidateID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if lobby == nil {
		lobby = []model.LobbyTest{}
	}

	response.Success(c, http.StatusOK, gin.H{"tests": lobby})
}

// GetQuestions godoc
// GET /api/v1/candidate/tests/:test_id/questions
// Returns the answer-stripped paper and opens the candidate's attempt.
// Opening is idempotent, so reloading the page resumes the same clock.
func (h *CandidateHandler) GetQuestions(c *gin.Context) {
	candidateID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	payload, err := h.testService.GetPaper(c.Request.Context(), testID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
		case errors.Is(err, service.ErrTestInactive):
			response.Fail(c, http.StatusForbidden, response.ErrTestInactive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	result, err := h.resultService.StartAttempt(c.Request.Context(), candidateID, testID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if result.Finalized() {
		response.Fail(c, http.StatusForbidden, response.ErrResultFinalized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"paper":      payload,
		"started_at": result.StartedAt,
		"answers":    result.Entries,
	})
}

// SubmitAnswer godoc
// POST /api/v1/candidate/tests/:test_id/answers
// Saves or revises one answer and returns the attempt with fresh rollups.
func (h *CandidateHandler) SubmitAnswer(c *gin.Context) {
	candidateID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.resultService.SubmitAnswer(c.Request.Context(), candidateID, testID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReference):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
		case errors.Is(err, service.ErrResultFinalized):
			response.Fail(c, http.StatusConflict, response.ErrResultFinalized)
		case errors.Is(err, service.ErrAmbiguousResponse), errors.Is(err, service.ErrBadNumericalValue):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"detail": err.Error(),
			})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetResult godoc
// GET /api/v1/candidate/tests/:test_id/result
// Returns the candidate's attempt with entries and rollups. Candidates
// without an attempt get 404, not an empty shell.
func (h *CandidateHandler) GetResult(c *gin.Context) {
	candidateID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	result, err := h.resultService.GetResult(c.Request.Context(), candidateID, testID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Submit godoc
// POST /api/v1/candidate/tests/:test_id/submit
// Explicitly finalizes the attempt. Safe to call twice: the second call
// returns the already-finalized result unchanged.
func (h *CandidateHandler) Submit(c *gin.Context) {
	candidateID, ok := middleware.GetUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	result, err := h.resultService.FinalizeAttempt(c.Request.Context(), candidateID, testID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// UpdateTestStatus godoc
// PATCH /api/v1/candidate/tests/:test_id/status
// Deactivates (or reactivates) a test. Candidates already inside keep
// their clock; the test just stops accepting new entrants.
func (h *CandidateHandler) UpdateTestStatus(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	var req model.UpdateTestStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.testService.SetStatus(c.Request.Context(), testID, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"is_active": *req.IsActive})
}
