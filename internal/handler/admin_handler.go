package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/repository"
	"github.com/prepnova/mocktest-backend/internal/response"
	"github.com/prepnova/mocktest-backend/internal/service"
	"github.com/prepnova/mocktest-backend/internal/validator"
)

// AdminHandler handles test and question authoring plus result review.
type AdminHandler struct {
	testService  *service.TestService
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	testService *service.TestService,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
) *AdminHandler {
	return &AdminHandler{
		testService:  testService,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
	}
}

// CreateTest godoc
// POST /api/v1/admin/tests
// Authors a new test. Tests start inactive.
func (h *AdminHandler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.CreateTest(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// ListTests godoc
// GET /api/v1/admin/tests
// Lists active tests.
func (h *AdminHandler) ListTests(c *gin.Context) {
	tests, err := h.testService.ListTests(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if tests == nil {
		tests = []model.Test{}
	}
	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Adds a question to a test. Admin payloads carry the full answer key.
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.testService.CreateQuestion(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
		case errors.Is(err, model.ErrQuestionNeedsOptions), errors.Is(err, model.ErrQuestionNeedsNumerical):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"detail": err.Error(),
			})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListQuestions godoc
// GET /api/v1/admin/questions?test_id=...
// Lists a test's questions with answer keys, ordered by subject and position.
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	testID, err := uuid.Parse(c.Query("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	questions, err := h.questionRepo.ListByTest(c.Request.Context(), testID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListResults godoc
// GET /api/v1/admin/tests/:test_id/results?page=&per_page=
// Pages through attempt rollups for a test, highest score first.
func (h *AdminHandler) ListResults(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidReference)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	summaries, total, err := h.resultRepo.ListByTest(c.Request.Context(), testID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if summaries == nil {
		summaries = []repository.ResultSummary{}
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": summaries}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}
