package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// MockTestHandler wires mock tests and attempt grading to HTTP routes.
type MockTestHandler struct {
	tests *service.MockTestService
}

// NewMockTestHandler constructs a new MockTestHandler.
func NewMockTestHandler(tests *service.MockTestService) *MockTestHandler {
	return &MockTestHandler{tests: tests}
}

// List godoc
// @Summary List mock tests
// @Tags Mock Tests
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param difficulty query string false "Filter by difficulty"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *MockTestHandler) List(c *gin.Context) {
	filter := models.MockTestFilter{
		Subject:    models.Subject(c.Query("subject")),
		Difficulty: models.TestDifficulty(c.Query("difficulty")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	tests, pagination, err := h.tests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, pagination)
}

// Get godoc
// @Summary Get a test with questions (answer key stripped)
// @Tags Mock Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /tests/{id} [get]
func (h *MockTestHandler) Get(c *gin.Context) {
	test, questions, err := h.tests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"test": test, "questions": questions}, nil)
}

// Create godoc
// @Summary Create a mock test
// @Tags Mock Tests
// @Accept json
// @Produce json
// @Param payload body service.CreateMockTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Router /tests [post]
func (h *MockTestHandler) Create(c *gin.Context) {
	var req service.CreateMockTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid test payload"))
		return
	}
	test, err := h.tests.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// Submit godoc
// @Summary Submit answers for grading
// @Tags Mock Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body service.SubmitAttemptRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Router /tests/{id}/attempts [post]
func (h *MockTestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attempt payload"))
		return
	}
	attempt, err := h.tests.Submit(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// Review godoc
// @Summary Review a graded attempt with the answer key
// @Tags Mock Tests
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} response.Envelope
// @Router /attempts/{id}/review [get]
func (h *MockTestHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	attempt, key, err := h.tests.Review(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"attempt": attempt, "answer_key": key}, nil)
}

// MyAttempts godoc
// @Summary List the caller's attempts
// @Tags Mock Tests
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /attempts [get]
func (h *MockTestHandler) MyAttempts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	attempts, err := h.tests.MyAttempts(c.Request.Context(), claims.UserID, queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}
