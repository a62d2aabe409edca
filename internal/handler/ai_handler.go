package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// AIHandler wires the generative assistant to HTTP routes.
type AIHandler struct {
	assistant *service.AIService
	metrics   *service.MetricsService
}

// NewAIHandler constructs a new AIHandler.
func NewAIHandler(assistant *service.AIService, metrics *service.MetricsService) *AIHandler {
	return &AIHandler{assistant: assistant, metrics: metrics}
}

// LessonPlan godoc
// @Summary Generate a lesson plan
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body service.LessonPlanRequest true "Lesson plan parameters"
// @Success 200 {object} response.Envelope
// @Router /assistant/lesson-plan [post]
func (h *AIHandler) LessonPlan(c *gin.Context) {
	var req service.LessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson plan payload"))
		return
	}
	reply, err := h.assistant.GenerateLessonPlan(c.Request.Context(), req)
	h.record(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Quiz godoc
// @Summary Generate a quiz
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body service.QuizRequest true "Quiz parameters"
// @Success 200 {object} response.Envelope
// @Router /assistant/quiz [post]
func (h *AIHandler) Quiz(c *gin.Context) {
	var req service.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}
	reply, err := h.assistant.GenerateQuiz(c.Request.Context(), req)
	h.record(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Ask godoc
// @Summary Ask the assistant a free-form question
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Question"
// @Success 200 {object} response.Envelope
// @Router /assistant/ask [post]
func (h *AIHandler) Ask(c *gin.Context) {
	var payload struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "question required"))
		return
	}
	reply, err := h.assistant.Ask(c.Request.Context(), payload.Question)
	h.record(err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

func (h *AIHandler) record(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	h.metrics.RecordAssistantCall(outcome)
}
