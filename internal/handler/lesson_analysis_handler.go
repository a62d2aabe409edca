package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// LessonAnalysisHandler wires the peer-review workflow to HTTP routes.
type LessonAnalysisHandler struct {
	analyses *service.LessonAnalysisService
}

// NewLessonAnalysisHandler constructs a new LessonAnalysisHandler.
func NewLessonAnalysisHandler(analyses *service.LessonAnalysisService) *LessonAnalysisHandler {
	return &LessonAnalysisHandler{analyses: analyses}
}

// List godoc
// @Summary List lesson analyses
// @Tags Lesson Analyses
// @Produce json
// @Param analyzer_id query string false "Filter by analyzer"
// @Param teacher_id query string false "Filter by analyzed teacher"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /analyses [get]
func (h *LessonAnalysisHandler) List(c *gin.Context) {
	filter := models.AnalysisFilter{
		AnalyzerID: c.Query("analyzer_id"),
		TeacherID:  c.Query("teacher_id"),
		Status:     models.AnalysisStatus(c.Query("status")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	analyses, pagination, err := h.analyses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analyses, pagination)
}

// Get godoc
// @Summary Get analysis detail
// @Tags Lesson Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id} [get]
func (h *LessonAnalysisHandler) Get(c *gin.Context) {
	analysis, err := h.analyses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Create godoc
// @Summary File a lesson analysis
// @Tags Lesson Analyses
// @Accept json
// @Produce json
// @Param payload body service.CreateAnalysisRequest true "Analysis payload"
// @Success 201 {object} response.Envelope
// @Router /analyses [post]
func (h *LessonAnalysisHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid analysis payload"))
		return
	}
	analysis, err := h.analyses.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, analysis)
}

// Update godoc
// @Summary Edit a draft or pending analysis
// @Tags Lesson Analyses
// @Accept json
// @Produce json
// @Param id path string true "Analysis ID"
// @Param payload body service.UpdateAnalysisRequest true "Analysis payload"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id} [put]
func (h *LessonAnalysisHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid analysis payload"))
		return
	}
	analysis, err := h.analyses.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Submit godoc
// @Summary Submit a draft analysis for review
// @Tags Lesson Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id}/submit [post]
func (h *LessonAnalysisHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	analysis, err := h.analyses.Submit(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Approve godoc
// @Summary Approve a pending analysis of the caller's lesson
// @Tags Lesson Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id}/approve [post]
func (h *LessonAnalysisHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	analysis, err := h.analyses.Approve(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Reject godoc
// @Summary Reject a pending analysis
// @Tags Lesson Analyses
// @Accept json
// @Produce json
// @Param id path string true "Analysis ID"
// @Param payload body map[string]string true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id}/reject [post]
func (h *LessonAnalysisHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}
	analysis, err := h.analyses.Reject(c.Request.Context(), claims.UserID, c.Param("id"), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Comment godoc
// @Summary Comment on an analysis
// @Tags Lesson Analyses
// @Accept json
// @Produce json
// @Param id path string true "Analysis ID"
// @Param payload body map[string]string true "Comment text"
// @Success 201 {object} response.Envelope
// @Router /analyses/{id}/comments [post]
func (h *LessonAnalysisHandler) Comment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	comment, err := h.analyses.Comment(c.Request.Context(), claims.UserID, c.Param("id"), payload.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Comments godoc
// @Summary List comments on an analysis
// @Tags Lesson Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id}/comments [get]
func (h *LessonAnalysisHandler) Comments(c *gin.Context) {
	comments, err := h.analyses.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// Stats godoc
// @Summary Aggregate analysis activity, global for staff and own for teachers
// @Tags Lesson Analyses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analyses/stats [get]
func (h *LessonAnalysisHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.analyses.Stats(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
