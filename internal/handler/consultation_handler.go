package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// ConsultationHandler wires the mentoring workflow to HTTP routes.
type ConsultationHandler struct {
	consultations *service.ConsultationService
}

// NewConsultationHandler constructs a new ConsultationHandler.
func NewConsultationHandler(consultations *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations}
}

// List godoc
// @Summary List the caller's consultations
// @Tags Consultations
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /consultations [get]
func (h *ConsultationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ConsultationFilter{
		Status: models.ConsultationStatus(c.Query("status")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	consultations, pagination, err := h.consultations.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultations, pagination)
}

// Get godoc
// @Summary Get consultation detail
// @Tags Consultations
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id} [get]
func (h *ConsultationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	consultation, err := h.consultations.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Create godoc
// @Summary Request a consultation
// @Tags Consultations
// @Accept json
// @Produce json
// @Param payload body service.CreateConsultationRequest true "Consultation payload"
// @Success 201 {object} response.Envelope
// @Router /consultations [post]
func (h *ConsultationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid consultation payload"))
		return
	}
	consultation, err := h.consultations.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, consultation)
}

// Accept godoc
// @Summary Accept a pending consultation
// @Tags Consultations
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id}/accept [post]
func (h *ConsultationHandler) Accept(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	consultation, err := h.consultations.Accept(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Reject godoc
// @Summary Reject a pending consultation
// @Tags Consultations
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id}/reject [post]
func (h *ConsultationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	consultation, err := h.consultations.Reject(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Complete godoc
// @Summary Mark a consultation completed
// @Tags Consultations
// @Accept json
// @Produce json
// @Param id path string true "Consultation ID"
// @Param payload body map[string]string false "Session notes"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id}/complete [post]
func (h *ConsultationHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&payload)

	consultation, err := h.consultations.Complete(c.Request.Context(), claims.UserID, c.Param("id"), payload.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Stats godoc
// @Summary Aggregate the caller's consultations per status
// @Tags Consultations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /consultations/stats [get]
func (h *ConsultationHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.consultations.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
