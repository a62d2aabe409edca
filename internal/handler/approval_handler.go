package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// ApprovalHandler wires the moderation queue to HTTP routes.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalHandler constructs a new ApprovalHandler.
func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// PendingQueue godoc
// @Summary List pending submissions scoped to the caller's school
// @Tags Approvals
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) PendingQueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	directorUserID := ""
	if claims.Role == models.RoleAdmin {
		directorUserID = claims.UserID
	}
	page, limit := pageParams(c)

	materials, videos, err := h.approvals.PendingQueue(c.Request.Context(), directorUserID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"materials": materials, "videos": videos}, nil)
}

// BulkApprove godoc
// @Summary Approve or reject a batch of materials and videos atomically
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body models.BulkApprovalRequest true "IDs and action"
// @Success 200 {object} response.Envelope
// @Router /approvals/bulk [post]
func (h *ApprovalHandler) BulkApprove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.BulkApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	if req.Action == "" {
		req.Action = models.BulkActionApprove
	}
	if !req.Action.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown bulk action"))
		return
	}

	if req.Action == models.BulkActionReject {
		result, err := h.approvals.BulkReject(c.Request.Context(), claims.UserID, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
		return
	}

	result, err := h.approvals.BulkApprove(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
