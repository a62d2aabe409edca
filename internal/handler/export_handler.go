package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/service"
	"github.com/edu-monitoring/api/pkg/response"
)

// ExportHandler wires leaderboard report generation to HTTP routes.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs a new ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Teachers godoc
// @Summary Export the teacher leaderboard
// @Tags Exports
// @Produce json
// @Param format query string false "csv, pdf or xlsx"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /exports/teachers [post]
func (h *ExportHandler) Teachers(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ExportTeacherLeaderboard(c.Request.Context(), format, queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Schools godoc
// @Summary Export the school leaderboard
// @Tags Exports
// @Produce json
// @Param format query string false "csv, pdf or xlsx"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /exports/schools [post]
func (h *ExportHandler) Schools(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ExportSchoolLeaderboard(c.Request.Context(), format, queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a rendered report via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	path, err := h.exports.ResolveDownload(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
