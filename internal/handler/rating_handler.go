package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// RatingHandler wires leaderboards and snapshots to HTTP routes.
type RatingHandler struct {
	ratings *service.RatingService
}

// NewRatingHandler constructs a new RatingHandler.
func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// TopTeachers godoc
// @Summary Teacher leaderboard
// @Tags Ratings
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /ratings/teachers [get]
func (h *RatingHandler) TopTeachers(c *gin.Context) {
	entries, err := h.ratings.TopTeachers(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// TopSchools godoc
// @Summary School leaderboard
// @Tags Ratings
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /ratings/schools [get]
func (h *RatingHandler) TopSchools(c *gin.Context) {
	entries, err := h.ratings.TopSchools(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// TeacherHistory godoc
// @Summary Monthly rating history for a teacher
// @Tags Ratings
// @Produce json
// @Param id path string true "Teacher ID"
// @Param limit query int false "Max months"
// @Success 200 {object} response.Envelope
// @Router /ratings/teachers/{id}/history [get]
func (h *RatingHandler) TeacherHistory(c *gin.Context) {
	history, err := h.ratings.TeacherHistory(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 12))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// SchoolHistory godoc
// @Summary Monthly rating history for a school
// @Tags Ratings
// @Produce json
// @Param id path string true "School ID"
// @Param limit query int false "Max months"
// @Success 200 {object} response.Envelope
// @Router /ratings/schools/{id}/history [get]
func (h *RatingHandler) SchoolHistory(c *gin.Context) {
	history, err := h.ratings.SchoolHistory(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 12))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Snapshot godoc
// @Summary Schedule a monthly leaderboard snapshot
// @Tags Ratings
// @Accept json
// @Produce json
// @Param payload body map[string]string false "Month (YYYY-MM, defaults to current)"
// @Success 202 {object} response.Envelope
// @Router /ratings/snapshots [post]
func (h *RatingHandler) Snapshot(c *gin.Context) {
	var payload struct {
		Month string `json:"month"`
	}
	_ = c.ShouldBindJSON(&payload)

	month := time.Now().UTC()
	if payload.Month != "" {
		parsed, err := time.Parse("2006-01", payload.Month)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM"))
			return
		}
		month = parsed
	}
	if err := h.ratings.ScheduleSnapshot(month); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"month": month.Format("2006-01")}, nil)
}
