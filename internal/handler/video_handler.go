package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// VideoHandler wires the video submission workflow to HTTP routes.
type VideoHandler struct {
	videos   *service.VideoService
	teachers *service.TeacherService
}

// NewVideoHandler constructs a new VideoHandler.
func NewVideoHandler(videos *service.VideoService, teachers *service.TeacherService) *VideoHandler {
	return &VideoHandler{videos: videos, teachers: teachers}
}

// List godoc
// @Summary List videos visible to the caller
// @Tags Videos
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param grade query int false "Filter by grade"
// @Param search query string false "Search in title/description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.VideoFilter{
		Subject:   models.Subject(c.Query("subject")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if grade := c.Query("grade"); grade != "" {
		if value, err := strconv.Atoi(grade); err == nil {
			filter.Grade = &value
		}
	}
	filter.Page, filter.PageSize = pageParams(c)

	switch claims.Role {
	case models.RoleSuperAdmin:
	case models.RoleAdmin:
		filter.DirectorUserID = claims.UserID
	default:
		if teacher, err := h.teachers.GetByUser(c.Request.Context(), claims.UserID); err == nil {
			filter.OwnOrApprovedBy = teacher.ID
		} else {
			approved := true
			filter.IsApproved = &approved
		}
	}

	videos, pagination, err := h.videos.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, videos, pagination)
}

// Mine godoc
// @Summary List the caller's own videos
// @Tags Videos
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /videos/mine [get]
func (h *VideoHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.VideoFilter
	filter.Page, filter.PageSize = pageParams(c)

	videos, pagination, err := h.videos.MyVideos(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, videos, pagination)
}

// Get godoc
// @Summary Get video detail
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.videos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, video, nil)
}

// Upload godoc
// @Summary Submit a video
// @Tags Videos
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subject formData string true "Subject"
// @Param video_url formData string false "External video URL"
// @Param file formData file false "Video file"
// @Success 201 {object} response.Envelope
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.UploadVideoRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Subject:     models.Subject(c.PostForm("subject")),
	}
	if grade := c.PostForm("grade"); grade != "" {
		if value, err := strconv.Atoi(grade); err == nil {
			req.Grade = &value
		}
	}
	if duration := c.PostForm("duration"); duration != "" {
		if value, err := strconv.Atoi(duration); err == nil {
			req.Duration = value
		}
	}
	if url := c.PostForm("video_url"); url != "" {
		req.VideoURL = &url
	}
	if file, err := c.FormFile("file"); err == nil {
		data, err := readUpload(file)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
			return
		}
		req.FileName = file.Filename
		req.FileData = data
	}

	video, err := h.videos.Upload(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// Approve godoc
// @Summary Approve a pending video
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Router /videos/{id}/approve [post]
func (h *VideoHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	video, err := h.videos.Approve(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, video, nil)
}

// Reject godoc
// @Summary Reject and delete a pending video
// @Tags Videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param payload body map[string]string true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /videos/{id}/reject [post]
func (h *VideoHandler) Reject(c *gin.Context) {
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
	result, err := h.videos.Reject(c.Request.Context(), claims, c.Param("id"), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Like godoc
// @Summary Like a video
// @Tags Videos
// @Param id path string true "Video ID"
// @Success 204
// @Router /videos/{id}/like [post]
func (h *VideoHandler) Like(c *gin.Context) {
	if err := h.videos.Like(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
