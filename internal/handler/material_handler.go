package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

type filePathResolver interface {
	Path(filename string) string
}

// MaterialHandler wires the material submission workflow to HTTP routes.
type MaterialHandler struct {
	materials *service.MaterialService
	teachers  *service.TeacherService
	files     filePathResolver
}

// NewMaterialHandler constructs a new MaterialHandler.
func NewMaterialHandler(materials *service.MaterialService, teachers *service.TeacherService, files filePathResolver) *MaterialHandler {
	return &MaterialHandler{materials: materials, teachers: teachers, files: files}
}

// List godoc
// @Summary List materials visible to the caller
// @Tags Materials
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param grade query int false "Filter by grade"
// @Param search query string false "Search in title/description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.MaterialFilter{
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
	if err := h.scopeFilter(c, claims, &filter); err != nil {
		response.Error(c, err)
		return
	}

	materials, pagination, err := h.materials.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// Mine godoc
// @Summary List the caller's own materials
// @Tags Materials
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /materials/mine [get]
func (h *MaterialHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.MaterialFilter
	filter.Page, filter.PageSize = pageParams(c)

	materials, pagination, err := h.materials.MyMaterials(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// Get godoc
// @Summary Get material detail
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.materials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Upload godoc
// @Summary Upload a material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subject formData string true "Subject"
// @Param description formData string false "Description"
// @Param grade formData int false "Grade"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.UploadMaterialRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Subject:     models.Subject(c.PostForm("subject")),
	}
	if grade := c.PostForm("grade"); grade != "" {
		if value, err := strconv.Atoi(grade); err == nil {
			req.Grade = &value
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	data, err := readUpload(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	req.FileName = file.Filename
	req.FileData = data

	material, err := h.materials.Upload(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Update godoc
// @Summary Update a material
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param payload body service.UpdateMaterialRequest true "Material payload"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [put]
func (h *MaterialHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}
	material, err := h.materials.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete godoc
// @Summary Delete own material
// @Tags Materials
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.materials.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approve godoc
// @Summary Approve a pending material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/approve [post]
func (h *MaterialHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	material, err := h.materials.Approve(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Reject godoc
// @Summary Reject and delete a pending material
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param payload body map[string]string true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/reject [post]
func (h *MaterialHandler) Reject(c *gin.Context) {
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
	result, err := h.materials.Reject(c.Request.Context(), claims, c.Param("id"), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a material file
// @Tags Materials
// @Produce octet-stream
// @Param id path string true "Material ID"
// @Success 200
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	material, err := h.materials.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(h.files.Path(material.FilePath), material.Title)
}

func (h *MaterialHandler) scopeFilter(c *gin.Context, claims *models.JWTClaims, filter *models.MaterialFilter) error {
	switch claims.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		filter.DirectorUserID = claims.UserID
		return nil
	default:
		teacher, err := h.teachers.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			approved := true
			filter.IsApproved = &approved
			return nil
		}
		filter.OwnOrApprovedBy = teacher.ID
		return nil
	}
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
