package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/response"
)

// LibraryHandler wires the shared reading library to HTTP routes.
type LibraryHandler struct {
	library *service.LibraryService
}

// NewLibraryHandler constructs a new LibraryHandler.
func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// List godoc
// @Summary List library resources
// @Tags Library
// @Produce json
// @Param type query string false "Filter by resource type"
// @Param search query string false "Search in title/author"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library [get]
func (h *LibraryHandler) List(c *gin.Context) {
	filter := models.LibraryFilter{
		ResourceType: models.ResourceType(c.Query("type")),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	resources, pagination, err := h.library.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resources, pagination)
}

// Get godoc
// @Summary Get resource detail
// @Tags Library
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /library/{id} [get]
func (h *LibraryHandler) Get(c *gin.Context) {
	resource, err := h.library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Create godoc
// @Summary Add a library resource
// @Tags Library
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param resource_type formData string true "Resource type"
// @Param url formData string false "External URL"
// @Param file formData file false "Resource file"
// @Success 201 {object} response.Envelope
// @Router /library [post]
func (h *LibraryHandler) Create(c *gin.Context) {
	req := service.CreateResourceRequest{
		Title:        c.PostForm("title"),
		Author:       c.PostForm("author"),
		Description:  c.PostForm("description"),
		ResourceType: models.ResourceType(c.PostForm("resource_type")),
	}
	if url := c.PostForm("url"); url != "" {
		req.URL = &url
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

	resource, err := h.library.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Delete godoc
// @Summary Remove a library resource
// @Tags Library
// @Param id path string true "Resource ID"
// @Success 204
// @Router /library/{id} [delete]
func (h *LibraryHandler) Delete(c *gin.Context) {
	if err := h.library.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
