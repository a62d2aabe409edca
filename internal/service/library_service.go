package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type libraryRepository interface {
	List(ctx context.Context, filter models.LibraryFilter) ([]models.LibraryResource, int, error)
	FindByID(ctx context.Context, id string) (*models.LibraryResource, error)
	Create(ctx context.Context, resource *models.LibraryResource) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CreateResourceRequest describes a new library resource. Either a file or
// an external URL must be present.
type CreateResourceRequest struct {
	Title        string              `json:"title" validate:"required"`
	Author       string              `json:"author"`
	Description  string              `json:"description"`
	ResourceType models.ResourceType `json:"resource_type" validate:"required"`
	URL          *string             `json:"url"`
	FileName     string              `json:"-"`
	FileData     []byte              `json:"-"`
}

// LibraryService manages the shared reading library.
type LibraryService struct {
	repo      libraryRepository
	files     fileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLibraryService constructs LibraryService.
func NewLibraryService(repo libraryRepository, files fileStore, validate *validator.Validate, logger *zap.Logger) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibraryService{repo: repo, files: files, validator: validate, logger: logger}
}

// List returns resources with pagination metadata.
func (s *LibraryService) List(ctx context.Context, filter models.LibraryFilter) ([]models.LibraryResource, *models.Pagination, error) {
	resources, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return resources, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one resource and bumps its view counter.
func (s *LibraryService) Get(ctx context.Context, id string) (*models.LibraryResource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to bump views", zap.String("resource_id", id), zap.Error(err))
	}
	return resource, nil
}

// Create adds a resource to the library.
func (s *LibraryService) Create(ctx context.Context, req CreateResourceRequest) (*models.LibraryResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}
	if !req.ResourceType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource type")
	}
	if req.URL == nil && len(req.FileData) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either url or a file is required")
	}

	resource := &models.LibraryResource{
		Title:        req.Title,
		Author:       req.Author,
		Description:  req.Description,
		ResourceType: req.ResourceType,
		URL:          req.URL,
	}
	if len(req.FileData) > 0 {
		stored := fmt.Sprintf("library/%s%s", uuid.NewString(), filepath.Ext(req.FileName))
		path, err := s.files.Save(stored, req.FileData)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
		}
		resource.FilePath = &path
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	return resource, nil
}

// Delete removes a resource and its stored file.
func (s *LibraryService) Delete(ctx context.Context, id string) error {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	if resource.FilePath != nil {
		if err := s.files.Delete(*resource.FilePath); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("path", *resource.FilePath), zap.Error(err))
		}
	}
	return nil
}
