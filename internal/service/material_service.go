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

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	ApproveIfPending(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
}

type pointsAwarder interface {
	AwardPoints(ctx context.Context, teacherID string, points int, kind models.ActivityType, title string) (int, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// UploadMaterialRequest describes a material upload.
type UploadMaterialRequest struct {
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Subject     models.Subject `json:"subject" validate:"required"`
	Grade       *int           `json:"grade"`
	FileName    string         `json:"-" validate:"required"`
	FileData    []byte         `json:"-" validate:"required"`
}

// UpdateMaterialRequest describes mutable material fields.
type UpdateMaterialRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Subject     models.Subject `json:"subject"`
	Grade       *int           `json:"grade"`
}

// RejectionResult echoes the moderation reason back to the caller. The
// reason is not stored anywhere; rejection deletes the submission outright.
type RejectionResult struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// MaterialService orchestrates the material submission and moderation
// workflow.
type MaterialService struct {
	repo      materialRepository
	teachers  teacherReader
	schools   schoolReader
	points    pointsAwarder
	files     fileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(repo materialRepository, teachers teacherReader, schools schoolReader, points pointsAwarder, files fileStore, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, teachers: teachers, schools: schools, points: points, files: files, validator: validate, logger: logger}
}

// checkModerationScope limits admins to submissions from their own school:
// the owning teacher's school director must be the caller. Cross-school items
// are reported as missing rather than forbidden so the response does not leak
// their existence. Superadmins pass unconditionally.
func checkModerationScope(ctx context.Context, teachers teacherReader, schools schoolReader, actor *models.JWTClaims, ownerID, notFoundMsg string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil
	}
	owner, err := teachers.FindByID(ctx, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	school, err := schools.FindByID(ctx, owner.SchoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	if school.DirectorUserID == nil || *school.DirectorUserID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return nil
}

// List returns materials visible to the caller. Teachers see approved
// materials plus their own drafts; admins see their school's submissions;
// superadmins see everything.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return materials, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MyMaterials returns the caller's own submissions. A user with no teacher
// profile gets an empty list, not an error.
func (s *MaterialService) MyMaterials(ctx context.Context, userID string, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return []models.Material{}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 0}, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	filter.TeacherID = teacher.ID
	return s.List(ctx, filter)
}

// Get returns one material and bumps its view counter.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to bump views", zap.String("material_id", id), zap.Error(err))
	}
	return material, nil
}

// Upload stores the file and creates an unapproved material owned by the
// caller's teacher profile.
func (s *MaterialService) Upload(ctx context.Context, userID string, req UploadMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if !req.Subject.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	stored := fmt.Sprintf("materials/%s%s", uuid.NewString(), filepath.Ext(req.FileName))
	path, err := s.files.Save(stored, req.FileData)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	material := &models.Material{
		TeacherID:   teacher.ID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Grade:       req.Grade,
		FilePath:    path,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		if delErr := s.files.Delete(stored); delErr != nil {
			s.logger.Warn("failed to clean up orphaned file", zap.String("path", stored), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// Update modifies a material's descriptive fields. Only the owner may edit.
func (s *MaterialService) Update(ctx context.Context, userID, id string, req UpdateMaterialRequest) (*models.Material, error) {
	material, _, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		material.Title = req.Title
	}
	if req.Description != "" {
		material.Description = req.Description
	}
	if req.Subject != "" {
		if !req.Subject.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		material.Subject = req.Subject
	}
	if req.Grade != nil {
		material.Grade = req.Grade
	}
	if err := s.repo.Update(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}
	return material, nil
}

// Delete removes a material and its stored file. Only the owner may delete.
func (s *MaterialService) Delete(ctx context.Context, userID, id string) error {
	material, _, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.files.Delete(material.FilePath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", material.FilePath), zap.Error(err))
	}
	return nil
}

// Approve flips a pending material to approved and credits the owner. Admins
// can only approve submissions from their own school. A repeated approval is
// a no-op: the flip happens at most once, so the credit does too.
func (s *MaterialService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := checkModerationScope(ctx, s.teachers, s.schools, actor, material.TeacherID, "material not found"); err != nil {
		return nil, err
	}
	flipped, err := s.repo.ApproveIfPending(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve material")
	}
	if flipped {
		if _, err := s.points.AwardPoints(ctx, material.TeacherID, models.MaterialApprovalPoints, models.ActivityMaterial, material.Title); err != nil {
			return nil, err
		}
	}
	material.IsApproved = true
	return material, nil
}

// Reject deletes a material outright regardless of its approval state. Admins
// can only reject submissions from their own school. The reason is echoed
// back to the caller but never persisted.
func (s *MaterialService) Reject(ctx context.Context, actor *models.JWTClaims, id, reason string) (*RejectionResult, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := checkModerationScope(ctx, s.teachers, s.schools, actor, material.TeacherID, "material not found"); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject material")
	}
	if err := s.files.Delete(material.FilePath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", material.FilePath), zap.Error(err))
	}
	return &RejectionResult{ID: id, Reason: reason}, nil
}

// Download returns the material and bumps its download counter.
func (s *MaterialService) Download(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		s.logger.Warn("failed to bump downloads", zap.String("material_id", id), zap.Error(err))
	}
	return material, nil
}

func (s *MaterialService) loadOwned(ctx context.Context, userID, id string) (*models.Material, *models.Teacher, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if material.TeacherID != teacher.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not the owner")
	}
	return material, teacher, nil
}
