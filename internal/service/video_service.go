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

type videoRepository interface {
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error
	ApproveIfPending(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) error
}

// UploadVideoRequest describes a video submission. Either an external URL or
// an uploaded file must be present.
type UploadVideoRequest struct {
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Subject     models.Subject `json:"subject" validate:"required"`
	Grade       *int           `json:"grade"`
	VideoURL    *string        `json:"video_url"`
	Duration    int            `json:"duration"`
	FileName    string         `json:"-"`
	FileData    []byte         `json:"-"`
}

// VideoService orchestrates the video submission and moderation workflow.
type VideoService struct {
	repo      videoRepository
	teachers  teacherReader
	schools   schoolReader
	points    pointsAwarder
	files     fileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoService constructs VideoService.
func NewVideoService(repo videoRepository, teachers teacherReader, schools schoolReader, points pointsAwarder, files fileStore, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{repo: repo, teachers: teachers, schools: schools, points: points, files: files, validator: validate, logger: logger}
}

// List returns videos visible to the caller.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	videos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return videos, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MyVideos returns the caller's own submissions; empty for users without a
// teacher profile.
func (s *VideoService) MyVideos(ctx context.Context, userID string, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return []models.Video{}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 0}, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	filter.TeacherID = teacher.ID
	return s.List(ctx, filter)
}

// Get returns one video and bumps its view counter.
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to bump views", zap.String("video_id", id), zap.Error(err))
	}
	return video, nil
}

// Upload creates an unapproved video owned by the caller's teacher profile.
func (s *VideoService) Upload(ctx context.Context, userID string, req UploadVideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video payload")
	}
	if !req.Subject.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	if req.VideoURL == nil && len(req.FileData) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either video_url or a file is required")
	}
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	video := &models.Video{
		TeacherID:   teacher.ID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Grade:       req.Grade,
		VideoURL:    req.VideoURL,
		Duration:    req.Duration,
	}
	if len(req.FileData) > 0 {
		stored := fmt.Sprintf("videos/%s%s", uuid.NewString(), filepath.Ext(req.FileName))
		path, err := s.files.Save(stored, req.FileData)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
		}
		video.FilePath = &path
	}
	if err := s.repo.Create(ctx, video); err != nil {
		if video.FilePath != nil {
			if delErr := s.files.Delete(*video.FilePath); delErr != nil {
				s.logger.Warn("failed to clean up orphaned file", zap.String("path", *video.FilePath), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}
	return video, nil
}

// Approve flips a pending video to approved and credits the owner. Admins
// can only approve submissions from their own school. Repeated approvals are
// no-ops.
func (s *VideoService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if err := checkModerationScope(ctx, s.teachers, s.schools, actor, video.TeacherID, "video not found"); err != nil {
		return nil, err
	}
	flipped, err := s.repo.ApproveIfPending(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve video")
	}
	if flipped {
		if _, err := s.points.AwardPoints(ctx, video.TeacherID, models.VideoApprovalPoints, models.ActivityVideo, video.Title); err != nil {
			return nil, err
		}
	}
	video.IsApproved = true
	return video, nil
}

// Reject deletes a video outright regardless of its approval state; the
// reason is echoed back, never stored. Admins can only reject submissions
// from their own school.
func (s *VideoService) Reject(ctx context.Context, actor *models.JWTClaims, id, reason string) (*RejectionResult, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if err := checkModerationScope(ctx, s.teachers, s.schools, actor, video.TeacherID, "video not found"); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject video")
	}
	if video.FilePath != nil {
		if err := s.files.Delete(*video.FilePath); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("path", *video.FilePath), zap.Error(err))
		}
	}
	return &RejectionResult{ID: id, Reason: reason}, nil
}

// Like bumps the like counter.
func (s *VideoService) Like(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if err := s.repo.IncrementLikes(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to like video")
	}
	return nil
}
