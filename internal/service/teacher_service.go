package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	AddPoints(ctx context.Context, teacherID string, points int) (int, error)
	SetLevel(ctx context.Context, teacherID string, level models.TeacherLevel) error
	CreateActivity(ctx context.Context, activity *models.TeacherActivity) error
	ListActivities(ctx context.Context, teacherID string, limit int) ([]models.TeacherActivity, error)
	ResetMonthlyPoints(ctx context.Context) error
}

type schoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

// CreateTeacherRequest describes teacher profile creation.
type CreateTeacherRequest struct {
	UserID   string         `json:"user_id" validate:"required"`
	SchoolID string         `json:"school_id" validate:"required"`
	Subject  models.Subject `json:"subject" validate:"required"`
	Bio      string         `json:"bio"`
}

// UpdateTeacherRequest describes mutable teacher profile fields.
type UpdateTeacherRequest struct {
	SchoolID string         `json:"school_id"`
	Subject  models.Subject `json:"subject"`
	Bio      string         `json:"bio"`
}

// TeacherService orchestrates teacher profiles and the points engine. All
// point credits flow through AwardPoints so the stored level can never drift
// from the stored total.
type TeacherService struct {
	repo      teacherRepository
	schools   schoolReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, schools schoolReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, schools: schools, validator: validate, logger: logger}
}

// List returns teachers with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one teacher profile.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// GetByUser returns the teacher profile attached to a user account.
func (s *TeacherService) GetByUser(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher profile for an existing user.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if !req.Subject.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	if _, err := s.repo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher profile already exists")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher profile")
	}

	teacher := &models.Teacher{
		UserID:   req.UserID,
		SchoolID: req.SchoolID,
		Subject:  req.Subject,
		Level:    models.LevelForPoints(0),
		Bio:      req.Bio,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if req.SchoolID != "" {
		if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
		}
		teacher.SchoolID = req.SchoolID
	}
	if req.Subject != "" {
		if !req.Subject.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		teacher.Subject = req.Subject
	}
	if req.Bio != "" {
		teacher.Bio = req.Bio
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// AwardPoints credits points to a teacher, recomputes the level from the new
// lifetime total, and logs the activity. Returns the updated total.
func (s *TeacherService) AwardPoints(ctx context.Context, teacherID string, points int, kind models.ActivityType, title string) (int, error) {
	total, err := s.repo.AddPoints(ctx, teacherID, points)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit points")
	}
	level := models.LevelForPoints(total)
	if err := s.repo.SetLevel(ctx, teacherID, level); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh level")
	}
	activity := &models.TeacherActivity{
		TeacherID:    teacherID,
		ActivityType: kind,
		Title:        title,
		Points:       points,
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log activity")
	}
	s.logger.Info("points awarded",
		zap.String("teacher_id", teacherID),
		zap.Int("points", points),
		zap.Int("total", total),
		zap.String("level", string(level)))
	return total, nil
}

// ResetMonthlyPoints zeroes every teacher's monthly counter. Lifetime totals
// and levels are untouched. Run at the start of a rating period.
func (s *TeacherService) ResetMonthlyPoints(ctx context.Context) error {
	if err := s.repo.ResetMonthlyPoints(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset monthly points")
	}
	s.logger.Info("monthly points reset")
	return nil
}

// Activities returns a teacher's recent activity log.
func (s *TeacherService) Activities(ctx context.Context, teacherID string, limit int) ([]models.TeacherActivity, error) {
	activities, err := s.repo.ListActivities(ctx, teacherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}
