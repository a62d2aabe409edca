package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type consultationRepository interface {
	List(ctx context.Context, filter models.ConsultationFilter) ([]models.Consultation, int, error)
	FindByID(ctx context.Context, id string) (*models.Consultation, error)
	Create(ctx context.Context, consultation *models.Consultation) error
	TransitionStatus(ctx context.Context, id string, from, to models.ConsultationStatus) (bool, error)
	SetStatus(ctx context.Context, id string, status models.ConsultationStatus) error
	UpdateNotes(ctx context.Context, id, notes string) error
	CountByStatus(ctx context.Context, participantID string) (map[models.ConsultationStatus]int, error)
}

// CreateConsultationRequest describes a mentoring request. The caller's
// teacher profile becomes the requesting side.
type CreateConsultationRequest struct {
	Title       string                  `json:"title" validate:"required"`
	Description string                  `json:"description"`
	MentorID    string                  `json:"mentor_id" validate:"required"`
	ScheduledAt time.Time               `json:"scheduled_at" validate:"required"`
	Duration    int                     `json:"duration" validate:"required,min=15,max=240"`
	Type        models.ConsultationType `json:"consultation_type" validate:"required"`
	Location    string                  `json:"location"`
	MeetingURL  string                  `json:"meeting_url"`
}

// ConsultationService orchestrates the mentoring request lifecycle.
type ConsultationService struct {
	repo      consultationRepository
	teachers  teacherReader
	points    pointsAwarder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConsultationService constructs ConsultationService.
func NewConsultationService(repo consultationRepository, teachers teacherReader, points pointsAwarder, validate *validator.Validate, logger *zap.Logger) *ConsultationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsultationService{repo: repo, teachers: teachers, points: points, validator: validate, logger: logger}
}

// List returns consultations where the caller participates.
func (s *ConsultationService) List(ctx context.Context, userID string, filter models.ConsultationFilter) ([]models.Consultation, *models.Pagination, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return []models.Consultation{}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 0}, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	filter.ParticipantID = teacher.ID
	consultations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list consultations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return consultations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one consultation; only participants may view it.
func (s *ConsultationService) Get(ctx context.Context, userID, id string) (*models.Consultation, error) {
	consultation, teacher, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if consultation.TeacherID != teacher.ID && consultation.StudentID != teacher.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant")
	}
	return consultation, nil
}

// Create files a mentoring request. Self-consultation is rejected before
// anything is persisted.
func (s *ConsultationService) Create(ctx context.Context, userID string, req CreateConsultationRequest) (*models.Consultation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consultation payload")
	}
	requester, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if requester.ID == req.MentorID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot request a consultation with yourself")
	}
	if _, err := s.teachers.FindByID(ctx, req.MentorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
	}

	consultation := &models.Consultation{
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   req.MentorID,
		StudentID:   requester.ID,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		Type:        req.Type,
		Location:    req.Location,
		MeetingURL:  req.MeetingURL,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create consultation")
	}
	return consultation, nil
}

// Accept moves a pending consultation to accepted. Only the mentor may
// accept, and only from pending.
func (s *ConsultationService) Accept(ctx context.Context, userID, id string) (*models.Consultation, error) {
	return s.mentorTransition(ctx, userID, id, models.ConsultationAccepted)
}

// Reject moves a pending consultation to rejected. Only the mentor may
// reject, and only from pending.
func (s *ConsultationService) Reject(ctx context.Context, userID, id string) (*models.Consultation, error) {
	return s.mentorTransition(ctx, userID, id, models.ConsultationRejected)
}

// Complete marks a consultation completed and credits the mentor. There is
// no actor or source-status guard on this transition.
func (s *ConsultationService) Complete(ctx context.Context, userID, id string, notes string) (*models.Consultation, error) {
	consultation, _, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, models.ConsultationCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete consultation")
	}
	if notes != "" {
		if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
			s.logger.Warn("failed to store consultation notes", zap.String("consultation_id", id), zap.Error(err))
		}
		consultation.Notes = notes
	}
	if _, err := s.points.AwardPoints(ctx, consultation.TeacherID, models.ConsultationCompletionPoints, models.ActivityConsultation, consultation.Title); err != nil {
		return nil, err
	}
	consultation.Status = models.ConsultationCompleted
	return consultation, nil
}

// Stats aggregates the caller's consultations per status.
func (s *ConsultationService) Stats(ctx context.Context, userID string) (map[models.ConsultationStatus]int, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return map[models.ConsultationStatus]int{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	counts, err := s.repo.CountByStatus(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate consultations")
	}
	return counts, nil
}

func (s *ConsultationService) mentorTransition(ctx context.Context, userID, id string, to models.ConsultationStatus) (*models.Consultation, error) {
	consultation, teacher, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if consultation.TeacherID != teacher.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the mentor may respond")
	}
	moved, err := s.repo.TransitionStatus(ctx, id, models.ConsultationPending, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update consultation")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "consultation is not pending")
	}
	consultation.Status = to
	return consultation, nil
}

func (s *ConsultationService) load(ctx context.Context, userID, id string) (*models.Consultation, *models.Teacher, error) {
	consultation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultation")
	}
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return consultation, teacher, nil
}
