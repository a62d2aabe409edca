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

type analysisRepository interface {
	List(ctx context.Context, filter models.AnalysisFilter) ([]models.LessonAnalysis, int, error)
	FindByID(ctx context.Context, id string) (*models.LessonAnalysis, error)
	Create(ctx context.Context, analysis *models.LessonAnalysis) error
	Update(ctx context.Context, analysis *models.LessonAnalysis) error
	Submit(ctx context.Context, id string) (bool, error)
	ApproveIfPending(ctx context.Context, id string, at time.Time) (bool, error)
	RejectIfPending(ctx context.Context, id, reason string) (bool, error)
	AddComment(ctx context.Context, comment *models.AnalysisComment) error
	ListComments(ctx context.Context, analysisID string) ([]models.AnalysisComment, error)
	Stats(ctx context.Context, teacherID string) (*models.AnalysisStats, error)
	GlobalStats(ctx context.Context) (*models.AnalysisStats, error)
}

// CreateAnalysisRequest describes a new lesson analysis. The five sub-ratings
// are each on a 1 to 5 scale.
type CreateAnalysisRequest struct {
	TeacherID  string            `json:"teacher_id" validate:"required"`
	LessonDate time.Time         `json:"lesson_date" validate:"required"`
	Subject    string            `json:"subject" validate:"required"`
	Grade      int               `json:"grade" validate:"required,min=1,max=11"`
	Topic      string            `json:"topic" validate:"required"`
	LessonType models.LessonType `json:"lesson_type" validate:"required"`

	MethodologyRating int `json:"methodology_rating" validate:"required,min=1,max=5"`
	MaterialMastery   int `json:"material_mastery" validate:"required,min=1,max=5"`
	StudentEngagement int `json:"student_engagement" validate:"required,min=1,max=5"`
	TimeManagement    int `json:"time_management" validate:"required,min=1,max=5"`
	TechnologyUse     int `json:"technology_use" validate:"required,min=1,max=5"`

	Achievements    string `json:"achievements"`
	Weaknesses      string `json:"weaknesses"`
	Recommendations string `json:"recommendations"`
	Notes           string `json:"notes"`
	Draft           bool   `json:"draft"`
}

// UpdateAnalysisRequest describes edits to a draft or pending analysis. The
// frozen overall rating is never recomputed from these.
type UpdateAnalysisRequest struct {
	Topic             string `json:"topic"`
	MethodologyRating int    `json:"methodology_rating" validate:"omitempty,min=1,max=5"`
	MaterialMastery   int    `json:"material_mastery" validate:"omitempty,min=1,max=5"`
	StudentEngagement int    `json:"student_engagement" validate:"omitempty,min=1,max=5"`
	TimeManagement    int    `json:"time_management" validate:"omitempty,min=1,max=5"`
	TechnologyUse     int    `json:"technology_use" validate:"omitempty,min=1,max=5"`
	Achievements      string `json:"achievements"`
	Weaknesses        string `json:"weaknesses"`
	Recommendations   string `json:"recommendations"`
	Notes             string `json:"notes"`
}

// LessonAnalysisService orchestrates the peer-review workflow. Approval
// credits both sides: the analyzed subject teacher and the analyzer.
type LessonAnalysisService struct {
	repo      analysisRepository
	teachers  teacherReader
	points    pointsAwarder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonAnalysisService constructs LessonAnalysisService.
func NewLessonAnalysisService(repo analysisRepository, teachers teacherReader, points pointsAwarder, validate *validator.Validate, logger *zap.Logger) *LessonAnalysisService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonAnalysisService{repo: repo, teachers: teachers, points: points, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns analyses matching the filter.
func (s *LessonAnalysisService) List(ctx context.Context, filter models.AnalysisFilter) ([]models.LessonAnalysis, *models.Pagination, error) {
	analyses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list analyses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return analyses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one analysis.
func (s *LessonAnalysisService) Get(ctx context.Context, id string) (*models.LessonAnalysis, error) {
	analysis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analysis")
	}
	return analysis, nil
}

// Create files a new analysis authored by the caller's teacher profile. The
// overall rating is computed here, once, and frozen.
func (s *LessonAnalysisService) Create(ctx context.Context, userID string, req CreateAnalysisRequest) (*models.LessonAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	analyzer, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if analyzer.ID == req.TeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot analyze your own lesson")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analyzed teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analyzed teacher")
	}

	status := models.AnalysisPending
	if req.Draft {
		status = models.AnalysisDraft
	}
	analysis := &models.LessonAnalysis{
		AnalyzerID: analyzer.ID,
		TeacherID:  req.TeacherID,
		LessonDate: req.LessonDate,
		Subject:    req.Subject,
		Grade:      req.Grade,
		Topic:      req.Topic,
		LessonType: req.LessonType,

		MethodologyRating: req.MethodologyRating,
		MaterialMastery:   req.MaterialMastery,
		StudentEngagement: req.StudentEngagement,
		TimeManagement:    req.TimeManagement,
		TechnologyUse:     req.TechnologyUse,

		Achievements:    req.Achievements,
		Weaknesses:      req.Weaknesses,
		Recommendations: req.Recommendations,
		Notes:           req.Notes,
		Status:          status,
	}
	analysis.OverallRating = analysis.ComputeOverallRating()
	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create analysis")
	}
	return analysis, nil
}

// Update edits a draft or pending analysis. Only the analyzer may edit, and
// the frozen overall rating is left untouched even when sub-ratings change.
func (s *LessonAnalysisService) Update(ctx context.Context, userID, id string, req UpdateAnalysisRequest) (*models.LessonAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	analysis, _, err := s.loadAuthored(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if analysis.Status != models.AnalysisDraft && analysis.Status != models.AnalysisPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "analysis is no longer editable")
	}

	if req.Topic != "" {
		analysis.Topic = req.Topic
	}
	if req.MethodologyRating != 0 {
		analysis.MethodologyRating = req.MethodologyRating
	}
	if req.MaterialMastery != 0 {
		analysis.MaterialMastery = req.MaterialMastery
	}
	if req.StudentEngagement != 0 {
		analysis.StudentEngagement = req.StudentEngagement
	}
	if req.TimeManagement != 0 {
		analysis.TimeManagement = req.TimeManagement
	}
	if req.TechnologyUse != 0 {
		analysis.TechnologyUse = req.TechnologyUse
	}
	if req.Achievements != "" {
		analysis.Achievements = req.Achievements
	}
	if req.Weaknesses != "" {
		analysis.Weaknesses = req.Weaknesses
	}
	if req.Recommendations != "" {
		analysis.Recommendations = req.Recommendations
	}
	if req.Notes != "" {
		analysis.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update analysis")
	}
	return analysis, nil
}

// Submit moves the analyzer's draft to pending review.
func (s *LessonAnalysisService) Submit(ctx context.Context, userID, id string) (*models.LessonAnalysis, error) {
	analysis, _, err := s.loadAuthored(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	moved, err := s.repo.Submit(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit analysis")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "analysis is not a draft")
	}
	analysis.Status = models.AnalysisPending
	return analysis, nil
}

// Approve moves a pending analysis to approved and credits both sides: the
// analyzed subject teacher and the analyzer. Only the analyzed teacher may
// approve their own review.
func (s *LessonAnalysisService) Approve(ctx context.Context, userID, id string) (*models.LessonAnalysis, error) {
	analysis, err := s.loadReviewed(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	moved, err := s.repo.ApproveIfPending(ctx, id, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve analysis")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "analysis is not pending")
	}
	if _, err := s.points.AwardPoints(ctx, analysis.TeacherID, models.AnalysisSubjectTeacherPoints, models.ActivityAnalysis, analysis.Topic); err != nil {
		return nil, err
	}
	if _, err := s.points.AwardPoints(ctx, analysis.AnalyzerID, models.AnalysisAnalyzerPoints, models.ActivityAnalysis, analysis.Topic); err != nil {
		return nil, err
	}
	analysis.Status = models.AnalysisApproved
	analysis.ApprovedAt = &at
	return analysis, nil
}

// Reject moves a pending analysis to rejected and persists the reviewer's
// reason. Only the analyzed teacher may reject.
func (s *LessonAnalysisService) Reject(ctx context.Context, userID, id, reason string) (*models.LessonAnalysis, error) {
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	analysis, err := s.loadReviewed(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	moved, err := s.repo.RejectIfPending(ctx, id, reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject analysis")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "analysis is not pending")
	}
	analysis.Status = models.AnalysisRejected
	analysis.RejectionReason = reason
	return analysis, nil
}

// Comment appends a note to the analysis thread.
func (s *LessonAnalysisService) Comment(ctx context.Context, userID, id, text string) (*models.AnalysisComment, error) {
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment text is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analysis")
	}
	comment := &models.AnalysisComment{AnalysisID: id, UserID: userID, Comment: text}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	return comment, nil
}

// Comments returns the analysis comment thread.
func (s *LessonAnalysisService) Comments(ctx context.Context, id string) ([]models.AnalysisComment, error) {
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// Stats aggregates analysis activity. Staff see the global picture; a teacher
// sees only analyses they gave or received.
func (s *LessonAnalysisService) Stats(ctx context.Context, claims *models.JWTClaims) (*models.AnalysisStats, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role.IsStaff() {
		stats, err := s.repo.GlobalStats(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate analyses")
		}
		return stats, nil
	}
	teacher, err := s.teachers.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.AnalysisStats{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	stats, err := s.repo.Stats(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate analyses")
	}
	return stats, nil
}

// loadReviewed loads an analysis and checks the caller is its analyzed
// subject teacher, the only party allowed to approve or reject it.
func (s *LessonAnalysisService) loadReviewed(ctx context.Context, userID, id string) (*models.LessonAnalysis, error) {
	analysis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analysis")
	}
	reviewer, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if analysis.TeacherID != reviewer.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the analyzed teacher can review this analysis")
	}
	return analysis, nil
}

func (s *LessonAnalysisService) loadAuthored(ctx context.Context, userID, id string) (*models.LessonAnalysis, *models.Teacher, error) {
	analysis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analysis")
	}
	analyzer, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if analysis.AnalyzerID != analyzer.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not the analyzer")
	}
	return analysis, analyzer, nil
}
