package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-monitoring/api/internal/models"
)

// LessonAnalysisRepository manages persistence for lesson analyses and their
// comment threads.
type LessonAnalysisRepository struct {
	db *sqlx.DB
}

// NewLessonAnalysisRepository constructs a LessonAnalysisRepository.
func NewLessonAnalysisRepository(db *sqlx.DB) *LessonAnalysisRepository {
	return &LessonAnalysisRepository{db: db}
}

const analysisColumns = `id, analyzer_id, teacher_id, lesson_date, subject, grade, topic, lesson_type,
	methodology_rating, material_mastery, student_engagement, time_management, technology_use,
	achievements, weaknesses, recommendations, overall_rating, status, approved_at, rejection_reason, notes,
	created_at, updated_at`

// List returns analyses matching filters along with total count.
func (r *LessonAnalysisRepository) List(ctx context.Context, filter models.AnalysisFilter) ([]models.LessonAnalysis, int, error) {
	base := "FROM lesson_analyses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AnalyzerID != "" {
		conditions = append(conditions, fmt.Sprintf("analyzer_id = $%d", len(args)+1))
		args = append(args, filter.AnalyzerID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ParticipantID != "" {
		conditions = append(conditions, fmt.Sprintf("(analyzer_id = $%d OR teacher_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.ParticipantID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", analysisColumns, base, size, offset)
	var analyses []models.LessonAnalysis
	if err := r.db.SelectContext(ctx, &analyses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	return analyses, total, nil
}

// FindByID fetches an analysis by ID.
func (r *LessonAnalysisRepository) FindByID(ctx context.Context, id string) (*models.LessonAnalysis, error) {
	query := fmt.Sprintf("SELECT %s FROM lesson_analyses WHERE id = $1", analysisColumns)
	var analysis models.LessonAnalysis
	if err := r.db.GetContext(ctx, &analysis, query, id); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Create inserts a new analysis. OverallRating must already be set by the
// caller; it is stored as-is and never recomputed here.
func (r *LessonAnalysisRepository) Create(ctx context.Context, analysis *models.LessonAnalysis) error {
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now

	const query = `INSERT INTO lesson_analyses (id, analyzer_id, teacher_id, lesson_date, subject, grade, topic, lesson_type,
			methodology_rating, material_mastery, student_engagement, time_management, technology_use,
			achievements, weaknesses, recommendations, overall_rating, status, rejection_reason, notes, created_at, updated_at)
		VALUES (:id, :analyzer_id, :teacher_id, :lesson_date, :subject, :grade, :topic, :lesson_type,
			:methodology_rating, :material_mastery, :student_engagement, :time_management, :technology_use,
			:achievements, :weaknesses, :recommendations, :overall_rating, :status, :rejection_reason, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, analysis); err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// Update modifies an analysis while it is still editable. The overall_rating
// column is deliberately excluded: the frozen value from creation stands even
// when sub-ratings change.
func (r *LessonAnalysisRepository) Update(ctx context.Context, analysis *models.LessonAnalysis) error {
	analysis.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_analyses SET lesson_date = :lesson_date, subject = :subject, grade = :grade, topic = :topic, lesson_type = :lesson_type,
			methodology_rating = :methodology_rating, material_mastery = :material_mastery, student_engagement = :student_engagement,
			time_management = :time_management, technology_use = :technology_use,
			achievements = :achievements, weaknesses = :weaknesses, recommendations = :recommendations,
			notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, analysis); err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return nil
}

// Submit moves a draft analysis to pending review. Reports whether the row
// was in draft status.
func (r *LessonAnalysisRepository) Submit(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE lesson_analyses SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.AnalysisPending, time.Now().UTC(), models.AnalysisDraft)
	if err != nil {
		return false, fmt.Errorf("submit analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("submit analysis: %w", err)
	}
	return n == 1, nil
}

// ApproveIfPending moves a pending analysis to approved, stamping the
// approval time. Reports whether the row was pending.
func (r *LessonAnalysisRepository) ApproveIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE lesson_analyses SET status = $2, approved_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.AnalysisApproved, at, models.AnalysisPending)
	if err != nil {
		return false, fmt.Errorf("approve analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve analysis: %w", err)
	}
	return n == 1, nil
}

// RejectIfPending moves a pending analysis to rejected, persisting the
// reviewer's reason. Reports whether the row was pending.
func (r *LessonAnalysisRepository) RejectIfPending(ctx context.Context, id, reason string) (bool, error) {
	const query = `UPDATE lesson_analyses SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.AnalysisRejected, reason, time.Now().UTC(), models.AnalysisPending)
	if err != nil {
		return false, fmt.Errorf("reject analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject analysis: %w", err)
	}
	return n == 1, nil
}

// AddComment appends a comment to an analysis.
func (r *LessonAnalysisRepository) AddComment(ctx context.Context, comment *models.AnalysisComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO analysis_comments (id, analysis_id, user_id, comment, created_at)
		VALUES (:id, :analysis_id, :user_id, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// ListComments returns the comment thread of an analysis, oldest first.
func (r *LessonAnalysisRepository) ListComments(ctx context.Context, analysisID string) ([]models.AnalysisComment, error) {
	const query = `SELECT id, analysis_id, user_id, comment, created_at FROM analysis_comments WHERE analysis_id = $1 ORDER BY created_at ASC`
	var comments []models.AnalysisComment
	if err := r.db.SelectContext(ctx, &comments, query, analysisID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Stats aggregates analysis activity for one teacher.
func (r *LessonAnalysisRepository) Stats(ctx context.Context, teacherID string) (*models.AnalysisStats, error) {
	const query = `SELECT
			COUNT(*) AS total_analyses,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_analyses,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved_analyses,
			COALESCE(AVG(overall_rating) FILTER (WHERE status = 'approved'), 0) AS average_rating,
			COUNT(*) FILTER (WHERE analyzer_id = $1) AS total_given,
			COUNT(*) FILTER (WHERE teacher_id = $1) AS total_received
		FROM lesson_analyses WHERE analyzer_id = $1 OR teacher_id = $1`
	var stats models.AnalysisStats
	if err := r.db.GetContext(ctx, &stats, query, teacherID); err != nil {
		return nil, fmt.Errorf("analysis stats: %w", err)
	}
	return &stats, nil
}

// GlobalStats aggregates analysis activity across every teacher. The
// given/received split only makes sense per teacher, so it is zero here.
func (r *LessonAnalysisRepository) GlobalStats(ctx context.Context) (*models.AnalysisStats, error) {
	const query = `SELECT
			COUNT(*) AS total_analyses,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_analyses,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved_analyses,
			COALESCE(AVG(overall_rating) FILTER (WHERE status = 'approved'), 0) AS average_rating,
			0 AS total_given,
			0 AS total_received
		FROM lesson_analyses`
	var stats models.AnalysisStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("global analysis stats: %w", err)
	}
	return &stats, nil
}
