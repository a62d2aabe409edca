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

// TeacherRepository manages persistence for teacher profiles and their
// activity log.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = "id, user_id, school_id, subject, level, total_points, monthly_points, bio, created_at, updated_at"

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers t WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("t.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("t.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("t.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM users u WHERE u.id = t.user_id AND LOWER(u.full_name) LIKE $%d)", len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"total_points":   "total_points",
		"monthly_points": "monthly_points",
		"created_at":     "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "total_points"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT t.id, t.user_id, t.school_id, t.subject, t.level, t.total_points, t.monthly_points, t.bio, t.created_at, t.updated_at %s ORDER BY t.%s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID fetches the teacher profile attached to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE user_id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher profile.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, user_id, school_id, subject, level, total_points, monthly_points, bio, created_at, updated_at)
		VALUES (:id, :user_id, :school_id, :subject, :level, :total_points, :monthly_points, :bio, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies the mutable profile fields of a teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET school_id = :school_id, subject = :subject, bio = :bio, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// AddPoints atomically credits points to a teacher's lifetime and monthly
// totals and returns the new lifetime total.
func (r *TeacherRepository) AddPoints(ctx context.Context, teacherID string, points int) (int, error) {
	const query = `UPDATE teachers
		SET total_points = total_points + $2, monthly_points = monthly_points + $2, updated_at = $3
		WHERE id = $1
		RETURNING total_points`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID, points, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return total, nil
}

// SetLevel stores the level derived from the teacher's point total.
func (r *TeacherRepository) SetLevel(ctx context.Context, teacherID string, level models.TeacherLevel) error {
	const query = `UPDATE teachers SET level = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, teacherID, level, time.Now().UTC()); err != nil {
		return fmt.Errorf("set level: %w", err)
	}
	return nil
}

// ResetMonthlyPoints zeroes monthly counters for all teachers.
func (r *TeacherRepository) ResetMonthlyPoints(ctx context.Context) error {
	const query = `UPDATE teachers SET monthly_points = 0, updated_at = $1`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset monthly points: %w", err)
	}
	return nil
}

// CreateActivity appends one entry to a teacher's activity log.
func (r *TeacherRepository) CreateActivity(ctx context.Context, activity *models.TeacherActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_activities (id, teacher_id, activity_type, title, description, points, created_at)
		VALUES (:id, :teacher_id, :activity_type, :title, :description, :points, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// ListActivities returns the most recent activity entries for one teacher.
func (r *TeacherRepository) ListActivities(ctx context.Context, teacherID string, limit int) ([]models.TeacherActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, teacher_id, activity_type, title, description, points, created_at
		FROM teacher_activities WHERE teacher_id = $1 ORDER BY created_at DESC LIMIT $2`
	var activities []models.TeacherActivity
	if err := r.db.SelectContext(ctx, &activities, query, teacherID, limit); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}
