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

// VideoRepository manages persistence for recorded lesson videos.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs a VideoRepository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = "v.id, v.teacher_id, v.title, v.description, v.subject, v.grade, v.video_url, v.file_path, v.thumbnail, v.duration, v.is_approved, v.views, v.likes, v.created_at"

// List returns videos matching filters along with total count.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	base := "FROM videos v WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("v.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("v.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("v.grade = $%d", len(args)+1))
		args = append(args, *filter.Grade)
	}
	if filter.IsApproved != nil {
		conditions = append(conditions, fmt.Sprintf("v.is_approved = $%d", len(args)+1))
		args = append(args, *filter.IsApproved)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(v.title) LIKE $%d OR LOWER(v.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.DirectorUserID != "" {
		conditions = append(conditions, fmt.Sprintf("v.teacher_id IN (SELECT t.id FROM teachers t JOIN schools s ON s.id = t.school_id WHERE s.director_user_id = $%d)", len(args)+1))
		args = append(args, filter.DirectorUserID)
	}
	if filter.OwnOrApprovedBy != "" {
		conditions = append(conditions, fmt.Sprintf("(v.is_approved = TRUE OR v.teacher_id = $%d)", len(args)+1))
		args = append(args, filter.OwnOrApprovedBy)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"views":      "views",
		"likes":      "likes",
		"title":      "title",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY v.%s %s LIMIT %d OFFSET %d", videoColumns, base, column, order, size, offset)
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	return videos, total, nil
}

// FindByID fetches a video by ID.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	const query = `SELECT id, teacher_id, title, description, subject, grade, video_url, file_path, thumbnail, duration, is_approved, views, likes, created_at FROM videos WHERE id = $1`
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}
	return &video, nil
}

// Create inserts a new video, always unapproved.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	video.IsApproved = false

	const query = `INSERT INTO videos (id, teacher_id, title, description, subject, grade, video_url, file_path, thumbnail, duration, is_approved, views, likes, created_at)
		VALUES (:id, :teacher_id, :title, :description, :subject, :grade, :video_url, :file_path, :thumbnail, :duration, :is_approved, :views, :likes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// Update modifies the descriptive fields of a video.
func (r *VideoRepository) Update(ctx context.Context, video *models.Video) error {
	const query = `UPDATE videos SET title = :title, description = :description, subject = :subject, grade = :grade, thumbnail = :thumbnail WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// ApproveIfPending flips is_approved from false to true and reports whether
// this call performed the flip.
func (r *VideoRepository) ApproveIfPending(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE videos SET is_approved = TRUE WHERE id = $1 AND is_approved = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("approve video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve video: %w", err)
	}
	return n == 1, nil
}

// Delete removes a video permanently.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM videos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE videos SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// IncrementLikes bumps the like counter.
func (r *VideoRepository) IncrementLikes(ctx context.Context, id string) error {
	const query = `UPDATE videos SET likes = likes + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	return nil
}
