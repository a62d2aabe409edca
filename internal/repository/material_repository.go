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

// MaterialRepository manages persistence for lesson materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = "m.id, m.teacher_id, m.title, m.description, m.subject, m.grade, m.file_path, m.is_approved, m.views, m.downloads, m.created_at"

// List returns materials matching filters along with total count. Visibility
// scoping fields on the filter restrict the result set to what the caller is
// allowed to see.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	base := "FROM materials m WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("m.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("m.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("m.grade = $%d", len(args)+1))
		args = append(args, *filter.Grade)
	}
	if filter.IsApproved != nil {
		conditions = append(conditions, fmt.Sprintf("m.is_approved = $%d", len(args)+1))
		args = append(args, *filter.IsApproved)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(m.title) LIKE $%d OR LOWER(m.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("m.created_at >= $%d", len(args)+1))
		args = append(args, *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("m.created_at <= $%d", len(args)+1))
		args = append(args, *filter.CreatedBefore)
	}
	if filter.DirectorUserID != "" {
		conditions = append(conditions, fmt.Sprintf("m.teacher_id IN (SELECT t.id FROM teachers t JOIN schools s ON s.id = t.school_id WHERE s.director_user_id = $%d)", len(args)+1))
		args = append(args, filter.DirectorUserID)
	}
	if filter.OwnOrApprovedBy != "" {
		conditions = append(conditions, fmt.Sprintf("(m.is_approved = TRUE OR m.teacher_id = $%d)", len(args)+1))
		args = append(args, filter.OwnOrApprovedBy)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"views":      "views",
		"downloads":  "downloads",
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY m.%s %s LIMIT %d OFFSET %d", materialColumns, base, column, order, size, offset)
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}

	return materials, total, nil
}

// FindByID fetches a material by ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, teacher_id, title, description, subject, grade, file_path, is_approved, views, downloads, created_at FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create inserts a new material, always unapproved.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	material.IsApproved = false

	const query = `INSERT INTO materials (id, teacher_id, title, description, subject, grade, file_path, is_approved, views, downloads, created_at)
		VALUES (:id, :teacher_id, :title, :description, :subject, :grade, :file_path, :is_approved, :views, :downloads, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Update modifies the descriptive fields of a material.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	const query = `UPDATE materials SET title = :title, description = :description, subject = :subject, grade = :grade WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// ApproveIfPending flips is_approved from false to true. It reports whether
// this call performed the flip; a second approval of the same material is a
// no-op and returns false.
func (r *MaterialRepository) ApproveIfPending(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE materials SET is_approved = TRUE WHERE id = $1 AND is_approved = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("approve material: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve material: %w", err)
	}
	return n == 1, nil
}

// Delete removes a material permanently.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *MaterialRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE materials SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter.
func (r *MaterialRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE materials SET downloads = downloads + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}
