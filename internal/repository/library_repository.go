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

// LibraryRepository manages persistence for the shared resource library.
type LibraryRepository struct {
	db *sqlx.DB
}

// NewLibraryRepository constructs a LibraryRepository.
func NewLibraryRepository(db *sqlx.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

const libraryColumns = "id, title, author, description, resource_type, file_path, url, cover_image, views, created_at"

// List returns library resources matching filters along with total count.
func (r *LibraryRepository) List(ctx context.Context, filter models.LibraryFilter) ([]models.LibraryResource, int, error) {
	base := "FROM library_resources WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ResourceType != "" {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", len(args)+1))
		args = append(args, filter.ResourceType)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(author) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", libraryColumns, base, size, offset)
	var resources []models.LibraryResource
	if err := r.db.SelectContext(ctx, &resources, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}

	return resources, total, nil
}

// FindByID fetches a resource by ID.
func (r *LibraryRepository) FindByID(ctx context.Context, id string) (*models.LibraryResource, error) {
	query := fmt.Sprintf("SELECT %s FROM library_resources WHERE id = $1", libraryColumns)
	var resource models.LibraryResource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Create inserts a new library resource.
func (r *LibraryRepository) Create(ctx context.Context, resource *models.LibraryResource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO library_resources (id, title, author, description, resource_type, file_path, url, cover_image, views, created_at)
		VALUES (:id, :title, :author, :description, :resource_type, :file_path, :url, :cover_image, :views, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *LibraryRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE library_resources SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Delete removes a resource permanently.
func (r *LibraryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM library_resources WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
