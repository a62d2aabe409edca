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

// ConsultationRepository manages persistence for mentoring consultations.
type ConsultationRepository struct {
	db *sqlx.DB
}

// NewConsultationRepository constructs a ConsultationRepository.
func NewConsultationRepository(db *sqlx.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

const consultationColumns = "id, title, description, teacher_id, student_id, scheduled_at, duration, consultation_type, location, meeting_url, status, notes, created_at"

// List returns consultations matching filters along with total count. When
// ParticipantID is set, only sessions where that teacher is mentor or
// requester are returned.
func (r *ConsultationRepository) List(ctx context.Context, filter models.ConsultationFilter) ([]models.Consultation, int, error) {
	base := "FROM consultations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ParticipantID != "" {
		conditions = append(conditions, fmt.Sprintf("(teacher_id = $%d OR student_id = $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_at DESC LIMIT %d OFFSET %d", consultationColumns, base, size, offset)
	var consultations []models.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}

	return consultations, total, nil
}

// FindByID fetches a consultation by ID.
func (r *ConsultationRepository) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	query := fmt.Sprintf("SELECT %s FROM consultations WHERE id = $1", consultationColumns)
	var consultation models.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, id); err != nil {
		return nil, err
	}
	return &consultation, nil
}

// Create inserts a new consultation request in pending status.
func (r *ConsultationRepository) Create(ctx context.Context, consultation *models.Consultation) error {
	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = time.Now().UTC()
	}
	consultation.Status = models.ConsultationPending

	const query = `INSERT INTO consultations (id, title, description, teacher_id, student_id, scheduled_at, duration, consultation_type, location, meeting_url, status, notes, created_at)
		VALUES (:id, :title, :description, :teacher_id, :student_id, :scheduled_at, :duration, :consultation_type, :location, :meeting_url, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, consultation); err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}
	return nil
}

// TransitionStatus moves a consultation from one status to another. It
// reports whether the row was in the expected source status.
func (r *ConsultationRepository) TransitionStatus(ctx context.Context, id string, from, to models.ConsultationStatus) (bool, error) {
	const query = `UPDATE consultations SET status = $3 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("transition consultation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition consultation: %w", err)
	}
	return n == 1, nil
}

// SetStatus stores a status unconditionally.
func (r *ConsultationRepository) SetStatus(ctx context.Context, id string, status models.ConsultationStatus) error {
	const query = `UPDATE consultations SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("set consultation status: %w", err)
	}
	return nil
}

// UpdateNotes stores the session notes.
func (r *ConsultationRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	const query = `UPDATE consultations SET notes = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, notes); err != nil {
		return fmt.Errorf("update consultation notes: %w", err)
	}
	return nil
}

// CountByStatus aggregates a participant's consultations per status.
func (r *ConsultationRepository) CountByStatus(ctx context.Context, participantID string) (map[models.ConsultationStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM consultations WHERE teacher_id = $1 OR student_id = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("count consultations by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ConsultationStatus]int)
	for rows.Next() {
		var status models.ConsultationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan consultation count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
