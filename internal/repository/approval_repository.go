package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edu-monitoring/api/internal/models"
)

// ApprovalRepository performs bulk approvals of pending submissions. The
// whole run happens in a single transaction so that either every matched
// submission is approved and credited, or none are.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs an ApprovalRepository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// BulkApprove approves every still-pending material and video among the given
// IDs, credits the owning teachers, refreshes their levels, and logs one
// activity entry per approved item. IDs that are unknown or already approved
// are skipped without error.
func (r *ApprovalRepository) BulkApprove(ctx context.Context, materialIDs, videoIDs []string) (*models.BulkApprovalResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &models.BulkApprovalResult{PointsAwarded: make(map[string]int)}

	if len(materialIDs) > 0 {
		const query = `UPDATE materials SET is_approved = TRUE WHERE id = ANY($1) AND is_approved = FALSE RETURNING id, teacher_id, title`
		if err := tx.SelectContext(ctx, &result.Materials, query, pq.Array(materialIDs)); err != nil {
			return nil, fmt.Errorf("bulk approve materials: %w", err)
		}
	}
	if len(videoIDs) > 0 {
		const query = `UPDATE videos SET is_approved = TRUE WHERE id = ANY($1) AND is_approved = FALSE RETURNING id, teacher_id, title`
		if err := tx.SelectContext(ctx, &result.Videos, query, pq.Array(videoIDs)); err != nil {
			return nil, fmt.Errorf("bulk approve videos: %w", err)
		}
	}

	now := time.Now().UTC()
	credits := make(map[string]int)
	for _, item := range result.Materials {
		credits[item.TeacherID] += models.MaterialApprovalPoints
		if err := insertActivity(ctx, tx, item.TeacherID, models.ActivityMaterial, item.Title, models.MaterialApprovalPoints, now); err != nil {
			return nil, err
		}
	}
	for _, item := range result.Videos {
		credits[item.TeacherID] += models.VideoApprovalPoints
		if err := insertActivity(ctx, tx, item.TeacherID, models.ActivityVideo, item.Title, models.VideoApprovalPoints, now); err != nil {
			return nil, err
		}
	}

	const creditQuery = `UPDATE teachers
		SET total_points = total_points + $2, monthly_points = monthly_points + $2, updated_at = $3
		WHERE id = $1
		RETURNING total_points`
	const levelQuery = `UPDATE teachers SET level = $2 WHERE id = $1`
	for teacherID, points := range credits {
		var total int
		if err := tx.GetContext(ctx, &total, creditQuery, teacherID, points, now); err != nil {
			return nil, fmt.Errorf("credit teacher %s: %w", teacherID, err)
		}
		if _, err := tx.ExecContext(ctx, levelQuery, teacherID, models.LevelForPoints(total)); err != nil {
			return nil, fmt.Errorf("refresh level %s: %w", teacherID, err)
		}
		result.PointsAwarded[teacherID] = points
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// BulkReject hard-deletes every material and video among the given IDs in one
// transaction. Rejection removes the row outright, so no reason is stored.
func (r *ApprovalRepository) BulkReject(ctx context.Context, materialIDs, videoIDs []string) (*models.BulkRejectionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &models.BulkRejectionResult{}

	if len(materialIDs) > 0 {
		res, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE id = ANY($1)`, pq.Array(materialIDs))
		if err != nil {
			return nil, fmt.Errorf("bulk reject materials: %w", err)
		}
		n, _ := res.RowsAffected()
		result.MaterialsDeleted = int(n)
	}
	if len(videoIDs) > 0 {
		res, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE id = ANY($1)`, pq.Array(videoIDs))
		if err != nil {
			return nil, fmt.Errorf("bulk reject videos: %w", err)
		}
		n, _ := res.RowsAffected()
		result.VideosDeleted = int(n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

func insertActivity(ctx context.Context, tx *sqlx.Tx, teacherID string, kind models.ActivityType, title string, points int, at time.Time) error {
	const query = `INSERT INTO teacher_activities (id, teacher_id, activity_type, title, description, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), teacherID, kind, title, "approved in bulk review", points, at); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}
