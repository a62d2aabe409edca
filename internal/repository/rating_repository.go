package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-monitoring/api/internal/models"
)

// RatingRepository computes live leaderboards and stores monthly snapshots.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs a RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// TopTeachers returns the live teacher leaderboard ordered by lifetime
// points. Ties share their ordering by creation time.
func (r *RatingRepository) TopTeachers(ctx context.Context, limit int) ([]models.TeacherLeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT t.id AS teacher_id, u.full_name, s.name AS school_name, t.subject, t.level,
			t.total_points, t.monthly_points,
			RANK() OVER (ORDER BY t.total_points DESC) AS rank
		FROM teachers t
		JOIN users u ON u.id = t.user_id
		JOIN schools s ON s.id = t.school_id
		ORDER BY t.total_points DESC, t.created_at ASC
		LIMIT $1`
	var entries []models.TeacherLeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("top teachers: %w", err)
	}
	return entries, nil
}

// TopSchools returns the live school leaderboard ordered by the summed
// lifetime points of each school's teachers.
func (r *RatingRepository) TopSchools(ctx context.Context, limit int) ([]models.SchoolLeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT s.id AS school_id, s.name, s.region,
			COALESCE(SUM(t.total_points), 0) AS total_points,
			COUNT(t.id) AS teachers_count,
			RANK() OVER (ORDER BY COALESCE(SUM(t.total_points), 0) DESC) AS rank
		FROM schools s
		LEFT JOIN teachers t ON t.school_id = s.id
		GROUP BY s.id, s.name, s.region
		ORDER BY total_points DESC, s.name ASC
		LIMIT $1`
	var entries []models.SchoolLeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("top schools: %w", err)
	}
	return entries, nil
}

// TeacherRank returns a teacher's position on the live leaderboard.
func (r *RatingRepository) TeacherRank(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT rank FROM (
			SELECT id, RANK() OVER (ORDER BY total_points DESC) AS rank FROM teachers
		) ranked WHERE id = $1`
	var rank int
	if err := r.db.GetContext(ctx, &rank, query, teacherID); err != nil {
		return 0, fmt.Errorf("teacher rank: %w", err)
	}
	return rank, nil
}

// SnapshotMonth freezes the current monthly standings into the rating
// history tables. The whole snapshot commits atomically; re-running for the
// same month replaces the previous snapshot.
func (r *RatingRepository) SnapshotMonth(ctx context.Context, month time.Time) error {
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_ratings WHERE month = $1`, month); err != nil {
		return fmt.Errorf("clear teacher snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM school_ratings WHERE month = $1`, month); err != nil {
		return fmt.Errorf("clear school snapshot: %w", err)
	}

	var teachers []models.Teacher
	if err := tx.SelectContext(ctx, &teachers, `SELECT id, user_id, school_id, subject, level, total_points, monthly_points, bio, created_at, updated_at FROM teachers ORDER BY monthly_points DESC`); err != nil {
		return fmt.Errorf("load teachers: %w", err)
	}
	for i, t := range teachers {
		const insert = `INSERT INTO teacher_ratings (id, teacher_id, month, total_points, rank) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), t.ID, month, t.MonthlyPoints, i+1); err != nil {
			return fmt.Errorf("snapshot teacher %s: %w", t.ID, err)
		}
	}

	var schools []models.SchoolLeaderboardEntry
	const schoolQuery = `SELECT s.id AS school_id, s.name, s.region,
			COALESCE(SUM(t.monthly_points), 0) AS total_points,
			COUNT(t.id) AS teachers_count,
			RANK() OVER (ORDER BY COALESCE(SUM(t.monthly_points), 0) DESC) AS rank
		FROM schools s
		LEFT JOIN teachers t ON t.school_id = s.id
		GROUP BY s.id, s.name, s.region
		ORDER BY total_points DESC`
	if err := tx.SelectContext(ctx, &schools, schoolQuery); err != nil {
		return fmt.Errorf("load school standings: %w", err)
	}
	for _, s := range schools {
		const insert = `INSERT INTO school_ratings (id, school_id, month, total_points, rank, teachers_count) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), s.SchoolID, month, s.TotalPoints, s.Rank, s.TeachersCount); err != nil {
			return fmt.Errorf("snapshot school %s: %w", s.SchoolID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// TeacherHistory returns a teacher's monthly snapshots, newest first.
func (r *RatingRepository) TeacherHistory(ctx context.Context, teacherID string, limit int) ([]models.TeacherRating, error) {
	if limit <= 0 || limit > 36 {
		limit = 12
	}
	const query = `SELECT id, teacher_id, month, total_points, rank FROM teacher_ratings WHERE teacher_id = $1 ORDER BY month DESC LIMIT $2`
	var history []models.TeacherRating
	if err := r.db.SelectContext(ctx, &history, query, teacherID, limit); err != nil {
		return nil, fmt.Errorf("teacher history: %w", err)
	}
	return history, nil
}

// SchoolHistory returns a school's monthly snapshots, newest first.
func (r *RatingRepository) SchoolHistory(ctx context.Context, schoolID string, limit int) ([]models.SchoolRating, error) {
	if limit <= 0 || limit > 36 {
		limit = 12
	}
	const query = `SELECT id, school_id, month, total_points, rank, teachers_count FROM school_ratings WHERE school_id = $1 ORDER BY month DESC LIMIT $2`
	var history []models.SchoolRating
	if err := r.db.SelectContext(ctx, &history, query, schoolID, limit); err != nil {
		return nil, fmt.Errorf("school history: %w", err)
	}
	return history, nil
}
