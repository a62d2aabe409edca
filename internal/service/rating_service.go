package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
	"github.com/edu-monitoring/api/pkg/jobs"
)

type ratingRepository interface {
	TopTeachers(ctx context.Context, limit int) ([]models.TeacherLeaderboardEntry, error)
	TopSchools(ctx context.Context, limit int) ([]models.SchoolLeaderboardEntry, error)
	TeacherRank(ctx context.Context, teacherID string) (int, error)
	SnapshotMonth(ctx context.Context, month time.Time) error
	TeacherHistory(ctx context.Context, teacherID string, limit int) ([]models.TeacherRating, error)
	SchoolHistory(ctx context.Context, schoolID string, limit int) ([]models.SchoolRating, error)
}

const (
	teacherBoardKey = "ratings:teachers"
	schoolBoardKey  = "ratings:schools"

	jobSnapshotMonth = "snapshot_month"
)

// RatingService serves leaderboards with a Redis read-through cache and
// freezes monthly standings through a background queue.
type RatingService struct {
	repo     ratingRepository
	cache    *redis.Client
	cacheTTL time.Duration
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewRatingService constructs RatingService. The snapshot queue is created
// here and must be started by the caller.
func NewRatingService(repo ratingRepository, cache *redis.Client, cacheTTL time.Duration, queueCfg jobs.QueueConfig, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	s := &RatingService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("ratings", s.handleJob, queueCfg)
	return s
}

// Queue exposes the snapshot queue for lifecycle wiring.
func (s *RatingService) Queue() *jobs.Queue {
	return s.queue
}

// TopTeachers returns the teacher leaderboard, cached.
func (s *RatingService) TopTeachers(ctx context.Context, limit int) ([]models.TeacherLeaderboardEntry, error) {
	key := fmt.Sprintf("%s:%d", teacherBoardKey, limit)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var entries []models.TeacherLeaderboardEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}
	entries, err := s.repo.TopTeachers(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher leaderboard")
	}
	s.cacheSet(ctx, key, entries)
	return entries, nil
}

// TopSchools returns the school leaderboard, cached.
func (s *RatingService) TopSchools(ctx context.Context, limit int) ([]models.SchoolLeaderboardEntry, error) {
	key := fmt.Sprintf("%s:%d", schoolBoardKey, limit)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var entries []models.SchoolLeaderboardEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}
	entries, err := s.repo.TopSchools(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school leaderboard")
	}
	s.cacheSet(ctx, key, entries)
	return entries, nil
}

// TeacherRank returns one teacher's live rank.
func (s *RatingService) TeacherRank(ctx context.Context, teacherID string) (int, error) {
	rank, err := s.repo.TeacherRank(ctx, teacherID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rank")
	}
	return rank, nil
}

// TeacherHistory returns a teacher's monthly snapshots.
func (s *RatingService) TeacherHistory(ctx context.Context, teacherID string, limit int) ([]models.TeacherRating, error) {
	history, err := s.repo.TeacherHistory(ctx, teacherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating history")
	}
	return history, nil
}

// SchoolHistory returns a school's monthly snapshots.
func (s *RatingService) SchoolHistory(ctx context.Context, schoolID string, limit int) ([]models.SchoolRating, error) {
	history, err := s.repo.SchoolHistory(ctx, schoolID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating history")
	}
	return history, nil
}

// Invalidate drops the cached leaderboards so the next read recomputes.
func (s *RatingService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, "ratings:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("failed to drop cached leaderboard", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
}

// ScheduleSnapshot enqueues a monthly standings freeze.
func (s *RatingService) ScheduleSnapshot(month time.Time) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobSnapshotMonth,
		Payload: month.Format("2006-01"),
	})
}

func (s *RatingService) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobSnapshotMonth:
		raw, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("snapshot payload must be a YYYY-MM string")
		}
		month, err := time.Parse("2006-01", raw)
		if err != nil {
			return fmt.Errorf("parse snapshot month: %w", err)
		}
		if err := s.repo.SnapshotMonth(ctx, month); err != nil {
			return err
		}
		s.Invalidate(ctx)
		s.logger.Info("monthly standings frozen", zap.String("month", raw))
		return nil
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (s *RatingService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (s *RatingService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
