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

// MockTestRepository manages persistence for mock tests, their questions and
// attempts.
type MockTestRepository struct {
	db *sqlx.DB
}

// NewMockTestRepository constructs a MockTestRepository.
func NewMockTestRepository(db *sqlx.DB) *MockTestRepository {
	return &MockTestRepository{db: db}
}

const mockTestColumns = "id, title, subject, difficulty, duration, passing_score, questions_count, description, created_at, updated_at"

// List returns tests matching filters along with total count.
func (r *MockTestRepository) List(ctx context.Context, filter models.MockTestFilter) ([]models.MockTest, int, error) {
	base := "FROM mock_tests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", len(args)+1))
		args = append(args, filter.Difficulty)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", mockTestColumns, base, size, offset)
	var tests []models.MockTest
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tests: %w", err)
	}

	return tests, total, nil
}

// FindByID fetches a test by ID.
func (r *MockTestRepository) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	query := fmt.Sprintf("SELECT %s FROM mock_tests WHERE id = $1", mockTestColumns)
	var test models.MockTest
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		return nil, err
	}
	return &test, nil
}

// CreateWithQuestions inserts a test and all its questions in one
// transaction. QuestionsCount is set from the question slice.
func (r *MockTestRepository) CreateWithQuestions(ctx context.Context, test *models.MockTest, questions []models.Question) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	test.QuestionsCount = len(questions)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const testQuery = `INSERT INTO mock_tests (id, title, subject, difficulty, duration, passing_score, questions_count, description, created_at, updated_at)
		VALUES (:id, :title, :subject, :difficulty, :duration, :passing_score, :questions_count, :description, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, testQuery, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}

	const questionQuery = `INSERT INTO questions (id, test_id, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, question_order)
		VALUES (:id, :test_id, :question_text, :option_a, :option_b, :option_c, :option_d, :correct_answer, :explanation, :question_order)`
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.TestID = test.ID
		if q.Order == 0 {
			q.Order = i + 1
		}
		if _, err := tx.NamedExecContext(ctx, questionQuery, q); err != nil {
			return fmt.Errorf("create question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListQuestions returns a test's questions in order.
func (r *MockTestRepository) ListQuestions(ctx context.Context, testID string) ([]models.Question, error) {
	const query = `SELECT id, test_id, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, question_order
		FROM questions WHERE test_id = $1 ORDER BY question_order ASC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, testID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// CreateAttempt persists one immutable attempt record.
func (r *MockTestRepository) CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = time.Now().UTC()
	}
	const query = `INSERT INTO test_attempts (id, user_id, test_id, score, correct_answers, wrong_answers, total_questions, time_spent, passed, answers, started_at, completed_at)
		VALUES (:id, :user_id, :test_id, :score, :correct_answers, :wrong_answers, :total_questions, :time_spent, :passed, :answers, :started_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// FindAttempt fetches one attempt by ID.
func (r *MockTestRepository) FindAttempt(ctx context.Context, id string) (*models.TestAttempt, error) {
	const query = `SELECT id, user_id, test_id, score, correct_answers, wrong_answers, total_questions, time_spent, passed, answers, started_at, completed_at
		FROM test_attempts WHERE id = $1`
	var attempt models.TestAttempt
	if err := r.db.GetContext(ctx, &attempt, query, id); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListAttempts returns a user's attempts, newest first.
func (r *MockTestRepository) ListAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT id, user_id, test_id, score, correct_answers, wrong_answers, total_questions, time_spent, passed, answers, started_at, completed_at
		FROM test_attempts WHERE user_id = $1 ORDER BY completed_at DESC LIMIT $2`
	var attempts []models.TestAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// BestScore returns a user's best score on one test, or zero when the user
// has no attempts.
func (r *MockTestRepository) BestScore(ctx context.Context, userID, testID string) (int, error) {
	const query = `SELECT COALESCE(MAX(score), 0) FROM test_attempts WHERE user_id = $1 AND test_id = $2`
	var best int
	if err := r.db.GetContext(ctx, &best, query, userID, testID); err != nil {
		return 0, fmt.Errorf("best score: %w", err)
	}
	return best, nil
}
