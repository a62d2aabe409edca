package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type mockTestRepository interface {
	List(ctx context.Context, filter models.MockTestFilter) ([]models.MockTest, int, error)
	FindByID(ctx context.Context, id string) (*models.MockTest, error)
	CreateWithQuestions(ctx context.Context, test *models.MockTest, questions []models.Question) error
	ListQuestions(ctx context.Context, testID string) ([]models.Question, error)
	CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error
	FindAttempt(ctx context.Context, id string) (*models.TestAttempt, error)
	ListAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error)
	BestScore(ctx context.Context, userID, testID string) (int, error)
}

// CreateQuestionRequest describes one question of a new test.
type CreateQuestionRequest struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=A B C D"`
	Explanation   string `json:"explanation"`
}

// CreateMockTestRequest describes a new test with its questions.
type CreateMockTestRequest struct {
	Title        string                  `json:"title" validate:"required"`
	Subject      models.Subject          `json:"subject" validate:"required"`
	Difficulty   models.TestDifficulty   `json:"difficulty" validate:"required"`
	Duration     int                     `json:"duration" validate:"required,min=5,max=180"`
	PassingScore int                     `json:"passing_score" validate:"required,min=1,max=100"`
	Description  string                  `json:"description"`
	Questions    []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// SubmitAttemptRequest carries a candidate's answers keyed by question ID.
type SubmitAttemptRequest struct {
	Answers   map[string]string `json:"answers" validate:"required"`
	TimeSpent int               `json:"time_spent"`
	StartedAt time.Time         `json:"started_at"`
}

// MockTestService manages mock tests and grades attempts. Attempts never
// earn points; scoring is isolated from the points engine.
type MockTestService struct {
	repo      mockTestRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMockTestService constructs MockTestService.
func NewMockTestService(repo mockTestRepository, validate *validator.Validate, logger *zap.Logger) *MockTestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockTestService{repo: repo, validator: validate, logger: logger}
}

// List returns tests with pagination metadata.
func (s *MockTestService) List(ctx context.Context, filter models.MockTestFilter) ([]models.MockTest, *models.Pagination, error) {
	tests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return tests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a test and its questions with the answer key stripped.
func (s *MockTestService) Get(ctx context.Context, id string) (*models.MockTest, []models.Question, error) {
	test, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	questions, err := s.repo.ListQuestions(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	for i := range questions {
		questions[i].CorrectAnswer = ""
		questions[i].Explanation = ""
	}
	return test, questions, nil
}

// Create registers a new test with its questions.
func (s *MockTestService) Create(ctx context.Context, req CreateMockTestRequest) (*models.MockTest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	if !req.Subject.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	if !req.Difficulty.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown difficulty")
	}

	test := &models.MockTest{
		Title:        req.Title,
		Subject:      req.Subject,
		Difficulty:   req.Difficulty,
		Duration:     req.Duration,
		PassingScore: req.PassingScore,
		Description:  req.Description,
	}
	questions := make([]models.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = models.Question{
			QuestionText:  q.QuestionText,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Order:         i + 1,
		}
	}
	if err := s.repo.CreateWithQuestions(ctx, test, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test")
	}
	return test, nil
}

// Submit grades an attempt. The score is the rounded percentage of correct
// answers; passing means score >= the test's passing threshold. Unanswered
// questions count as wrong. No points are credited for attempts.
func (s *MockTestService) Submit(ctx context.Context, userID, testID string, req SubmitAttemptRequest) (*models.TestAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	test, err := s.repo.FindByID(ctx, testID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	questions, err := s.repo.ListQuestions(ctx, testID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "test has no questions")
	}

	correct := 0
	for _, q := range questions {
		if req.Answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	total := len(questions)
	score := int(math.Round(float64(correct) * 100 / float64(total)))

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode answers")
	}
	started := req.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	attempt := &models.TestAttempt{
		UserID:         userID,
		TestID:         testID,
		Score:          score,
		CorrectAnswers: correct,
		WrongAnswers:   total - correct,
		TotalQuestions: total,
		TimeSpent:      req.TimeSpent,
		Passed:         score >= test.PassingScore,
		Answers:        req.Answers,
		RawAnswers:     raw,
		StartedAt:      started,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attempt")
	}
	return attempt, nil
}

// Review returns a completed attempt together with the answer key. Only the
// attempt's owner may review it.
func (s *MockTestService) Review(ctx context.Context, userID, attemptID string) (*models.TestAttempt, []models.AnswerKey, error) {
	attempt, err := s.repo.FindAttempt(ctx, attemptID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt.UserID != userID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not your attempt")
	}
	if len(attempt.RawAnswers) > 0 {
		if err := json.Unmarshal(attempt.RawAnswers, &attempt.Answers); err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode answers")
		}
	}
	questions, err := s.repo.ListQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	key := make([]models.AnswerKey, len(questions))
	for i, q := range questions {
		key[i] = models.AnswerKey{QuestionID: q.ID, CorrectAnswer: q.CorrectAnswer, Explanation: q.Explanation}
	}
	return attempt, key, nil
}

// MyAttempts returns the caller's attempts, newest first.
func (s *MockTestService) MyAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	attempts, err := s.repo.ListAttempts(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	for i := range attempts {
		if len(attempts[i].RawAnswers) > 0 {
			if err := json.Unmarshal(attempts[i].RawAnswers, &attempts[i].Answers); err != nil {
				s.logger.Warn("failed to decode stored answers", zap.String("attempt_id", attempts[i].ID), zap.Error(err))
			}
		}
	}
	return attempts, nil
}
