package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

type mockTestRepo struct {
	tests     map[string]models.MockTest
	questions map[string][]models.Question
	attempts  map[string]models.TestAttempt
}

func newMockTestRepo() *mockTestRepo {
	return &mockTestRepo{
		tests:     make(map[string]models.MockTest),
		questions: make(map[string][]models.Question),
		attempts:  make(map[string]models.TestAttempt),
	}
}

func (m *mockTestRepo) List(ctx context.Context, filter models.MockTestFilter) ([]models.MockTest, int, error) {
	var list []models.MockTest
	for _, t := range m.tests {
		list = append(list, t)
	}
	return list, len(list), nil
}

func (m *mockTestRepo) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	if t, ok := m.tests[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTestRepo) CreateWithQuestions(ctx context.Context, test *models.MockTest, questions []models.Question) error {
	if test.ID == "" {
		test.ID = "new-test"
	}
	test.QuestionsCount = len(questions)
	m.tests[test.ID] = *test
	m.questions[test.ID] = questions
	return nil
}

func (m *mockTestRepo) ListQuestions(ctx context.Context, testID string) ([]models.Question, error) {
	out := make([]models.Question, len(m.questions[testID]))
	copy(out, m.questions[testID])
	return out, nil
}

func (m *mockTestRepo) CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error {
	if attempt.ID == "" {
		attempt.ID = "new-attempt"
	}
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *mockTestRepo) FindAttempt(ctx context.Context, id string) (*models.TestAttempt, error) {
	if a, ok := m.attempts[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTestRepo) ListAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	var list []models.TestAttempt
	for _, a := range m.attempts {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (m *mockTestRepo) BestScore(ctx context.Context, userID, testID string) (int, error) {
	best := 0
	for _, a := range m.attempts {
		if a.UserID == userID && a.TestID == testID && a.Score > best {
			best = a.Score
		}
	}
	return best, nil
}

func seedTest(repo *mockTestRepo, passingScore, questionCount int) {
	questions := make([]models.Question, questionCount)
	for i := range questions {
		questions[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			TestID:        "test1",
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			CorrectAnswer: "A",
			Order:         i + 1,
		}
	}
	repo.tests["test1"] = models.MockTest{
		ID: "test1", Title: "Algebra basics", PassingScore: passingScore,
		QuestionsCount: questionCount,
	}
	repo.questions["test1"] = questions
}

func TestSubmitScoresRoundedPercentage(t *testing.T) {
	repo := newMockTestRepo()
	seedTest(repo, 60, 3)
	svc := NewMockTestService(repo, nil, nil)

	// 2 of 3 correct: 66.67 rounds to 67, passing at threshold 60.
	attempt, err := svc.Submit(context.Background(), "u1", "test1", SubmitAttemptRequest{
		Answers: map[string]string{"q1": "A", "q2": "A", "q3": "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, attempt.Score)
	assert.Equal(t, 2, attempt.CorrectAnswers)
	assert.Equal(t, 1, attempt.WrongAnswers)
	assert.True(t, attempt.Passed)
}

func TestSubmitPassingBoundary(t *testing.T) {
	repo := newMockTestRepo()
	seedTest(repo, 50, 4)
	svc := NewMockTestService(repo, nil, nil)

	// Exactly at the threshold passes.
	attempt, err := svc.Submit(context.Background(), "u1", "test1", SubmitAttemptRequest{
		Answers: map[string]string{"q1": "A", "q2": "A", "q3": "B", "q4": "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, attempt.Score)
	assert.True(t, attempt.Passed)

	// One below fails.
	attempt, err = svc.Submit(context.Background(), "u1", "test1", SubmitAttemptRequest{
		Answers: map[string]string{"q1": "A"},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, attempt.Score)
	assert.False(t, attempt.Passed)
}

func TestSubmitCountsUnansweredAsWrong(t *testing.T) {
	repo := newMockTestRepo()
	seedTest(repo, 60, 4)
	svc := NewMockTestService(repo, nil, nil)

	attempt, err := svc.Submit(context.Background(), "u1", "test1", SubmitAttemptRequest{
		Answers: map[string]string{"q1": "A"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.CorrectAnswers)
	assert.Equal(t, 3, attempt.WrongAnswers)
	assert.Equal(t, 4, attempt.TotalQuestions)
}

func TestSubmitEmptyTestFails(t *testing.T) {
	repo := newMockTestRepo()
	repo.tests["test1"] = models.MockTest{ID: "test1", PassingScore: 60}
	svc := NewMockTestService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), "u1", "test1", SubmitAttemptRequest{
		Answers: map[string]string{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")
}

func TestGetStripsAnswerKey(t *testing.T) {
	repo := newMockTestRepo()
	seedTest(repo, 60, 2)
	repo.questions["test1"][0].Explanation = "distributive law"
	svc := NewMockTestService(repo, nil, nil)

	_, questions, err := svc.Get(context.Background(), "test1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.Empty(t, q.Explanation)
	}
}

func TestReviewOwnerOnly(t *testing.T) {
	repo := newMockTestRepo()
	seedTest(repo, 60, 2)
	repo.attempts["a1"] = models.TestAttempt{
		ID: "a1", UserID: "u1", TestID: "test1", Score: 100,
		RawAnswers: []byte(`{"q1":"A","q2":"A"}`),
	}
	svc := NewMockTestService(repo, nil, nil)

	attempt, key, err := svc.Review(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "A", attempt.Answers["q1"])
	require.Len(t, key, 2)
	assert.Equal(t, "A", key[0].CorrectAnswer)

	_, _, err = svc.Review(context.Background(), "u2", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not your attempt")
}
