package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/middleware"
	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/service"
)

type testRepoMock struct {
	test      *models.MockTest
	questions []models.Question
	attempts  []models.TestAttempt
}

func (m *testRepoMock) List(ctx context.Context, filter models.MockTestFilter) ([]models.MockTest, int, error) {
	if m.test == nil {
		return nil, 0, nil
	}
	return []models.MockTest{*m.test}, 1, nil
}

func (m *testRepoMock) FindByID(ctx context.Context, id string) (*models.MockTest, error) {
	if m.test == nil || m.test.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.test, nil
}

func (m *testRepoMock) CreateWithQuestions(ctx context.Context, test *models.MockTest, questions []models.Question) error {
	test.ID = "t1"
	m.test = test
	m.questions = questions
	return nil
}

func (m *testRepoMock) ListQuestions(ctx context.Context, testID string) ([]models.Question, error) {
	out := make([]models.Question, len(m.questions))
	copy(out, m.questions)
	return out, nil
}

func (m *testRepoMock) CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error {
	attempt.ID = "a1"
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *testRepoMock) FindAttempt(ctx context.Context, id string) (*models.TestAttempt, error) {
	for _, a := range m.attempts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *testRepoMock) ListAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	return m.attempts, nil
}

func (m *testRepoMock) BestScore(ctx context.Context, userID, testID string) (int, error) {
	return 0, nil
}

func TestMockTestHandlerGetStripsKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &testRepoMock{
		test: &models.MockTest{ID: "t1", Title: "Algebra", PassingScore: 60},
		questions: []models.Question{
			{ID: "q1", TestID: "t1", QuestionText: "2+2?", CorrectAnswer: "B", Explanation: "basic sum"},
		},
	}
	handler := NewMockTestHandler(service.NewMockTestService(repo, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/tests/t1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "basic sum")
	assert.NotContains(t, w.Body.String(), `"correct_answer"`)
}

func TestMockTestHandlerSubmitGrades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &testRepoMock{
		test: &models.MockTest{ID: "t1", PassingScore: 50},
		questions: []models.Question{
			{ID: "q1", TestID: "t1", CorrectAnswer: "A"},
			{ID: "q2", TestID: "t1", CorrectAnswer: "C"},
		},
	}
	handler := NewMockTestHandler(service.NewMockTestService(repo, nil, nil))

	payload, _ := json.Marshal(service.SubmitAttemptRequest{Answers: map[string]string{"q1": "A", "q2": "D"}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/tests/t1/attempts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.attempts, 1)
	assert.Equal(t, 50, repo.attempts[0].Score)
	assert.True(t, repo.attempts[0].Passed)
}

func TestMockTestHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMockTestHandler(service.NewMockTestService(&testRepoMock{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/tests/t1/attempts", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
