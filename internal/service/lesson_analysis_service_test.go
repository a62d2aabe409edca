package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

type mockAnalysisRepo struct {
	analyses       map[string]models.LessonAnalysis
	comments       []models.AnalysisComment
	statsTeacherID string
}

func newMockAnalysisRepo() *mockAnalysisRepo {
	return &mockAnalysisRepo{analyses: make(map[string]models.LessonAnalysis)}
}

func (m *mockAnalysisRepo) List(ctx context.Context, filter models.AnalysisFilter) ([]models.LessonAnalysis, int, error) {
	var list []models.LessonAnalysis
	for _, a := range m.analyses {
		list = append(list, a)
	}
	return list, len(list), nil
}

func (m *mockAnalysisRepo) FindByID(ctx context.Context, id string) (*models.LessonAnalysis, error) {
	if a, ok := m.analyses[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAnalysisRepo) Create(ctx context.Context, analysis *models.LessonAnalysis) error {
	if analysis.ID == "" {
		analysis.ID = "new-analysis"
	}
	m.analyses[analysis.ID] = *analysis
	return nil
}

func (m *mockAnalysisRepo) Update(ctx context.Context, analysis *models.LessonAnalysis) error {
	stored := m.analyses[analysis.ID]
	frozen := stored.OverallRating
	updated := *analysis
	updated.OverallRating = frozen
	m.analyses[analysis.ID] = updated
	return nil
}

func (m *mockAnalysisRepo) Submit(ctx context.Context, id string) (bool, error) {
	a, ok := m.analyses[id]
	if !ok || a.Status != models.AnalysisDraft {
		return false, nil
	}
	a.Status = models.AnalysisPending
	m.analyses[id] = a
	return true, nil
}

func (m *mockAnalysisRepo) ApproveIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	a, ok := m.analyses[id]
	if !ok || a.Status != models.AnalysisPending {
		return false, nil
	}
	a.Status = models.AnalysisApproved
	a.ApprovedAt = &at
	m.analyses[id] = a
	return true, nil
}

func (m *mockAnalysisRepo) RejectIfPending(ctx context.Context, id, reason string) (bool, error) {
	a, ok := m.analyses[id]
	if !ok || a.Status != models.AnalysisPending {
		return false, nil
	}
	a.Status = models.AnalysisRejected
	a.RejectionReason = reason
	m.analyses[id] = a
	return true, nil
}

func (m *mockAnalysisRepo) AddComment(ctx context.Context, comment *models.AnalysisComment) error {
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *mockAnalysisRepo) ListComments(ctx context.Context, analysisID string) ([]models.AnalysisComment, error) {
	return m.comments, nil
}

func (m *mockAnalysisRepo) Stats(ctx context.Context, teacherID string) (*models.AnalysisStats, error) {
	m.statsTeacherID = teacherID
	return &models.AnalysisStats{TotalAnalyses: 3, TotalReceived: 3}, nil
}

func (m *mockAnalysisRepo) GlobalStats(ctx context.Context) (*models.AnalysisStats, error) {
	return &models.AnalysisStats{TotalAnalyses: 42}, nil
}

func analysisFixture(t *testing.T) (*LessonAnalysisService, *mockAnalysisRepo, *mockAwarder) {
	t.Helper()
	repo := newMockAnalysisRepo()
	teachers := newMockTeacherRepo()
	teachers.add(models.Teacher{ID: "analyzer", UserID: "u-analyzer"})
	teachers.add(models.Teacher{ID: "subject", UserID: "u-subject"})
	awarder := &mockAwarder{}
	return NewLessonAnalysisService(repo, teachers, awarder, nil, nil), repo, awarder
}

func analysisRequest() CreateAnalysisRequest {
	return CreateAnalysisRequest{
		TeacherID:         "subject",
		LessonDate:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Subject:           "Mathematics",
		Grade:             7,
		Topic:             "Quadratic equations",
		LessonType:        models.LessonNew,
		MethodologyRating: 5,
		MaterialMastery:   4,
		StudentEngagement: 4,
		TimeManagement:    4,
		TechnologyUse:     4,
	}
}

func TestAnalysisOverallRatingFrozenAtCreation(t *testing.T) {
	svc, repo, _ := analysisFixture(t)

	created, err := svc.Create(context.Background(), "u-analyzer", analysisRequest())
	require.NoError(t, err)
	assert.InDelta(t, 4.2, created.OverallRating, 0.001)

	// Raising every sub-rating to 5 must not move the frozen overall.
	updated, err := svc.Update(context.Background(), "u-analyzer", created.ID, UpdateAnalysisRequest{
		MethodologyRating: 5,
		MaterialMastery:   5,
		StudentEngagement: 5,
		TimeManagement:    5,
		TechnologyUse:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaterialMastery)
	assert.InDelta(t, 4.2, repo.analyses[created.ID].OverallRating, 0.001)
}

func TestAnalysisCreateRejectsSelfReview(t *testing.T) {
	svc, _, _ := analysisFixture(t)

	req := analysisRequest()
	req.TeacherID = "analyzer"
	_, err := svc.Create(context.Background(), "u-analyzer", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own lesson")
}

func TestAnalysisApproveCreditsBothSides(t *testing.T) {
	svc, repo, awarder := analysisFixture(t)
	repo.analyses["a1"] = models.LessonAnalysis{
		ID: "a1", AnalyzerID: "analyzer", TeacherID: "subject",
		Topic: "Quadratic equations", Status: models.AnalysisPending,
	}

	approved, err := svc.Approve(context.Background(), "u-subject", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	require.Len(t, awarder.calls, 2)
	assert.Equal(t, "subject", awarder.calls[0].TeacherID)
	assert.Equal(t, models.AnalysisSubjectTeacherPoints, awarder.calls[0].Points)
	assert.Equal(t, "analyzer", awarder.calls[1].TeacherID)
	assert.Equal(t, models.AnalysisAnalyzerPoints, awarder.calls[1].Points)

	// Approval is single-shot.
	_, err = svc.Approve(context.Background(), "u-subject", "a1")
	require.Error(t, err)
	assert.Len(t, awarder.calls, 2)
}

func TestAnalysisReviewRestrictedToAnalyzedTeacher(t *testing.T) {
	svc, repo, awarder := analysisFixture(t)
	repo.analyses["a1"] = models.LessonAnalysis{
		ID: "a1", AnalyzerID: "analyzer", TeacherID: "subject",
		Status: models.AnalysisPending,
	}

	// The analyzer cannot sign off on their own review.
	_, err := svc.Approve(context.Background(), "u-analyzer", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the analyzed teacher")
	assert.Empty(t, awarder.calls)
	assert.Equal(t, models.AnalysisPending, repo.analyses["a1"].Status)

	_, err = svc.Reject(context.Background(), "u-analyzer", "a1", "disagree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the analyzed teacher")
	assert.Equal(t, models.AnalysisPending, repo.analyses["a1"].Status)

	approved, err := svc.Approve(context.Background(), "u-subject", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisApproved, approved.Status)
}

func TestAnalysisRejectRequiresAndPersistsReason(t *testing.T) {
	svc, repo, _ := analysisFixture(t)
	repo.analyses["a1"] = models.LessonAnalysis{
		ID: "a1", AnalyzerID: "analyzer", TeacherID: "subject",
		Status: models.AnalysisPending,
	}

	_, err := svc.Reject(context.Background(), "u-subject", "a1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason is required")

	rejected, err := svc.Reject(context.Background(), "u-subject", "a1", "ratings not substantiated")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisRejected, rejected.Status)
	assert.Equal(t, "ratings not substantiated", repo.analyses["a1"].RejectionReason)
}

func TestAnalysisSubmitDraftOnly(t *testing.T) {
	svc, repo, _ := analysisFixture(t)
	repo.analyses["a1"] = models.LessonAnalysis{
		ID: "a1", AnalyzerID: "analyzer", TeacherID: "subject",
		Status: models.AnalysisDraft,
	}

	submitted, err := svc.Submit(context.Background(), "u-analyzer", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisPending, submitted.Status)

	_, err = svc.Submit(context.Background(), "u-analyzer", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a draft")
}

func TestAnalysisStatsScopedByRole(t *testing.T) {
	svc, repo, _ := analysisFixture(t)

	// Staff get the platform-wide aggregate.
	global, err := svc.Stats(context.Background(), &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 42, global.TotalAnalyses)

	// Teachers get their own activity only.
	own, err := svc.Stats(context.Background(), &models.JWTClaims{UserID: "u-subject", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, 3, own.TotalAnalyses)
	assert.Equal(t, "subject", repo.statsTeacherID)
}
