package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

type mockTeacherRepo struct {
	teachers   map[string]models.Teacher
	byUser     map[string]string
	levels     map[string]models.TeacherLevel
	activities []models.TeacherActivity
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{
		teachers: make(map[string]models.Teacher),
		byUser:   make(map[string]string),
		levels:   make(map[string]models.TeacherLevel),
	}
}

func (m *mockTeacherRepo) add(t models.Teacher) {
	m.teachers[t.ID] = t
	m.byUser[t.UserID] = t.ID
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var list []models.Teacher
	for _, t := range m.teachers {
		list = append(list, t)
	}
	return list, len(list), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if id, ok := m.byUser[userID]; ok {
		return m.FindByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "new-teacher"
	}
	m.add(*teacher)
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *mockTeacherRepo) AddPoints(ctx context.Context, teacherID string, points int) (int, error) {
	t, ok := m.teachers[teacherID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	t.TotalPoints += points
	t.MonthlyPoints += points
	m.teachers[teacherID] = t
	return t.TotalPoints, nil
}

func (m *mockTeacherRepo) SetLevel(ctx context.Context, teacherID string, level models.TeacherLevel) error {
	t := m.teachers[teacherID]
	t.Level = level
	m.teachers[teacherID] = t
	m.levels[teacherID] = level
	return nil
}

func (m *mockTeacherRepo) CreateActivity(ctx context.Context, activity *models.TeacherActivity) error {
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *mockTeacherRepo) ListActivities(ctx context.Context, teacherID string, limit int) ([]models.TeacherActivity, error) {
	return m.activities, nil
}

func (m *mockTeacherRepo) ResetMonthlyPoints(ctx context.Context) error {
	for id, t := range m.teachers {
		t.MonthlyPoints = 0
		m.teachers[id] = t
	}
	return nil
}

type mockSchoolReader struct{}

func (m *mockSchoolReader) FindByID(ctx context.Context, id string) (*models.School, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.School{ID: id, Name: "School " + id}, nil
}

func TestLevelForPointsThresholds(t *testing.T) {
	cases := []struct {
		points int
		want   models.TeacherLevel
	}{
		{0, models.LevelTeacher},
		{499, models.LevelTeacher},
		{500, models.LevelAssistant},
		{999, models.LevelAssistant},
		{1000, models.LevelExpert},
		{5000, models.LevelExpert},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, models.LevelForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestAwardPointsCrossesThreshold(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.add(models.Teacher{ID: "t1", UserID: "u1", TotalPoints: 495, Level: models.LevelTeacher})
	svc := NewTeacherService(repo, &mockSchoolReader{}, nil, nil)

	total, err := svc.AwardPoints(context.Background(), "t1", 10, models.ActivityMaterial, "Worksheets")
	require.NoError(t, err)
	assert.Equal(t, 505, total)
	assert.Equal(t, models.LevelAssistant, repo.levels["t1"])

	require.Len(t, repo.activities, 1)
	assert.Equal(t, 10, repo.activities[0].Points)
	assert.Equal(t, models.ActivityMaterial, repo.activities[0].ActivityType)
}

func TestAwardPointsLevelFollowsTotalNotIncrement(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.add(models.Teacher{ID: "t1", UserID: "u1", TotalPoints: 990, Level: models.LevelAssistant})
	svc := NewTeacherService(repo, &mockSchoolReader{}, nil, nil)

	total, err := svc.AwardPoints(context.Background(), "t1", 15, models.ActivityVideo, "Lesson recording")
	require.NoError(t, err)
	assert.Equal(t, 1005, total)
	assert.Equal(t, models.LevelExpert, repo.levels["t1"])
}

func TestCreateTeacherRejectsDuplicateProfile(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.add(models.Teacher{ID: "t1", UserID: "u1", SchoolID: "s1", Subject: models.SubjectMath})
	svc := NewTeacherService(repo, &mockSchoolReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{UserID: "u1", SchoolID: "s1", Subject: models.SubjectMath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateTeacherUnknownSchool(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, &mockSchoolReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{UserID: "u1", SchoolID: "missing", Subject: models.SubjectMath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "school not found")
}
