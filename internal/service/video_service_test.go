package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

type mockVideoRepo struct {
	videos  map[string]models.Video
	deleted []string
}

func newMockVideoRepo() *mockVideoRepo {
	return &mockVideoRepo{videos: make(map[string]models.Video)}
}

func (m *mockVideoRepo) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	var list []models.Video
	for _, v := range m.videos {
		list = append(list, v)
	}
	return list, len(list), nil
}

func (m *mockVideoRepo) FindByID(ctx context.Context, id string) (*models.Video, error) {
	if v, ok := m.videos[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockVideoRepo) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = "new-video"
	}
	m.videos[video.ID] = *video
	return nil
}

func (m *mockVideoRepo) Update(ctx context.Context, video *models.Video) error {
	m.videos[video.ID] = *video
	return nil
}

func (m *mockVideoRepo) ApproveIfPending(ctx context.Context, id string) (bool, error) {
	v, ok := m.videos[id]
	if !ok || v.IsApproved {
		return false, nil
	}
	v.IsApproved = true
	m.videos[id] = v
	return true, nil
}

func (m *mockVideoRepo) Delete(ctx context.Context, id string) error {
	delete(m.videos, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockVideoRepo) IncrementViews(ctx context.Context, id string) error { return nil }
func (m *mockVideoRepo) IncrementLikes(ctx context.Context, id string) error { return nil }

func TestVideoApproveCreditsOwnerOnce(t *testing.T) {
	repo := newMockVideoRepo()
	repo.videos["v1"] = models.Video{ID: "v1", TeacherID: "t1", Title: "Lesson recording"}
	awarder := &mockAwarder{}
	svc := NewVideoService(repo, newMockTeacherRepo(), &mockSchoolReader{}, awarder, newMockFileStore(), nil, nil)

	video, err := svc.Approve(context.Background(), superadminClaims(), "v1")
	require.NoError(t, err)
	assert.True(t, video.IsApproved)
	require.Len(t, awarder.calls, 1)
	assert.Equal(t, models.VideoApprovalPoints, awarder.calls[0].Points)

	_, err = svc.Approve(context.Background(), superadminClaims(), "v1")
	require.NoError(t, err)
	assert.Len(t, awarder.calls, 1)
}

func TestVideoRejectDeletesRegardlessOfApproval(t *testing.T) {
	path := "videos/v.mp4"
	repo := newMockVideoRepo()
	repo.videos["v1"] = models.Video{ID: "v1", TeacherID: "t1", IsApproved: true, FilePath: &path}
	files := newMockFileStore()
	svc := NewVideoService(repo, newMockTeacherRepo(), &mockSchoolReader{}, &mockAwarder{}, files, nil, nil)

	result, err := svc.Reject(context.Background(), superadminClaims(), "v1", "audio unusable")
	require.NoError(t, err)
	assert.Equal(t, "audio unusable", result.Reason)
	assert.Contains(t, repo.deleted, "v1")
	assert.Contains(t, files.deleted, path)
}

func TestVideoModerationScopedToAdminSchool(t *testing.T) {
	director := "u-director"
	repo := newMockVideoRepo()
	repo.videos["v1"] = models.Video{ID: "v1", TeacherID: "t-other"}
	teachers := newMockTeacherRepo()
	teachers.add(models.Teacher{ID: "t-other", UserID: "u-other", SchoolID: "s2"})
	schools := &mockSchoolDirectory{schools: map[string]models.School{
		"s2": {ID: "s2"},
	}}
	svc := NewVideoService(repo, teachers, schools, &mockAwarder{}, newMockFileStore(), nil, nil)

	admin := &models.JWTClaims{UserID: director, Role: models.RoleAdmin}
	_, err := svc.Approve(context.Background(), admin, "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	_, err = svc.Reject(context.Background(), admin, "v1", "off-topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Empty(t, repo.deleted)
}
