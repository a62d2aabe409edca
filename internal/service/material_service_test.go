package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

type mockMaterialRepo struct {
	materials map[string]models.Material
	deleted   []string
}

func newMockMaterialRepo() *mockMaterialRepo {
	return &mockMaterialRepo{materials: make(map[string]models.Material)}
}

func (m *mockMaterialRepo) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	var list []models.Material
	for _, mat := range m.materials {
		if filter.TeacherID != "" && mat.TeacherID != filter.TeacherID {
			continue
		}
		list = append(list, mat)
	}
	return list, len(list), nil
}

func (m *mockMaterialRepo) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if mat, ok := m.materials[id]; ok {
		return &mat, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = "new-material"
	}
	m.materials[material.ID] = *material
	return nil
}

func (m *mockMaterialRepo) Update(ctx context.Context, material *models.Material) error {
	m.materials[material.ID] = *material
	return nil
}

func (m *mockMaterialRepo) ApproveIfPending(ctx context.Context, id string) (bool, error) {
	mat, ok := m.materials[id]
	if !ok || mat.IsApproved {
		return false, nil
	}
	mat.IsApproved = true
	m.materials[id] = mat
	return true, nil
}

func (m *mockMaterialRepo) Delete(ctx context.Context, id string) error {
	delete(m.materials, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockMaterialRepo) IncrementViews(ctx context.Context, id string) error     { return nil }
func (m *mockMaterialRepo) IncrementDownloads(ctx context.Context, id string) error { return nil }

type mockAwarder struct {
	calls []struct {
		TeacherID string
		Points    int
	}
}

func (m *mockAwarder) AwardPoints(ctx context.Context, teacherID string, points int, kind models.ActivityType, title string) (int, error) {
	m.calls = append(m.calls, struct {
		TeacherID string
		Points    int
	}{teacherID, points})
	return points, nil
}

type mockFileStore struct {
	saved   map[string][]byte
	deleted []string
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{saved: make(map[string][]byte)}
}

func (m *mockFileStore) Save(filename string, data []byte) (string, error) {
	m.saved[filename] = data
	return filename, nil
}

func (m *mockFileStore) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

type mockSchoolDirectory struct {
	schools map[string]models.School
}

func (m *mockSchoolDirectory) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func superadminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}
}

func TestMaterialApproveCreditsOwnerOnce(t *testing.T) {
	repo := newMockMaterialRepo()
	repo.materials["m1"] = models.Material{ID: "m1", TeacherID: "t1", Title: "Fractions"}
	teachers := newMockTeacherRepo()
	awarder := &mockAwarder{}
	svc := NewMaterialService(repo, teachers, &mockSchoolReader{}, awarder, newMockFileStore(), nil, nil)

	material, err := svc.Approve(context.Background(), superadminClaims(), "m1")
	require.NoError(t, err)
	assert.True(t, material.IsApproved)
	require.Len(t, awarder.calls, 1)
	assert.Equal(t, models.MaterialApprovalPoints, awarder.calls[0].Points)

	// Second approval is a no-op: no second credit.
	_, err = svc.Approve(context.Background(), superadminClaims(), "m1")
	require.NoError(t, err)
	assert.Len(t, awarder.calls, 1)
}

func TestMaterialRejectDeletesAndEchoesReason(t *testing.T) {
	repo := newMockMaterialRepo()
	repo.materials["m1"] = models.Material{ID: "m1", TeacherID: "t1", FilePath: "materials/a.pdf"}
	files := newMockFileStore()
	svc := NewMaterialService(repo, newMockTeacherRepo(), &mockSchoolReader{}, &mockAwarder{}, files, nil, nil)

	result, err := svc.Reject(context.Background(), superadminClaims(), "m1", "duplicate upload")
	require.NoError(t, err)
	assert.Equal(t, "duplicate upload", result.Reason)
	assert.Contains(t, repo.deleted, "m1")
	assert.Contains(t, files.deleted, "materials/a.pdf")

	// The material is gone; a repeat rejection reports not found.
	_, err = svc.Reject(context.Background(), superadminClaims(), "m1", "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMaterialRejectApprovedStillDeletes(t *testing.T) {
	repo := newMockMaterialRepo()
	repo.materials["m1"] = models.Material{ID: "m1", TeacherID: "t1", IsApproved: true, FilePath: "materials/a.pdf"}
	files := newMockFileStore()
	svc := NewMaterialService(repo, newMockTeacherRepo(), &mockSchoolReader{}, &mockAwarder{}, files, nil, nil)

	result, err := svc.Reject(context.Background(), superadminClaims(), "m1", "plagiarised content")
	require.NoError(t, err)
	assert.Equal(t, "plagiarised content", result.Reason)
	assert.Contains(t, repo.deleted, "m1")
	assert.Contains(t, files.deleted, "materials/a.pdf")
}

func TestMaterialModerationScopedToAdminSchool(t *testing.T) {
	director := "u-director"
	repo := newMockMaterialRepo()
	repo.materials["m1"] = models.Material{ID: "m1", TeacherID: "t-own", Title: "Fractions"}
	repo.materials["m2"] = models.Material{ID: "m2", TeacherID: "t-other", Title: "Geometry"}
	teachers := newMockTeacherRepo()
	teachers.add(models.Teacher{ID: "t-own", UserID: "u-own", SchoolID: "s1"})
	teachers.add(models.Teacher{ID: "t-other", UserID: "u-other", SchoolID: "s2"})
	schools := &mockSchoolDirectory{schools: map[string]models.School{
		"s1": {ID: "s1", DirectorUserID: &director},
		"s2": {ID: "s2"},
	}}
	awarder := &mockAwarder{}
	svc := NewMaterialService(repo, teachers, schools, awarder, newMockFileStore(), nil, nil)

	admin := &models.JWTClaims{UserID: director, Role: models.RoleAdmin}

	// Another school's submission looks nonexistent to this admin.
	_, err := svc.Approve(context.Background(), admin, "m2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	_, err = svc.Reject(context.Background(), admin, "m2", "off-topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Empty(t, repo.deleted)
	assert.Empty(t, awarder.calls)

	// Own-school submissions moderate normally.
	material, err := svc.Approve(context.Background(), admin, "m1")
	require.NoError(t, err)
	assert.True(t, material.IsApproved)
	require.Len(t, awarder.calls, 1)
}

func TestMaterialUploadRequiresTeacherProfile(t *testing.T) {
	svc := NewMaterialService(newMockMaterialRepo(), newMockTeacherRepo(), &mockSchoolReader{}, &mockAwarder{}, newMockFileStore(), nil, nil)

	_, err := svc.Upload(context.Background(), "no-profile", UploadMaterialRequest{
		Title:    "Fractions",
		Subject:  models.SubjectMath,
		FileName: "f.pdf",
		FileData: []byte("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher profile not found")
}

func TestMyMaterialsWithoutProfileReturnsEmpty(t *testing.T) {
	svc := NewMaterialService(newMockMaterialRepo(), newMockTeacherRepo(), &mockSchoolReader{}, &mockAwarder{}, newMockFileStore(), nil, nil)

	list, pagination, err := svc.MyMaterials(context.Background(), "no-profile", models.MaterialFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, pagination.TotalCount)
}
