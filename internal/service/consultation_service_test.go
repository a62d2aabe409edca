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

type mockConsultationRepo struct {
	consultations map[string]models.Consultation
	notes         map[string]string
}

func newMockConsultationRepo() *mockConsultationRepo {
	return &mockConsultationRepo{
		consultations: make(map[string]models.Consultation),
		notes:         make(map[string]string),
	}
}

func (m *mockConsultationRepo) List(ctx context.Context, filter models.ConsultationFilter) ([]models.Consultation, int, error) {
	var list []models.Consultation
	for _, c := range m.consultations {
		list = append(list, c)
	}
	return list, len(list), nil
}

func (m *mockConsultationRepo) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	if c, ok := m.consultations[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockConsultationRepo) Create(ctx context.Context, consultation *models.Consultation) error {
	if consultation.ID == "" {
		consultation.ID = "new-consultation"
	}
	consultation.Status = models.ConsultationPending
	m.consultations[consultation.ID] = *consultation
	return nil
}

func (m *mockConsultationRepo) TransitionStatus(ctx context.Context, id string, from, to models.ConsultationStatus) (bool, error) {
	c, ok := m.consultations[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	m.consultations[id] = c
	return true, nil
}

func (m *mockConsultationRepo) SetStatus(ctx context.Context, id string, status models.ConsultationStatus) error {
	c := m.consultations[id]
	c.Status = status
	m.consultations[id] = c
	return nil
}

func (m *mockConsultationRepo) UpdateNotes(ctx context.Context, id, notes string) error {
	m.notes[id] = notes
	return nil
}

func (m *mockConsultationRepo) CountByStatus(ctx context.Context, participantID string) (map[models.ConsultationStatus]int, error) {
	counts := make(map[models.ConsultationStatus]int)
	for _, c := range m.consultations {
		if c.TeacherID == participantID || c.StudentID == participantID {
			counts[c.Status]++
		}
	}
	return counts, nil
}

func consultationFixture(t *testing.T) (*ConsultationService, *mockConsultationRepo, *mockTeacherRepo, *mockAwarder) {
	t.Helper()
	repo := newMockConsultationRepo()
	teachers := newMockTeacherRepo()
	teachers.add(models.Teacher{ID: "mentor", UserID: "u-mentor"})
	teachers.add(models.Teacher{ID: "requester", UserID: "u-requester"})
	awarder := &mockAwarder{}
	return NewConsultationService(repo, teachers, awarder, nil, nil), repo, teachers, awarder
}

func TestConsultationCreateRejectsSelf(t *testing.T) {
	svc, repo, _, _ := consultationFixture(t)

	_, err := svc.Create(context.Background(), "u-mentor", CreateConsultationRequest{
		Title:       "Methodology help",
		MentorID:    "mentor",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Duration:    60,
		Type:        models.ConsultationOnline,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yourself")
	assert.Empty(t, repo.consultations)
}

func TestConsultationAcceptRequiresPending(t *testing.T) {
	svc, repo, _, _ := consultationFixture(t)
	repo.consultations["c1"] = models.Consultation{
		ID: "c1", TeacherID: "mentor", StudentID: "requester",
		Status: models.ConsultationPending,
	}

	accepted, err := svc.Accept(context.Background(), "u-mentor", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationAccepted, accepted.Status)

	// Not pending anymore; a second accept fails.
	_, err = svc.Accept(context.Background(), "u-mentor", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")
}

func TestConsultationAcceptMentorOnly(t *testing.T) {
	svc, repo, _, _ := consultationFixture(t)
	repo.consultations["c1"] = models.Consultation{
		ID: "c1", TeacherID: "mentor", StudentID: "requester",
		Status: models.ConsultationPending,
	}

	_, err := svc.Accept(context.Background(), "u-requester", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the mentor")
}

func TestConsultationCompleteCreditsMentor(t *testing.T) {
	svc, repo, _, awarder := consultationFixture(t)
	repo.consultations["c1"] = models.Consultation{
		ID: "c1", TeacherID: "mentor", StudentID: "requester",
		Status: models.ConsultationAccepted, Title: "Methodology help",
	}

	done, err := svc.Complete(context.Background(), "u-mentor", "c1", "went well")
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationCompleted, done.Status)
	assert.Equal(t, "went well", repo.notes["c1"])

	require.Len(t, awarder.calls, 1)
	assert.Equal(t, "mentor", awarder.calls[0].TeacherID)
	assert.Equal(t, models.ConsultationCompletionPoints, awarder.calls[0].Points)
}

func TestConsultationCompleteHasNoStatusGuard(t *testing.T) {
	svc, repo, _, awarder := consultationFixture(t)
	repo.consultations["c1"] = models.Consultation{
		ID: "c1", TeacherID: "mentor", StudentID: "requester",
		Status: models.ConsultationPending,
	}

	// Completing straight from pending is allowed.
	done, err := svc.Complete(context.Background(), "u-requester", "c1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationCompleted, done.Status)
	assert.Len(t, awarder.calls, 1)
}
