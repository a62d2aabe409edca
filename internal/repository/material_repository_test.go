package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

func TestMaterialRepositoryApproveIfPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE materials SET is_approved = TRUE WHERE id = $1 AND is_approved = FALSE")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	flipped, err := repo.ApproveIfPending(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryApproveAlreadyApprovedIsNoOp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE materials SET is_approved = TRUE WHERE id = $1 AND is_approved = FALSE")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	flipped, err := repo.ApproveIfPending(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryCreateForcesUnapproved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("INSERT INTO materials").
		WithArgs(sqlmock.AnyArg(), "t1", "Fractions intro", "", models.SubjectMath, sqlmock.AnyArg(), "/uploads/f.pdf", false, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	material := &models.Material{
		TeacherID:  "t1",
		Title:      "Fractions intro",
		Subject:    models.SubjectMath,
		FilePath:   "/uploads/f.pdf",
		IsApproved: true,
	}
	require.NoError(t, repo.Create(context.Background(), material))
	assert.False(t, material.IsApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryListScopedToOwnOrApproved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "title", "description", "subject", "grade", "file_path", "is_approved", "views", "downloads", "created_at"}).
		AddRow("m1", "t1", "Own draft", "", "math", nil, "/uploads/a.pdf", false, 0, 0, time.Now()).
		AddRow("m2", "t2", "Approved", "", "math", nil, "/uploads/b.pdf", true, 3, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("(m.is_approved = TRUE OR m.teacher_id = $1)")).
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM materials m")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	list, total, err := repo.List(context.Background(), models.MaterialFilter{OwnOrApprovedBy: "t1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
