package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalRepositoryBulkApproveCreditsOwnersInOneTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE materials SET is_approved = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "title"}).
			AddRow("m1", "t1", "Worksheets"))
	mock.ExpectQuery("UPDATE videos SET is_approved = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "title"}).
			AddRow("v1", "t1", "Recorded lesson"))
	mock.ExpectExec("INSERT INTO teacher_activities").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO teacher_activities").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("UPDATE teachers").
		WithArgs("t1", 25, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}).AddRow(525))
	mock.ExpectExec("UPDATE teachers SET level").
		WithArgs("t1", "assistant").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.BulkApprove(context.Background(), []string{"m1"}, []string{"v1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ApprovedCount())
	assert.Equal(t, 25, result.PointsAwarded["t1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryBulkApproveSkipsUnmatchedIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE materials SET is_approved = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "title"}))
	mock.ExpectCommit()

	result, err := repo.BulkApprove(context.Background(), []string{"ghost"}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.ApprovedCount())
	assert.Empty(t, result.PointsAwarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryBulkRejectDeletesInOneTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM materials").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM videos").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.BulkReject(context.Background(), []string{"m1", "m2"}, []string{"v1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.MaterialsDeleted)
	assert.Equal(t, 1, result.VideosDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
