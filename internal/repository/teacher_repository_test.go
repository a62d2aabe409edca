package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "school_id", "subject", "level", "total_points", "monthly_points", "bio", "created_at", "updated_at"}).
		AddRow("t1", "u1", "s1", "math", "teacher", 120, 40, "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id, t.user_id, t.school_id, t.subject, t.level, t.total_points, t.monthly_points, t.bio, t.created_at, t.updated_at FROM teachers t WHERE 1=1 ORDER BY t.total_points DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryAddPointsReturnsNewTotal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("UPDATE teachers").
		WithArgs("t1", 15, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}).AddRow(515))

	total, err := repo.AddPoints(context.Background(), "t1", 15)
	require.NoError(t, err)
	assert.Equal(t, 515, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositorySetLevel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET level = $2")).
		WithArgs("t1", models.LevelAssistant, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetLevel(context.Background(), "t1", models.LevelAssistant))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateActivity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teacher_activities").
		WithArgs(sqlmock.AnyArg(), "t1", models.ActivityMaterial, "Algebra worksheets", "", 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateActivity(context.Background(), &models.TeacherActivity{
		TeacherID:    "t1",
		ActivityType: models.ActivityMaterial,
		Title:        "Algebra worksheets",
		Points:       10,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
