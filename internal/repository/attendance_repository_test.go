package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (enrollment_id, attendance_date)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.Attendance{
		EnrollmentID:   "e1",
		StudentID:      "s1",
		CourseID:       "c1",
		AttendanceDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         models.AttendanceStatusPresent,
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'PRESENT') AS present")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
			AddRow(8, 1, 1, 0, 10))

	summary, err := repo.Summary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 1, summary.Late)
	assert.Zero(t, summary.Excused)
	assert.Equal(t, 10, summary.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummaryEmptyLedger(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'PRESENT') AS present")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
			AddRow(0, 0, 0, 0, 0))

	summary, err := repo.Summary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateMissingRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $2, remarks = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("ghost", "LATE", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "ghost", models.AttendanceStatusLate, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
