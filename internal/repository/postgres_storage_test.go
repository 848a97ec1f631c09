package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var (
	userCols     = []string{"id", "username", "password", "email", "full_name", "phone", "role", "created_at"}
	studentCols  = []string{"id", "student_id", "first_name", "last_name", "grade", "parent_id", "created_at"}
	busCols      = []string{"id", "bus_number", "license_number", "capacity", "driver_id", "created_at"}
	roundCols    = []string{"id", "name", "type", "start_time", "end_time", "bus_id", "status", "created_at"}
	notifCols    = []string{"id", "type", "message", "round_id", "bus_id", "student_id", "sender_id", "recipient_id", "timestamp"}
	activityCols = []string{"id", "action", "details", "user_id", "timestamp"}
)

func TestPostgresGetUserNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password, email, full_name, phone, role, created_at FROM users WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := store.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUserConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username, password, email, full_name, phone, role) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, username")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	_, err := store.CreateUser(context.Background(), models.NewUser{Username: "admin", Password: "hash", Email: "a@b.c", FullName: "A", Role: models.RoleAdmin})
	assertConstraint(t, err, ErrConflict, "username")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateStudentInvalidParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students (student_id, first_name, last_name, grade, parent_id) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs("ST-1", "A", "B", "3", int64(9)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "students_parent_id_fkey"})

	_, err := store.CreateStudent(context.Background(), models.NewStudent{StudentID: "ST-1", FirstName: "A", LastName: "B", Grade: "3", ParentID: models.SomeID(9)})
	assertConstraint(t, err, ErrInvalidReference, "parentId")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStudentBuildsPartialSet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET grade = $1, parent_id = $2 WHERE id = $3 RETURNING id, student_id, first_name, last_name, grade, parent_id, created_at")).
		WithArgs("6", nil, int64(4)).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow(4, "ST-1", "A", "B", "6", nil, now))

	grade := "6"
	st, err := store.UpdateStudent(context.Background(), 4, models.StudentPatch{Grade: &grade, ParentID: models.NullID()})
	require.NoError(t, err)
	assert.Equal(t, "6", st.Grade)
	assert.Nil(t, st.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateBusEmptyPatchReadsRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, bus_number, license_number, capacity, driver_id, created_at FROM buses WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(busCols).AddRow(2, "101", "L-1", 40, nil, now))

	b, err := store.UpdateBus(context.Background(), 2, models.BusPatch{})
	require.NoError(t, err)
	assert.Equal(t, "101", b.BusNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransitionRoundRejected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE bus_rounds SET status = $1 WHERE id = $2 AND status = ANY($3) RETURNING id, name, type, start_time, end_time, bus_id, status, created_at")).
		WithArgs("in_progress", int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(roundCols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, start_time, end_time, bus_id, status, created_at FROM bus_rounds WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(roundCols).AddRow(3, "AM", "morning", "07:00", "08:00", nil, "completed", now))

	_, err := store.TransitionRound(context.Background(), 3, []models.RoundStatus{models.RoundPending}, models.RoundInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransitionRoundUnconditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE bus_rounds SET status = $1 WHERE id = $2 RETURNING")).
		WithArgs("completed", int64(3)).
		WillReturnRows(sqlmock.NewRows(roundCols).AddRow(3, "AM", "morning", "07:00", "08:00", 1, "completed", now))

	r, err := store.TransitionRound(context.Background(), 3, nil, models.RoundCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.RoundCompleted, r.Status)
	require.NotNil(t, r.BusID)
	assert.Equal(t, int64(1), *r.BusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListActivityLogsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, details, user_id, timestamp FROM activity_logs WHERE user_id = $1 AND action = $2 ORDER BY timestamp DESC, id DESC LIMIT 5")).
		WithArgs(int64(1), models.ActionCreateBus).
		WillReturnRows(sqlmock.NewRows(activityCols).AddRow(7, models.ActionCreateBus, []byte(`{"busId":2}`), 1, now))

	userID := int64(1)
	logs, err := store.ListActivityLogs(context.Background(), models.ActivityLogFilter{UserID: &userID, Action: models.ActionCreateBus, Limit: 5})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"busId":2}`, logs[0].Details.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDashboardStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM students\) AS total_students`).
		WillReturnRows(sqlmock.NewRows([]string{"total_students", "total_parents", "total_drivers", "total_buses", "active_rounds"}).
			AddRow(10, 4, 2, 3, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, message, round_id, bus_id, student_id, sender_id, recipient_id, timestamp FROM notifications ORDER BY timestamp DESC, id DESC LIMIT 5")).
		WillReturnRows(sqlmock.NewRows(notifCols).AddRow(1, "round_started", "AM has started", 1, 1, nil, 1, nil, now))

	stats, err := store.DashboardStats(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalStudents)
	assert.Equal(t, 4, stats.TotalParents)
	assert.Equal(t, 2, stats.TotalDrivers)
	assert.Equal(t, 3, stats.TotalBuses)
	assert.Equal(t, 1, stats.ActiveRounds)
	require.Len(t, stats.RecentNotifications, 1)
	assert.Equal(t, models.NotificationRoundStarted, stats.RecentNotifications[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	store := NewPostgresStorage(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM buses WHERE id = $1")).WithArgs(int64(8)).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, store.DeleteBus(context.Background(), 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}
