package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/pkg/database"
)

// storageFactory returns an empty store for one subtest.
type storageFactory func(t *testing.T) Storage

func TestMemoryStorageContract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestPostgresStorageContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, nil))

	runStorageContract(t, func(t *testing.T) Storage {
		_, err := db.Exec(`TRUNCATE activity_logs, absences, notifications, locations, round_students, bus_rounds, buses, students, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return NewPostgresStorage(db)
	})
}

func runStorageContract(t *testing.T, newStore storageFactory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s Storage)
	}{
		{"user round trip", contractUserRoundTrip},
		{"username conflict", contractUsernameConflict},
		{"update partiality", contractUpdatePartiality},
		{"update missing and empty patch", contractUpdateMissingAndEmpty},
		{"delete idempotence", contractDeleteIdempotence},
		{"filter users by role", contractFilterUsers},
		{"dangling references", contractDanglingReferences},
		{"delete user clears references", contractDeleteUserSetsNull},
		{"delete student cascades", contractDeleteStudentCascades},
		{"delete bus cascades", contractDeleteBusCascades},
		{"latest location", contractLatestLocation},
		{"round transitions", contractRoundTransitions},
		{"round students", contractRoundStudents},
		{"notifications newest first", contractNotifications},
		{"absences", contractAbsences},
		{"activity logs", contractActivityLogs},
		{"dashboard stats", contractDashboardStats},
		{"bus round scenario", contractScenario},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func mustUser(t *testing.T, s Storage, username string, role models.UserRole) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.NewUser{
		Username: username,
		Password: "hashed",
		Email:    username + "@school.edu",
		FullName: "User " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func mustStudent(t *testing.T, s Storage, studentID string, parent models.OptionalID) *models.Student {
	t.Helper()
	st, err := s.CreateStudent(context.Background(), models.NewStudent{
		StudentID: studentID, FirstName: "First", LastName: "Last", Grade: "5", ParentID: parent,
	})
	require.NoError(t, err)
	return st
}

func mustBus(t *testing.T, s Storage, number string) *models.Bus {
	t.Helper()
	b, err := s.CreateBus(context.Background(), models.NewBus{BusNumber: number, LicenseNumber: "LIC-" + number, Capacity: 40})
	require.NoError(t, err)
	return b
}

func mustRound(t *testing.T, s Storage, name string, bus models.OptionalID) *models.BusRound {
	t.Helper()
	r, err := s.CreateBusRound(context.Background(), models.NewBusRound{
		Name: name, Type: models.RoundMorning, StartTime: "07:00", EndTime: "08:00",
		BusID: bus, Status: models.RoundPending,
	})
	require.NoError(t, err)
	return r
}

func assertConstraint(t *testing.T, err error, sentinel error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	var cerr *ConstraintError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, field, cerr.Field)
}

func contractUserRoundTrip(t *testing.T, s Storage) {
	ctx := context.Background()
	created, err := s.CreateUser(ctx, models.NewUser{
		Username: "driver1", Password: "hashed", Email: "d1@school.edu",
		FullName: "Driver One", Phone: strPtr("555-0000"), Role: models.RoleDriver,
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "driver1", got.Username)
	assert.Equal(t, "hashed", got.Password)
	assert.Equal(t, "Driver One", got.FullName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0000", *got.Phone)
	assert.Equal(t, models.RoleDriver, got.Role)

	byName, err := s.GetUserByUsername(ctx, "driver1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	second := mustUser(t, s, "driver2", models.RoleDriver)
	assert.Greater(t, second.ID, created.ID)
}

func contractUsernameConflict(t *testing.T, s Storage) {
	ctx := context.Background()
	first := mustUser(t, s, "taken", models.RoleParent)
	_, err := s.CreateUser(ctx, models.NewUser{Username: "taken", Password: "x", Email: "x@y.z", FullName: "X", Role: models.RoleParent})
	assertConstraint(t, err, ErrConflict, "username")

	other := mustUser(t, s, "other", models.RoleParent)
	_, err = s.UpdateUser(ctx, other.ID, models.UserPatch{Username: strPtr("taken")})
	assertConstraint(t, err, ErrConflict, "username")

	_, err = s.UpdateUser(ctx, first.ID, models.UserPatch{Username: strPtr("taken")})
	assert.NoError(t, err)

	mustBus(t, s, "101")
	_, err = s.CreateBus(ctx, models.NewBus{BusNumber: "101", LicenseNumber: "L", Capacity: 10})
	assertConstraint(t, err, ErrConflict, "busNumber")

	mustStudent(t, s, "ST-1", models.OptionalID{})
	_, err = s.CreateStudent(ctx, models.NewStudent{StudentID: "ST-1", FirstName: "A", LastName: "B", Grade: "1"})
	assertConstraint(t, err, ErrConflict, "studentId")
}

func contractUpdatePartiality(t *testing.T, s Storage) {
	ctx := context.Background()
	parent := mustUser(t, s, "parent", models.RoleParent)
	st := mustStudent(t, s, "ST-9", models.SomeID(parent.ID))

	updated, err := s.UpdateStudent(ctx, st.ID, models.StudentPatch{Grade: strPtr("6")})
	require.NoError(t, err)
	assert.Equal(t, "6", updated.Grade)
	assert.Equal(t, st.StudentID, updated.StudentID)
	assert.Equal(t, st.FirstName, updated.FirstName)
	assert.Equal(t, st.LastName, updated.LastName)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, parent.ID, *updated.ParentID)

	cleared, err := s.UpdateStudent(ctx, st.ID, models.StudentPatch{ParentID: models.NullID()})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)
	assert.Equal(t, "6", cleared.Grade)

	u, err := s.UpdateUser(ctx, parent.ID, models.UserPatch{Phone: strPtr("555-1")})
	require.NoError(t, err)
	require.NotNil(t, u.Phone)
	u, err = s.UpdateUser(ctx, parent.ID, models.UserPatch{Phone: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, u.Phone)
	assert.Equal(t, "parent", u.Username)
}

func contractUpdateMissingAndEmpty(t *testing.T, s Storage) {
	ctx := context.Background()
	_, err := s.UpdateBus(ctx, 999, models.BusPatch{Capacity: intPtr(3)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateBus(ctx, 999, models.BusPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	b := mustBus(t, s, "7")
	same, err := s.UpdateBus(ctx, b.ID, models.BusPatch{})
	require.NoError(t, err)
	assert.Equal(t, b.BusNumber, same.BusNumber)
	assert.Equal(t, b.Capacity, same.Capacity)
}

func contractDeleteIdempotence(t *testing.T, s Storage) {
	ctx := context.Background()
	b := mustBus(t, s, "55")
	require.NoError(t, s.DeleteBus(ctx, b.ID))
	_, err := s.GetBus(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.DeleteBus(ctx, b.ID))
	_, err = s.GetBus(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, 12345))
	require.NoError(t, s.RemoveStudentFromRound(ctx, 1, 1))
}

func contractFilterUsers(t *testing.T, s Storage) {
	ctx := context.Background()
	mustUser(t, s, "a", models.RoleAdmin)
	d1 := mustUser(t, s, "d1", models.RoleDriver)
	mustUser(t, s, "p1", models.RoleParent)
	d2 := mustUser(t, s, "d2", models.RoleDriver)

	driver := models.RoleDriver
	drivers, err := s.ListUsers(ctx, models.UserFilter{Role: &driver})
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, d1.ID, drivers[0].ID)
	assert.Equal(t, d2.ID, drivers[1].ID)

	all, err := s.ListUsers(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func contractDanglingReferences(t *testing.T, s Storage) {
	ctx := context.Background()
	_, err := s.CreateStudent(ctx, models.NewStudent{StudentID: "X", FirstName: "A", LastName: "B", Grade: "1", ParentID: models.SomeID(404)})
	assertConstraint(t, err, ErrInvalidReference, "parentId")

	_, err = s.CreateBus(ctx, models.NewBus{BusNumber: "X", LicenseNumber: "L", Capacity: 1, DriverID: models.SomeID(404)})
	assertConstraint(t, err, ErrInvalidReference, "driverId")

	_, err = s.CreateBusRound(ctx, models.NewBusRound{Name: "R", Type: models.RoundMorning, StartTime: "1", EndTime: "2", BusID: models.SomeID(404), Status: models.RoundPending})
	assertConstraint(t, err, ErrInvalidReference, "busId")

	_, err = s.RecordLocation(ctx, models.NewLocation{BusID: 404, Latitude: "1", Longitude: "2"})
	assertConstraint(t, err, ErrInvalidReference, "busId")

	_, err = s.RecordAbsence(ctx, models.NewAbsence{StudentID: 404, Date: "2024-01-01"})
	assertConstraint(t, err, ErrInvalidReference, "studentId")

	_, err = s.CreateNotification(ctx, models.NewNotification{Type: models.NotificationGeneral, Message: "m", RecipientID: models.SomeID(404)})
	assertConstraint(t, err, ErrInvalidReference, "recipientId")

	missing := int64(404)
	_, err = s.LogActivity(ctx, models.NewActivityLog{Action: "X", UserID: &missing})
	assertConstraint(t, err, ErrInvalidReference, "userId")
}

func contractDeleteUserSetsNull(t *testing.T, s Storage) {
	ctx := context.Background()
	parent := mustUser(t, s, "parent", models.RoleParent)
	driver := mustUser(t, s, "driver", models.RoleDriver)
	st := mustStudent(t, s, "ST-2", models.SomeID(parent.ID))
	b, err := s.CreateBus(ctx, models.NewBus{BusNumber: "9", LicenseNumber: "L9", Capacity: 20, DriverID: models.SomeID(driver.ID)})
	require.NoError(t, err)
	_, err = s.LogActivity(ctx, models.NewActivityLog{Action: models.ActionCreateBus, UserID: &driver.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, parent.ID))
	require.NoError(t, s.DeleteUser(ctx, driver.ID))

	gotStudent, err := s.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, gotStudent.ParentID)
	gotBus, err := s.GetBus(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gotBus.DriverID)
	logs, err := s.ListActivityLogs(ctx, models.ActivityLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].UserID)
}

func contractDeleteStudentCascades(t *testing.T, s Storage) {
	ctx := context.Background()
	st := mustStudent(t, s, "ST-3", models.OptionalID{})
	r := mustRound(t, s, "AM", models.OptionalID{})
	_, err := s.AssignStudentToRound(ctx, models.NewRoundStudent{RoundID: r.ID, StudentID: st.ID, Order: intPtr(1)})
	require.NoError(t, err)
	_, err = s.RecordAbsence(ctx, models.NewAbsence{StudentID: st.ID, Date: "2024-03-01"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteStudent(ctx, st.ID))

	rows, err := s.ListRoundStudents(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	absences, err := s.ListAbsences(ctx, models.AbsenceFilter{})
	require.NoError(t, err)
	assert.Empty(t, absences)
}

func contractDeleteBusCascades(t *testing.T, s Storage) {
	ctx := context.Background()
	b := mustBus(t, s, "77")
	r := mustRound(t, s, "PM", models.SomeID(b.ID))
	_, err := s.RecordLocation(ctx, models.NewLocation{BusID: b.ID, Latitude: "1.0", Longitude: "2.0"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBus(ctx, b.ID))

	gotRound, err := s.GetBusRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRound.BusID)
	_, err = s.GetLatestBusLocation(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func contractLatestLocation(t *testing.T, s Storage) {
	ctx := context.Background()
	b := mustBus(t, s, "1")
	_, err := s.GetLatestBusLocation(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RecordLocation(ctx, models.NewLocation{BusID: b.ID, Latitude: "10.0", Longitude: "20.0"})
	require.NoError(t, err)
	last, err := s.RecordLocation(ctx, models.NewLocation{BusID: b.ID, Latitude: "10.5", Longitude: "20.5"})
	require.NoError(t, err)

	latest, err := s.GetLatestBusLocation(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
	assert.Equal(t, "10.5", latest.Latitude)
	assert.Equal(t, "20.5", latest.Longitude)
}

func contractRoundTransitions(t *testing.T, s Storage) {
	ctx := context.Background()
	r := mustRound(t, s, "AM", models.OptionalID{})

	started, err := s.TransitionRound(ctx, r.ID, []models.RoundStatus{models.RoundPending}, models.RoundInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.RoundInProgress, started.Status)

	_, err = s.TransitionRound(ctx, r.ID, []models.RoundStatus{models.RoundPending}, models.RoundInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stopped, err := s.TransitionRound(ctx, r.ID, []models.RoundStatus{models.RoundInProgress}, models.RoundCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.RoundCompleted, stopped.Status)

	forced, err := s.TransitionRound(ctx, r.ID, nil, models.RoundInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.RoundInProgress, forced.Status)

	_, err = s.TransitionRound(ctx, 999, nil, models.RoundCompleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func contractRoundStudents(t *testing.T, s Storage) {
	ctx := context.Background()
	r := mustRound(t, s, "AM", models.OptionalID{})
	a := mustStudent(t, s, "A", models.OptionalID{})
	b := mustStudent(t, s, "B", models.OptionalID{})
	c := mustStudent(t, s, "C", models.OptionalID{})

	for _, in := range []models.NewRoundStudent{
		{RoundID: r.ID, StudentID: a.ID, Order: intPtr(2)},
		{RoundID: r.ID, StudentID: b.ID, Order: intPtr(0)},
		{RoundID: r.ID, StudentID: c.ID, Order: intPtr(2)},
	} {
		_, err := s.AssignStudentToRound(ctx, in)
		require.NoError(t, err)
	}

	_, err := s.AssignStudentToRound(ctx, models.NewRoundStudent{RoundID: r.ID, StudentID: a.ID, Order: intPtr(5)})
	assertConstraint(t, err, ErrConflict, "studentId")
	_, err = s.AssignStudentToRound(ctx, models.NewRoundStudent{RoundID: 999, StudentID: a.ID, Order: intPtr(5)})
	assertConstraint(t, err, ErrInvalidReference, "roundId")

	rows, err := s.ListRoundStudents(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, b.ID, *rows[0].StudentID)
	assert.Equal(t, a.ID, *rows[1].StudentID)
	assert.Equal(t, c.ID, *rows[2].StudentID)

	require.NoError(t, s.RemoveStudentFromRound(ctx, r.ID, a.ID))
	require.NoError(t, s.RemoveStudentFromRound(ctx, r.ID, a.ID))
	rows, err = s.ListRoundStudents(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, s.DeleteBusRound(ctx, r.ID))
	rows, err = s.ListRoundStudents(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func contractNotifications(t *testing.T, s Storage) {
	ctx := context.Background()
	parent := mustUser(t, s, "p", models.RoleParent)
	first, err := s.CreateNotification(ctx, models.NewNotification{Type: models.NotificationGeneral, Message: "one"})
	require.NoError(t, err)
	second, err := s.CreateNotification(ctx, models.NewNotification{Type: models.NotificationDelay, Message: "two", RecipientID: models.SomeID(parent.ID)})
	require.NoError(t, err)
	third, err := s.CreateNotification(ctx, models.NewNotification{Type: models.NotificationGeneral, Message: "three", RecipientID: models.SomeID(parent.ID)})
	require.NoError(t, err)

	all, err := s.ListNotifications(ctx, models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := s.ListNotifications(ctx, models.NotificationFilter{RecipientID: &parent.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	delay := models.NotificationDelay
	delays, err := s.ListNotifications(ctx, models.NotificationFilter{Type: &delay})
	require.NoError(t, err)
	require.Len(t, delays, 1)
	assert.Equal(t, second.ID, delays[0].ID)

	limited, err := s.ListNotifications(ctx, models.NotificationFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, third.ID, limited[0].ID)
}

func contractAbsences(t *testing.T, s Storage) {
	ctx := context.Background()
	reporter := mustUser(t, s, "r", models.RoleParent)
	a := mustStudent(t, s, "A", models.OptionalID{})
	b := mustStudent(t, s, "B", models.OptionalID{})

	first, err := s.RecordAbsence(ctx, models.NewAbsence{StudentID: a.ID, Date: "2024-01-10", Reason: strPtr("sick"), ReportedBy: models.SomeID(reporter.ID)})
	require.NoError(t, err)
	_, err = s.RecordAbsence(ctx, models.NewAbsence{StudentID: a.ID, Date: "2024-01-10"})
	require.NoError(t, err)
	_, err = s.RecordAbsence(ctx, models.NewAbsence{StudentID: b.ID, Date: "2024-01-11"})
	require.NoError(t, err)

	forA, err := s.ListAbsences(ctx, models.AbsenceFilter{StudentID: &a.ID, Date: "2024-01-10"})
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, first.ID, forA[0].ID)
	require.NotNil(t, forA[0].Reason)
	assert.Equal(t, "sick", *forA[0].Reason)
	assert.Nil(t, forA[1].Reason)

	onDay, err := s.ListAbsences(ctx, models.AbsenceFilter{Date: "2024-01-11"})
	require.NoError(t, err)
	assert.Len(t, onDay, 1)
}

func contractActivityLogs(t *testing.T, s Storage) {
	ctx := context.Background()
	admin := mustUser(t, s, "admin", models.RoleAdmin)
	_, err := s.LogActivity(ctx, models.NewActivityLog{Action: models.ActionCreateBus, Details: types.JSONText(`{"busId":1}`), UserID: &admin.ID})
	require.NoError(t, err)
	_, err = s.LogActivity(ctx, models.NewActivityLog{Action: models.ActionDeleteBus, Details: types.JSONText(`{"busId":1}`)})
	require.NoError(t, err)
	last, err := s.LogActivity(ctx, models.NewActivityLog{Action: models.ActionCreateBus, Details: types.JSONText(`{"busId":2}`), UserID: &admin.ID})
	require.NoError(t, err)

	logs, err := s.ListActivityLogs(ctx, models.ActivityLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, last.ID, logs[0].ID)

	var details map[string]int
	require.NoError(t, logs[0].Details.Unmarshal(&details))
	assert.Equal(t, 2, details["busId"])

	byAction, err := s.ListActivityLogs(ctx, models.ActivityLogFilter{Action: models.ActionCreateBus, UserID: &admin.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, last.ID, byAction[0].ID)
}

func contractDashboardStats(t *testing.T, s Storage) {
	ctx := context.Background()
	mustUser(t, s, "admin", models.RoleAdmin)
	mustUser(t, s, "p1", models.RoleParent)
	mustUser(t, s, "p2", models.RoleParent)
	mustUser(t, s, "d1", models.RoleDriver)
	mustStudent(t, s, "S1", models.OptionalID{})
	mustBus(t, s, "B1")
	mustBus(t, s, "B2")
	r := mustRound(t, s, "R1", models.OptionalID{})
	mustRound(t, s, "R2", models.OptionalID{})
	_, err := s.TransitionRound(ctx, r.ID, nil, models.RoundInProgress)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CreateNotification(ctx, models.NewNotification{Type: models.NotificationGeneral, Message: "n"})
		require.NoError(t, err)
	}

	stats, err := s.DashboardStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 2, stats.TotalParents)
	assert.Equal(t, 1, stats.TotalDrivers)
	assert.Equal(t, 2, stats.TotalBuses)
	assert.Equal(t, 1, stats.ActiveRounds)
	assert.Len(t, stats.RecentNotifications, 2)
}

func contractScenario(t *testing.T, s Storage) {
	ctx := context.Background()
	p1 := mustUser(t, s, "p1", models.RoleParent)
	st := mustStudent(t, s, "ST-1", models.SomeID(p1.ID))
	bus := mustBus(t, s, "101")
	round := mustRound(t, s, "AM-1", models.SomeID(bus.ID))

	_, err := s.AssignStudentToRound(ctx, models.NewRoundStudent{RoundID: round.ID, StudentID: st.ID, Order: intPtr(1)})
	require.NoError(t, err)
	rows, err := s.ListRoundStudents(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, st.ID, *rows[0].StudentID)

	_, err = s.TransitionRound(ctx, round.ID, []models.RoundStatus{models.RoundPending}, models.RoundInProgress)
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, models.NewNotification{
		Type: models.NotificationRoundStarted, Message: "AM-1 has started",
		RoundID: models.SomeID(round.ID), BusID: models.SomeID(bus.ID),
	})
	require.NoError(t, err)

	inProgress := models.RoundInProgress
	rounds, err := s.ListBusRounds(ctx, models.BusRoundFilter{Status: &inProgress})
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, round.ID, rounds[0].ID)

	notifications, err := s.ListNotifications(ctx, models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRoundStarted, notifications[0].Type)
	assert.Equal(t, round.ID, *notifications[0].RoundID)
}
