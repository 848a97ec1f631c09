package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

const (
	userColumns         = `id, username, password, email, full_name, phone, role, created_at`
	studentColumns      = `id, student_id, first_name, last_name, grade, parent_id, created_at`
	busColumns          = `id, bus_number, license_number, capacity, driver_id, created_at`
	roundColumns        = `id, name, type, start_time, end_time, bus_id, status, created_at`
	roundStudentColumns = `id, round_id, student_id, "order", created_at`
	locationColumns     = `id, bus_id, latitude, longitude, timestamp`
	notificationColumns = `id, type, message, round_id, bus_id, student_id, sender_id, recipient_id, timestamp`
	absenceColumns      = `id, student_id, date, reason, reported_by, created_at`
	activityLogColumns  = `id, action, details, user_id, timestamp`
)

// constraintFields maps schema constraint names to the JSON field reported
// back to clients.
var constraintFields = map[string]string{
	"users_username_key":               "username",
	"students_student_id_key":          "studentId",
	"students_parent_id_fkey":          "parentId",
	"buses_bus_number_key":             "busNumber",
	"buses_driver_id_fkey":             "driverId",
	"bus_rounds_bus_id_fkey":           "busId",
	"round_students_round_student_key": "studentId",
	"round_students_round_id_fkey":     "roundId",
	"round_students_student_id_fkey":   "studentId",
	"locations_bus_id_fkey":            "busId",
	"notifications_round_id_fkey":      "roundId",
	"notifications_bus_id_fkey":        "busId",
	"notifications_student_id_fkey":    "studentId",
	"notifications_sender_id_fkey":     "senderId",
	"notifications_recipient_id_fkey":  "recipientId",
	"absences_student_id_fkey":         "studentId",
	"absences_reported_by_fkey":        "reportedBy",
	"activity_logs_user_id_fkey":       "userId",
}

// PostgresStorage persists every entity in PostgreSQL through sqlx.
type PostgresStorage struct {
	db *sqlx.DB
}

// NewPostgresStorage wraps an open connection pool.
func NewPostgresStorage(db *sqlx.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Ping checks database connectivity.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// translate maps driver errors onto the storage sentinels.
func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		field := constraintFields[pqErr.Constraint]
		switch pqErr.Code {
		case "23505":
			return conflict(field)
		case "23503":
			return invalidRef(field)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// setClause accumulates assignments for a partial UPDATE.
type setClause struct {
	parts []string
	args  []interface{}
}

func (c *setClause) add(column string, value interface{}) {
	c.args = append(c.args, value)
	c.parts = append(c.parts, fmt.Sprintf("%s = $%d", column, len(c.args)))
}

func (c *setClause) empty() bool { return len(c.parts) == 0 }

// whereClause accumulates equality conditions for list queries.
type whereClause struct {
	conditions []string
	args       []interface{}
}

func (w *whereClause) eq(column string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

func (w *whereClause) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// updateReturning runs UPDATE table SET ... WHERE id = $n RETURNING columns.
func (s *PostgresStorage) updateReturning(ctx context.Context, dest interface{}, table, columns string, id int64, set *setClause) error {
	args := append(set.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s", table, strings.Join(set.parts, ", "), len(args), columns)
	return s.db.GetContext(ctx, dest, query, args...)
}

func (s *PostgresStorage) deleteByID(ctx context.Context, table string, id int64) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// Users

func (s *PostgresStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, translate("get user", err)
	}
	return &u, nil
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username); err != nil {
		return nil, translate("get user by username", err)
	}
	return &u, nil
}

func (s *PostgresStorage) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var w whereClause
	if filter.Role != nil {
		w.eq("role", *filter.Role)
	}
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStorage) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	const query = `INSERT INTO users (username, password, email, full_name, phone, role) VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + userColumns
	var u models.User
	if err := s.db.GetContext(ctx, &u, query, in.Username, in.Password, in.Email, in.FullName, in.Phone, in.Role); err != nil {
		return nil, translate("create user", err)
	}
	return &u, nil
}

func (s *PostgresStorage) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	var set setClause
	if patch.Username != nil {
		set.add("username", *patch.Username)
	}
	if patch.Password != nil {
		set.add("password", *patch.Password)
	}
	if patch.Email != nil {
		set.add("email", *patch.Email)
	}
	if patch.FullName != nil {
		set.add("full_name", *patch.FullName)
	}
	if patch.Phone != nil {
		var phone *string
		if *patch.Phone != "" {
			phone = patch.Phone
		}
		set.add("phone", phone)
	}
	if patch.Role != nil {
		set.add("role", *patch.Role)
	}
	if set.empty() {
		return s.GetUser(ctx, id)
	}
	var u models.User
	if err := s.updateReturning(ctx, &u, "users", userColumns, id, &set); err != nil {
		return nil, translate("update user", err)
	}
	return &u, nil
}

func (s *PostgresStorage) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}

// Students

func (s *PostgresStorage) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var st models.Student
	if err := s.db.GetContext(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id); err != nil {
		return nil, translate("get student", err)
	}
	return &st, nil
}

func (s *PostgresStorage) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var w whereClause
	if filter.ParentID != nil {
		w.eq("parent_id", *filter.ParentID)
	}
	students := []models.Student{}
	if err := s.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM students`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *PostgresStorage) CreateStudent(ctx context.Context, in models.NewStudent) (*models.Student, error) {
	const query = `INSERT INTO students (student_id, first_name, last_name, grade, parent_id) VALUES ($1, $2, $3, $4, $5) RETURNING ` + studentColumns
	var st models.Student
	if err := s.db.GetContext(ctx, &st, query, in.StudentID, in.FirstName, in.LastName, in.Grade, in.ParentID.Ptr()); err != nil {
		return nil, translate("create student", err)
	}
	return &st, nil
}

func (s *PostgresStorage) UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	var set setClause
	if patch.StudentID != nil {
		set.add("student_id", *patch.StudentID)
	}
	if patch.FirstName != nil {
		set.add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set.add("last_name", *patch.LastName)
	}
	if patch.Grade != nil {
		set.add("grade", *patch.Grade)
	}
	if patch.ParentID.Set {
		set.add("parent_id", patch.ParentID.Ptr())
	}
	if set.empty() {
		return s.GetStudent(ctx, id)
	}
	var st models.Student
	if err := s.updateReturning(ctx, &st, "students", studentColumns, id, &set); err != nil {
		return nil, translate("update student", err)
	}
	return &st, nil
}

func (s *PostgresStorage) DeleteStudent(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "students", id)
}

// Buses

func (s *PostgresStorage) GetBus(ctx context.Context, id int64) (*models.Bus, error) {
	var b models.Bus
	if err := s.db.GetContext(ctx, &b, `SELECT `+busColumns+` FROM buses WHERE id = $1`, id); err != nil {
		return nil, translate("get bus", err)
	}
	return &b, nil
}

func (s *PostgresStorage) ListBuses(ctx context.Context) ([]models.Bus, error) {
	buses := []models.Bus{}
	if err := s.db.SelectContext(ctx, &buses, `SELECT `+busColumns+` FROM buses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	return buses, nil
}

func (s *PostgresStorage) CreateBus(ctx context.Context, in models.NewBus) (*models.Bus, error) {
	const query = `INSERT INTO buses (bus_number, license_number, capacity, driver_id) VALUES ($1, $2, $3, $4) RETURNING ` + busColumns
	var b models.Bus
	if err := s.db.GetContext(ctx, &b, query, in.BusNumber, in.LicenseNumber, in.Capacity, in.DriverID.Ptr()); err != nil {
		return nil, translate("create bus", err)
	}
	return &b, nil
}

func (s *PostgresStorage) UpdateBus(ctx context.Context, id int64, patch models.BusPatch) (*models.Bus, error) {
	var set setClause
	if patch.BusNumber != nil {
		set.add("bus_number", *patch.BusNumber)
	}
	if patch.LicenseNumber != nil {
		set.add("license_number", *patch.LicenseNumber)
	}
	if patch.Capacity != nil {
		set.add("capacity", *patch.Capacity)
	}
	if patch.DriverID.Set {
		set.add("driver_id", patch.DriverID.Ptr())
	}
	if set.empty() {
		return s.GetBus(ctx, id)
	}
	var b models.Bus
	if err := s.updateReturning(ctx, &b, "buses", busColumns, id, &set); err != nil {
		return nil, translate("update bus", err)
	}
	return &b, nil
}

func (s *PostgresStorage) DeleteBus(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "buses", id)
}

// Bus rounds

func (s *PostgresStorage) GetBusRound(ctx context.Context, id int64) (*models.BusRound, error) {
	var r models.BusRound
	if err := s.db.GetContext(ctx, &r, `SELECT `+roundColumns+` FROM bus_rounds WHERE id = $1`, id); err != nil {
		return nil, translate("get bus round", err)
	}
	return &r, nil
}

func (s *PostgresStorage) ListBusRounds(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error) {
	var w whereClause
	if filter.Status != nil {
		w.eq("status", *filter.Status)
	}
	if filter.BusID != nil {
		w.eq("bus_id", *filter.BusID)
	}
	rounds := []models.BusRound{}
	if err := s.db.SelectContext(ctx, &rounds, `SELECT `+roundColumns+` FROM bus_rounds`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, fmt.Errorf("list bus rounds: %w", err)
	}
	return rounds, nil
}

func (s *PostgresStorage) CreateBusRound(ctx context.Context, in models.NewBusRound) (*models.BusRound, error) {
	const query = `INSERT INTO bus_rounds (name, type, start_time, end_time, bus_id, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + roundColumns
	var r models.BusRound
	if err := s.db.GetContext(ctx, &r, query, in.Name, in.Type, in.StartTime, in.EndTime, in.BusID.Ptr(), in.Status); err != nil {
		return nil, translate("create bus round", err)
	}
	return &r, nil
}

func (s *PostgresStorage) UpdateBusRound(ctx context.Context, id int64, patch models.BusRoundPatch) (*models.BusRound, error) {
	var set setClause
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Type != nil {
		set.add("type", *patch.Type)
	}
	if patch.StartTime != nil {
		set.add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		set.add("end_time", *patch.EndTime)
	}
	if patch.BusID.Set {
		set.add("bus_id", patch.BusID.Ptr())
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if set.empty() {
		return s.GetBusRound(ctx, id)
	}
	var r models.BusRound
	if err := s.updateReturning(ctx, &r, "bus_rounds", roundColumns, id, &set); err != nil {
		return nil, translate("update bus round", err)
	}
	return &r, nil
}

func (s *PostgresStorage) DeleteBusRound(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "bus_rounds", id)
}

func (s *PostgresStorage) TransitionRound(ctx context.Context, id int64, from []models.RoundStatus, to models.RoundStatus) (*models.BusRound, error) {
	query := `UPDATE bus_rounds SET status = $1 WHERE id = $2`
	args := []interface{}{to, id}
	if len(from) > 0 {
		allowed := make([]string, len(from))
		for i, st := range from {
			allowed[i] = string(st)
		}
		query += ` AND status = ANY($3)`
		args = append(args, pq.Array(allowed))
	}
	query += ` RETURNING ` + roundColumns

	var r models.BusRound
	err := s.db.GetContext(ctx, &r, query, args...)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, translate("transition bus round", err)
	}
	if _, getErr := s.GetBusRound(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInvalidTransition
}

// Round students

func (s *PostgresStorage) ListRoundStudents(ctx context.Context, roundID int64) ([]models.RoundStudent, error) {
	rows := []models.RoundStudent{}
	query := `SELECT ` + roundStudentColumns + ` FROM round_students WHERE round_id = $1 ORDER BY "order", id`
	if err := s.db.SelectContext(ctx, &rows, query, roundID); err != nil {
		return nil, fmt.Errorf("list round students: %w", err)
	}
	return rows, nil
}

func (s *PostgresStorage) AssignStudentToRound(ctx context.Context, in models.NewRoundStudent) (*models.RoundStudent, error) {
	const query = `INSERT INTO round_students (round_id, student_id, "order") VALUES ($1, $2, $3) RETURNING ` + roundStudentColumns
	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	var rs models.RoundStudent
	if err := s.db.GetContext(ctx, &rs, query, in.RoundID, in.StudentID, order); err != nil {
		return nil, translate("assign student to round", err)
	}
	return &rs, nil
}

func (s *PostgresStorage) RemoveStudentFromRound(ctx context.Context, roundID, studentID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM round_students WHERE round_id = $1 AND student_id = $2`, roundID, studentID); err != nil {
		return fmt.Errorf("remove student from round: %w", err)
	}
	return nil
}

// Locations

func (s *PostgresStorage) RecordLocation(ctx context.Context, in models.NewLocation) (*models.Location, error) {
	const query = `INSERT INTO locations (bus_id, latitude, longitude) VALUES ($1, $2, $3) RETURNING ` + locationColumns
	var l models.Location
	if err := s.db.GetContext(ctx, &l, query, in.BusID, in.Latitude, in.Longitude); err != nil {
		return nil, translate("record location", err)
	}
	return &l, nil
}

func (s *PostgresStorage) GetLatestBusLocation(ctx context.Context, busID int64) (*models.Location, error) {
	const query = `SELECT ` + locationColumns + ` FROM locations WHERE bus_id = $1 ORDER BY timestamp DESC, id DESC LIMIT 1`
	var l models.Location
	if err := s.db.GetContext(ctx, &l, query, busID); err != nil {
		return nil, translate("latest bus location", err)
	}
	return &l, nil
}

// Notifications

func (s *PostgresStorage) CreateNotification(ctx context.Context, in models.NewNotification) (*models.Notification, error) {
	const query = `INSERT INTO notifications (type, message, round_id, bus_id, student_id, sender_id, recipient_id) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + notificationColumns
	var n models.Notification
	err := s.db.GetContext(ctx, &n, query, in.Type, in.Message,
		in.RoundID.Ptr(), in.BusID.Ptr(), in.StudentID.Ptr(), in.SenderID.Ptr(), in.RecipientID.Ptr())
	if err != nil {
		return nil, translate("create notification", err)
	}
	return &n, nil
}

func (s *PostgresStorage) ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	var w whereClause
	if filter.RecipientID != nil {
		w.eq("recipient_id", *filter.RecipientID)
	}
	if filter.Type != nil {
		w.eq("type", *filter.Type)
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	notifications := []models.Notification{}
	if err := s.db.SelectContext(ctx, &notifications, query, w.args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// Absences

func (s *PostgresStorage) RecordAbsence(ctx context.Context, in models.NewAbsence) (*models.Absence, error) {
	const query = `INSERT INTO absences (student_id, date, reason, reported_by) VALUES ($1, $2, $3, $4) RETURNING ` + absenceColumns
	var a models.Absence
	if err := s.db.GetContext(ctx, &a, query, in.StudentID, in.Date, in.Reason, in.ReportedBy.Ptr()); err != nil {
		return nil, translate("record absence", err)
	}
	return &a, nil
}

func (s *PostgresStorage) ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error) {
	var w whereClause
	if filter.StudentID != nil {
		w.eq("student_id", *filter.StudentID)
	}
	if filter.Date != "" {
		w.eq("date", filter.Date)
	}
	absences := []models.Absence{}
	if err := s.db.SelectContext(ctx, &absences, `SELECT `+absenceColumns+` FROM absences`+w.String()+` ORDER BY id`, w.args...); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// Activity logs

func (s *PostgresStorage) LogActivity(ctx context.Context, in models.NewActivityLog) (*models.ActivityLog, error) {
	const query = `INSERT INTO activity_logs (action, details, user_id) VALUES ($1, $2, $3) RETURNING ` + activityLogColumns
	details := in.Details
	if len(details) == 0 {
		details = types.JSONText("{}")
	}
	var l models.ActivityLog
	if err := s.db.GetContext(ctx, &l, query, in.Action, details, in.UserID); err != nil {
		return nil, translate("log activity", err)
	}
	return &l, nil
}

func (s *PostgresStorage) ListActivityLogs(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error) {
	var w whereClause
	if filter.UserID != nil {
		w.eq("user_id", *filter.UserID)
	}
	if filter.Action != "" {
		w.eq("action", filter.Action)
	}
	query := `SELECT ` + activityLogColumns + ` FROM activity_logs` + w.String() + ` ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	logs := []models.ActivityLog{}
	if err := s.db.SelectContext(ctx, &logs, query, w.args...); err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}

// Dashboard

func (s *PostgresStorage) DashboardStats(ctx context.Context, recent int) (*models.DashboardStats, error) {
	const countsQuery = `SELECT
		(SELECT COUNT(*) FROM students) AS total_students,
		(SELECT COUNT(*) FROM users WHERE role = 'parent') AS total_parents,
		(SELECT COUNT(*) FROM users WHERE role = 'driver') AS total_drivers,
		(SELECT COUNT(*) FROM buses) AS total_buses,
		(SELECT COUNT(*) FROM bus_rounds WHERE status = 'in_progress') AS active_rounds`

	var counts struct {
		TotalStudents int `db:"total_students"`
		TotalParents  int `db:"total_parents"`
		TotalDrivers  int `db:"total_drivers"`
		TotalBuses    int `db:"total_buses"`
		ActiveRounds  int `db:"active_rounds"`
	}
	if err := s.db.GetContext(ctx, &counts, countsQuery); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	stats := &models.DashboardStats{
		TotalStudents:       counts.TotalStudents,
		TotalParents:        counts.TotalParents,
		TotalDrivers:        counts.TotalDrivers,
		TotalBuses:          counts.TotalBuses,
		ActiveRounds:        counts.ActiveRounds,
		RecentNotifications: []models.Notification{},
	}
	if recent > 0 {
		recentRows, err := s.ListNotifications(ctx, models.NotificationFilter{Limit: recent})
		if err != nil {
			return nil, err
		}
		stats.RecentNotifications = recentRows
	}
	return stats, nil
}
