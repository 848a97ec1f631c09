package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

// Storage sentinels shared by every backend.
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("unique constraint violated")
	ErrInvalidReference  = errors.New("referenced record does not exist")
	ErrInvalidTransition = errors.New("round status transition not allowed")
)

// ConstraintError ties a constraint sentinel to the JSON field that caused it.
type ConstraintError struct {
	Field string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func conflict(field string) error {
	return &ConstraintError{Field: field, Err: ErrConflict}
}

func invalidRef(field string) error {
	return &ConstraintError{Field: field, Err: ErrInvalidReference}
}

// Storage is the single persistence seam of the application. MemoryStorage
// and PostgresStorage must behave identically for every method.
//
// Get and Update return ErrNotFound for a missing id. Delete and
// RemoveStudentFromRound are idempotent. Update with an empty patch returns
// the current row. Passwords reaching CreateUser/UpdateUser are already hashed.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	CreateStudent(ctx context.Context, in models.NewStudent) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error

	GetBus(ctx context.Context, id int64) (*models.Bus, error)
	ListBuses(ctx context.Context) ([]models.Bus, error)
	CreateBus(ctx context.Context, in models.NewBus) (*models.Bus, error)
	UpdateBus(ctx context.Context, id int64, patch models.BusPatch) (*models.Bus, error)
	DeleteBus(ctx context.Context, id int64) error

	GetBusRound(ctx context.Context, id int64) (*models.BusRound, error)
	ListBusRounds(ctx context.Context, filter models.BusRoundFilter) ([]models.BusRound, error)
	CreateBusRound(ctx context.Context, in models.NewBusRound) (*models.BusRound, error)
	UpdateBusRound(ctx context.Context, id int64, patch models.BusRoundPatch) (*models.BusRound, error)
	DeleteBusRound(ctx context.Context, id int64) error
	// TransitionRound moves a round to status `to` in one conditional write.
	// When from is non-empty the current status must be one of from,
	// otherwise ErrInvalidTransition is returned and nothing changes.
	TransitionRound(ctx context.Context, id int64, from []models.RoundStatus, to models.RoundStatus) (*models.BusRound, error)

	ListRoundStudents(ctx context.Context, roundID int64) ([]models.RoundStudent, error)
	AssignStudentToRound(ctx context.Context, in models.NewRoundStudent) (*models.RoundStudent, error)
	RemoveStudentFromRound(ctx context.Context, roundID, studentID int64) error

	RecordLocation(ctx context.Context, in models.NewLocation) (*models.Location, error)
	GetLatestBusLocation(ctx context.Context, busID int64) (*models.Location, error)

	CreateNotification(ctx context.Context, in models.NewNotification) (*models.Notification, error)
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)

	RecordAbsence(ctx context.Context, in models.NewAbsence) (*models.Absence, error)
	ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error)

	LogActivity(ctx context.Context, in models.NewActivityLog) (*models.ActivityLog, error)
	ListActivityLogs(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error)

	DashboardStats(ctx context.Context, recentNotifications int) (*models.DashboardStats, error)
}

// EnsureAdmin creates the bootstrap admin unless a user with the same
// username already exists. The password must already be hashed.
func EnsureAdmin(ctx context.Context, store Storage, admin models.NewUser) (*models.User, bool, error) {
	existing, err := store.GetUserByUsername(ctx, admin.Username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	admin.Role = models.RoleAdmin
	created, err := store.CreateUser(ctx, admin)
	if err != nil {
		return nil, false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	return created, true, nil
}
