package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

type recordedActivity struct {
	ActorID int64
	Action  string
	Details map[string]interface{}
}

// recorderSpy captures audit entries synchronously.
type recorderSpy struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (r *recorderSpy) Record(actorID int64, action string, details map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedActivity{ActorID: actorID, Action: action, Details: details})
}

func (r *recorderSpy) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *recorderSpy) last() recordedActivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return recordedActivity{}
	}
	return r.entries[len(r.entries)-1]
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func seedUser(t *testing.T, store repository.Storage, username string, role models.UserRole) *models.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), models.NewUser{
		Username: username,
		Password: "hashed",
		Email:    username + "@school.edu",
		FullName: "User " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func seedBus(t *testing.T, store repository.Storage, number string) *models.Bus {
	t.Helper()
	b, err := store.CreateBus(context.Background(), models.NewBus{BusNumber: number, LicenseNumber: "LIC-" + number, Capacity: 40})
	require.NoError(t, err)
	return b
}

func seedStudent(t *testing.T, store repository.Storage, code string) *models.Student {
	t.Helper()
	st, err := store.CreateStudent(context.Background(), models.NewStudent{StudentID: code, FirstName: "First", LastName: "Last", Grade: "5"})
	require.NoError(t, err)
	return st
}

func seedRound(t *testing.T, store repository.Storage, name string, busID *int64) *models.BusRound {
	t.Helper()
	bus := models.OptionalID{}
	if busID != nil {
		bus = models.SomeID(*busID)
	}
	r, err := store.CreateBusRound(context.Background(), models.NewBusRound{
		Name: name, Type: models.RoundMorning, StartTime: "07:00", EndTime: "08:00", BusID: bus, Status: models.RoundPending,
	})
	require.NoError(t, err)
	return r
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
