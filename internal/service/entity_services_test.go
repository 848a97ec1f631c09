package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	appErrors "github.com/noah-isme/schoolbus-api/pkg/errors"
)

func TestStudentServiceParentReference(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	spy := &recorderSpy{}
	svc := NewStudentService(store, spy, zap.NewNop())

	_, err := svc.Create(ctx, models.NewStudent{StudentID: "ST-1", FirstName: "A", LastName: "B", Grade: "1", ParentID: models.SomeID(42)}, 1)
	appErr := requireAppError(t, err, appErrors.ErrInvalidReference.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Equal(t, "parentId", appErr.Fields[0].Field)

	parent := seedUser(t, store, "p1", models.RoleParent)
	student, err := svc.Create(ctx, models.NewStudent{StudentID: "ST-1", FirstName: "A", LastName: "B", Grade: "1", ParentID: models.SomeID(parent.ID)}, 1)
	require.NoError(t, err)

	cleared, err := svc.Update(ctx, student.ID, models.StudentPatch{ParentID: models.NullID()}, 1)
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)
	assert.Equal(t, "ST-1", cleared.StudentID)

	assert.Equal(t, []string{models.ActionCreateStudent, models.ActionUpdateStudent}, spy.actions())
}

func TestStudentServiceListByParent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	parent := seedUser(t, store, "p1", models.RoleParent)
	svc := NewStudentService(store, nil, zap.NewNop())

	_, err := svc.Create(ctx, models.NewStudent{StudentID: "ST-1", FirstName: "A", LastName: "B", Grade: "1", ParentID: models.SomeID(parent.ID)}, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.NewStudent{StudentID: "ST-2", FirstName: "C", LastName: "D", Grade: "2"}, 0)
	require.NoError(t, err)

	students, err := svc.List(ctx, models.StudentFilter{ParentID: &parent.ID})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "ST-1", students[0].StudentID)
}

func TestBusServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	spy := &recorderSpy{}
	svc := NewBusService(store, spy, zap.NewNop())

	_, err := svc.Create(ctx, models.NewBus{BusNumber: "101", LicenseNumber: "L", Capacity: 0}, 1)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	bus, err := svc.Create(ctx, models.NewBus{BusNumber: "101", LicenseNumber: "L", Capacity: 30}, 1)
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.NewBus{BusNumber: "101", LicenseNumber: "L2", Capacity: 30}, 1)
	requireAppError(t, err, appErrors.ErrConflict.Code)

	unchanged, err := svc.Update(ctx, bus.ID, models.BusPatch{}, 1)
	require.NoError(t, err)
	assert.Equal(t, *bus, *unchanged)

	require.NoError(t, svc.Delete(ctx, bus.ID, 1))
	requireAppError(t, svc.Delete(ctx, bus.ID, 1), appErrors.ErrNotFound.Code)

	assert.Equal(t, []string{models.ActionCreateBus, models.ActionUpdateBus, models.ActionDeleteBus}, spy.actions())
}

func TestLocationServiceLatest(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	bus := seedBus(t, store, "7")
	spy := &recorderSpy{}
	svc := NewLocationService(store, spy, NewMetricsService(), zap.NewNop())

	_, err := svc.Latest(ctx, bus.ID)
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.Record(ctx, models.NewLocation{BusID: bus.ID, Latitude: "40.1", Longitude: "-74.1"}, 3)
	require.NoError(t, err)
	second, err := svc.Record(ctx, models.NewLocation{BusID: bus.ID, Latitude: "40.2", Longitude: "-74.2"}, 3)
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "40.2", latest.Latitude)

	_, err = svc.Record(ctx, models.NewLocation{BusID: bus.ID, Latitude: "91", Longitude: "0"}, 3)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Latest(ctx, 999)
	appErr := requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Equal(t, "bus not found", appErr.Message)

	assert.Equal(t, []string{models.ActionRecordLocation, models.ActionRecordLocation}, spy.actions())
}

func TestNotificationServiceDefaultsSender(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	admin := seedUser(t, store, "admin", models.RoleAdmin)
	parent := seedUser(t, store, "p1", models.RoleParent)
	spy := &recorderSpy{}
	svc := NewNotificationService(store, spy, zap.NewNop())

	n, err := svc.Send(ctx, models.NewNotification{Message: "Bus is late", RecipientID: models.SomeID(parent.ID)}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationGeneral, n.Type)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, admin.ID, *n.SenderID)

	explicit, err := svc.Send(ctx, models.NewNotification{Type: models.NotificationDelay, Message: "System", SenderID: models.NullID()}, admin.ID)
	require.NoError(t, err)
	assert.Nil(t, explicit.SenderID)

	forParent, err := svc.List(ctx, models.NotificationFilter{RecipientID: &parent.ID})
	require.NoError(t, err)
	require.Len(t, forParent, 1)
	assert.Equal(t, n.ID, forParent[0].ID)

	assert.Equal(t, models.ActionSendNotification, spy.last().Action)
}

func TestAbsenceServiceReporterDefaultsToActor(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStorage()
	parent := seedUser(t, store, "p1", models.RoleParent)
	student := seedStudent(t, store, "ST-1")
	spy := &recorderSpy{}
	svc := NewAbsenceService(store, spy, zap.NewNop())

	first, err := svc.Record(ctx, models.NewAbsence{StudentID: student.ID, Date: "2024-03-01", Reason: strPtr("flu")}, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReportedBy)
	assert.Equal(t, parent.ID, *first.ReportedBy)

	_, err = svc.Record(ctx, models.NewAbsence{StudentID: student.ID, Date: "2024-03-01"}, parent.ID)
	require.NoError(t, err)

	absences, err := svc.List(ctx, models.AbsenceFilter{StudentID: &student.ID, Date: "2024-03-01"})
	require.NoError(t, err)
	assert.Len(t, absences, 2)

	_, err = svc.Record(ctx, models.NewAbsence{StudentID: student.ID, Date: "03/01/2024"}, parent.ID)
	requireAppError(t, err, appErrors.ErrValidation.Code)

	assert.Equal(t, []string{models.ActionRecordAbsence, models.ActionRecordAbsence}, spy.actions())
}

func TestStorageErrorMapping(t *testing.T) {
	err := storageError(repository.ErrInvalidTransition, "bus round", "start bus round")
	requireAppError(t, err, appErrors.ErrInvalidTransition.Code)

	err = storageError(repository.ErrNotFound, "bus", "load bus")
	appErr := requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Equal(t, "bus not found", appErr.Message)
}
