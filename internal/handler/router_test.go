package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	"github.com/noah-isme/schoolbus-api/internal/service"
)

type testAPI struct {
	router *gin.Engine
	store  *repository.MemoryStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zap.NewNop()

	store := repository.NewMemoryStorage()
	hash, err := service.HashPassword("admin-pass", bcrypt.MinCost)
	require.NoError(t, err)
	_, _, err = repository.EnsureAdmin(ctx, store, models.NewUser{
		Username: "admin",
		Password: hash,
		Email:    "admin@school.edu",
		FullName: "School Administrator",
	})
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	recorder := service.NewActivityRecorder(store, service.ActivityRecorderConfig{Workers: 1, Buffer: 64}, metrics, logger)
	recorder.Start(ctx)
	t.Cleanup(recorder.Stop)

	authSvc := service.NewAuthService(store, recorder, logger, service.AuthConfig{AccessTokenSecret: "test-secret"})
	users := service.NewUserService(store, recorder, logger)

	r := gin.New()
	RegisterRoutes(r, "/api", authSvc, Handlers{
		Auth:          NewAuthHandler(authSvc),
		Users:         NewUserHandler(users),
		Students:      NewStudentHandler(service.NewStudentService(store, recorder, logger)),
		Buses:         NewBusHandler(service.NewBusService(store, recorder, logger)),
		Rounds:        NewRoundHandler(service.NewRoundService(store, recorder, metrics, service.RoundServiceConfig{StrictTransitions: true}, logger)),
		Locations:     NewLocationHandler(service.NewLocationService(store, recorder, metrics, logger)),
		Notifications: NewNotificationHandler(service.NewNotificationService(store, recorder, logger)),
		Absences:      NewAbsenceHandler(service.NewAbsenceService(store, recorder, logger)),
		ActivityLogs:  NewActivityLogHandler(service.NewActivityLogService(store, nil, nil, logger)),
		Dashboard:     NewDashboardHandler(service.NewDashboardService(store, nil, service.DashboardServiceConfig{}, logger)),
		Metrics:       NewMetricsHandler(metrics, store, logger),
	})

	return &testAPI{router: r, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env responseEnvelope
	if rec.Code != http.StatusNoContent && rec.Header().Get("Content-Type") != "" && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func idOf(t *testing.T, env responseEnvelope) int64 {
	t.Helper()
	var body struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.NotZero(t, body.ID)
	return body.ID
}

func TestRoutesProbes(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec, _ := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodGet, "/api/buses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = api.do(t, http.MethodGet, "/api/buses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestRoutesRoundWorkflow(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "admin", "admin-pass")

	rec, env := api.do(t, http.MethodPost, "/api/buses", token, map[string]interface{}{
		"busNumber": "B-01", "licenseNumber": "NY-1234", "capacity": 40,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	busID := idOf(t, env)

	rec, env = api.do(t, http.MethodPost, "/api/bus-rounds", token, map[string]interface{}{
		"name": "Morning North", "type": "morning", "startTime": "07:00", "endTime": "08:00", "busId": busID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roundID := idOf(t, env)

	rec, env = api.do(t, http.MethodPost, fmt.Sprintf("/api/bus-rounds/%d/start", roundID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var round models.BusRound
	require.NoError(t, json.Unmarshal(env.Data, &round))
	assert.Equal(t, models.RoundInProgress, round.Status)

	rec, env = api.do(t, http.MethodPost, fmt.Sprintf("/api/bus-rounds/%d/start", roundID), token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	rec, env = api.do(t, http.MethodGet, "/api/notifications?type=round_started", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []models.Notification
	require.NoError(t, json.Unmarshal(env.Data, &notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, "Morning North has started", notifications[0].Message)
	require.NotNil(t, notifications[0].BusID)
	assert.Equal(t, busID, *notifications[0].BusID)

	rec, _ = api.do(t, http.MethodPost, fmt.Sprintf("/api/bus-rounds/%d/stop", roundID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(t, http.MethodGet, "/api/bus-rounds?status=completed", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta["count"])

	require.Eventually(t, func() bool {
		logs, err := api.store.ListActivityLogs(context.Background(), models.ActivityLogFilter{Action: models.ActionStopBusRound})
		return err == nil && len(logs) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRoutesLocations(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "admin", "admin-pass")

	rec, env := api.do(t, http.MethodPost, "/api/buses", token, map[string]interface{}{
		"busNumber": "B-02", "licenseNumber": "NY-5678", "capacity": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	busID := idOf(t, env)

	rec, _ = api.do(t, http.MethodGet, fmt.Sprintf("/api/buses/%d/locations", busID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/api/locations", token, map[string]interface{}{
		"busId": busID, "latitude": "40.712800", "longitude": "-74.006000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = api.do(t, http.MethodGet, fmt.Sprintf("/api/buses/%d/locations", busID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loc models.Location
	require.NoError(t, json.Unmarshal(env.Data, &loc))
	assert.Equal(t, "40.712800", loc.Latitude)

	rec, env = api.do(t, http.MethodPost, "/api/locations", token, map[string]interface{}{
		"busId": 999, "latitude": "40.7", "longitude": "-74.0",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_REFERENCE", env.Error.Code)
}

func TestRoutesRoleChecks(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin", "admin-pass")

	rec, env := api.do(t, http.MethodPost, "/api/users", admin, map[string]interface{}{
		"username": "parent1", "password": "parent-pass", "email": "p1@mail.com", "fullName": "Parent One", "role": "parent",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	parentID := idOf(t, env)
	assert.NotContains(t, rec.Body.String(), "parent-pass")

	parent := api.login(t, "parent1", "parent-pass")

	rec, _ = api.do(t, http.MethodGet, "/api/users", parent, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", parentID), parent, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/api/buses", parent, map[string]interface{}{"busNumber": "X", "licenseNumber": "Y", "capacity": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/activity-logs", parent, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = api.do(t, http.MethodGet, "/api/auth/me", parent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, models.RoleParent, me.Role)

	rec, _ = api.do(t, http.MethodGet, "/api/notifications", parent, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesDeleteMissingAndBadIDs(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "admin", "admin-pass")

	rec, _ := api.do(t, http.MethodDelete, "/api/students/42", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := api.do(t, http.MethodGet, "/api/buses/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRoutesDashboardAndExport(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "admin", "admin-pass")

	rec, env := api.do(t, http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.NotNil(t, stats.RecentNotifications)

	require.Eventually(t, func() bool {
		logs, err := api.store.ListActivityLogs(context.Background(), models.ActivityLogFilter{Action: models.ActionLogin})
		return err == nil && len(logs) == 1
	}, time.Second, 10*time.Millisecond)

	rec, _ = api.do(t, http.MethodGet, "/api/activity-logs/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), models.ActionLogin)

	rec, env = api.do(t, http.MethodGet, "/api/activity-logs/export?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
