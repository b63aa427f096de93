package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dpaiva-dev/frequencia-api/internal/middleware"
	"github.com/dpaiva-dev/frequencia-api/internal/models"
	"github.com/dpaiva-dev/frequencia-api/internal/repository"
	"github.com/dpaiva-dev/frequencia-api/internal/service"
	"github.com/dpaiva-dev/frequencia-api/pkg/response"
	"github.com/dpaiva-dev/frequencia-api/pkg/tablestore"
)

type testEnv struct {
	router *gin.Engine

	classID    string
	studentIDs []string
	tokens     map[models.UserRole]string
}

// newTestEnv wires the full HTTP surface over an in-memory store, seeds one
// class with two students and one account per role, and pre-issues tokens.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := tablestore.NewMemoryStore()
	rosterRepo := repository.NewRosterRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store, rosterRepo)
	userRepo := repository.NewUserRepository(store)

	ctx := context.Background()
	class, err := rosterRepo.CreateClass(ctx, "1A")
	require.NoError(t, err)
	var studentIDs []string
	for _, name := range []string{"Ana Souza", "Bruno Oliveira"} {
		student, err := rosterRepo.CreateStudent(ctx, name, class.ID)
		require.NoError(t, err)
		studentIDs = append(studentIDs, student.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	roles := []models.UserRole{models.RoleAdmin, models.RoleTeacher, models.RoleCoordinator, models.RoleAgent}
	userIDs := make(map[models.UserRole]string, len(roles))
	for _, role := range roles {
		user, err := userRepo.Create(ctx, models.User{
			Username:     "user_" + string(role),
			PasswordHash: string(hash),
			FullName:     string(role),
			Role:         role,
			Active:       true,
		})
		require.NoError(t, err)
		userIDs[role] = user.ID
	}

	authSvc := service.NewAuthService(userRepo, nil, nil, service.AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, rosterRepo, nil, nil)
	analyticsSvc := service.NewAnalyticsService(attendanceRepo, rosterRepo, nil, nil, nil)
	rosterSvc := service.NewRosterService(rosterRepo, nil, nil)
	exportSvc := service.NewExportService(attendanceRepo, rosterRepo, nil)

	authHandler := NewAuthHandler(authSvc)
	attendanceHandler := NewAttendanceHandler(attendanceSvc)
	analyticsHandler := NewAnalyticsHandler(analyticsSvc)
	rosterHandler := NewRosterHandler(rosterSvc)
	exportHandler := NewExportHandler(exportSvc)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/classes", rosterHandler.ListClasses)
	authed.POST("/classes", middleware.RequireRoles(), rosterHandler.CreateClass)
	authed.GET("/classes/:classID/attendance", middleware.RequireRoles(models.RoleTeacher, models.RoleCoordinator), attendanceHandler.Sheet)
	authed.PUT("/classes/:classID/attendance", middleware.RequireRoles(models.RoleTeacher), attendanceHandler.Submit)
	authed.GET("/attendance", attendanceHandler.Records)
	analytics := authed.Group("/analytics", middleware.RequireRoles(models.RoleCoordinator, models.RoleAgent))
	analytics.GET("/presence-rate", analyticsHandler.PresenceRate)
	analytics.GET("/ranking", analyticsHandler.Ranking)
	analytics.GET("/coverage", analyticsHandler.Coverage)
	authed.GET("/exports/attendance.csv", middleware.RequireRoles(models.RoleAgent, models.RoleCoordinator), exportHandler.MonthlyCSV)

	tokens := make(map[models.UserRole]string, len(roles))
	for _, role := range roles {
		resp, err := authSvc.Login(ctx, models.LoginRequest{Username: "user_" + string(role), Password: "password123"})
		require.NoError(t, err)
		tokens[role] = resp.AccessToken
	}

	return &testEnv{
		router:     r,
		classID:    class.ID,
		studentIDs: studentIDs,
		tokens:     tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, role models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if len(envelope.Data) == 0 {
		// Empty result sets are omitted from the envelope.
		return
	}
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func submitSheet(t *testing.T, env *testEnv, date string, entries []models.AttendanceEntry) {
	t.Helper()
	w := env.do(t, http.MethodPut, "/api/v1/classes/"+env.classID+"/attendance", models.SubmitAttendanceRequest{
		Date:    date,
		Entries: entries,
	}, models.RoleTeacher)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Username: "user_TEACHER",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login models.LoginResponse
	decodeData(t, w, &login)
	require.NotEmpty(t, login.AccessToken)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.UserInfo
	decodeData(t, rec, &info)
	assert.Equal(t, models.RoleTeacher, info.Role)
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Username: "user_TEACHER",
		Password: "nope",
	}, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/classes", nil, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitAndReadSheet(t *testing.T) {
	env := newTestEnv(t)

	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "PRESENT"},
		{StudentID: env.studentIDs[1], Status: "ABSENT", Justification: "illness"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/classes/"+env.classID+"/attendance?date=2025-03-03", nil, models.RoleTeacher)
	require.Equal(t, http.StatusOK, w.Code)

	var sheet models.ClassSheet
	decodeData(t, w, &sheet)
	require.Len(t, sheet.Entries, 2)
	assert.True(t, sheet.Entries[0].Recorded)
	assert.Equal(t, models.AttendanceStatusAbsent, sheet.Entries[1].Status)
	assert.Equal(t, models.JustificationIllness, sheet.Entries[1].Justification)
}

func TestResubmitReplacesSheet(t *testing.T) {
	env := newTestEnv(t)

	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "ABSENT", Justification: "other"},
		{StudentID: env.studentIDs[1], Status: "ABSENT", Justification: "other"},
	})
	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "PRESENT"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/attendance?date_from=2025-03-03&date_to=2025-03-03", nil, models.RoleTeacher)
	require.Equal(t, http.StatusOK, w.Code)

	var records []models.AttendanceRecordDetail
	decodeData(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, env.studentIDs[0], records[0].StudentID)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
}

func TestSubmitRejectsStudentOutsideClass(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/v1/classes/"+env.classID+"/attendance", models.SubmitAttendanceRequest{
		Date:    "2025-03-03",
		Entries: []models.AttendanceEntry{{StudentID: "ghost", Status: "PRESENT"}},
	}, models.RoleTeacher)

	require.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing was written.
	rec := env.do(t, http.MethodGet, "/api/v1/attendance", nil, models.RoleTeacher)
	var records []models.AttendanceRecordDetail
	decodeData(t, rec, &records)
	assert.Empty(t, records)
}

func TestSubmitForbiddenForAgent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/v1/classes/"+env.classID+"/attendance", models.SubmitAttendanceRequest{
		Date:    "2025-03-03",
		Entries: []models.AttendanceEntry{{StudentID: env.studentIDs[0], Status: "PRESENT"}},
	}, models.RoleAgent)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateClassAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/classes", models.CreateClassRequest{Name: "2B"}, models.RoleTeacher)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/classes", models.CreateClassRequest{Name: "2B"}, models.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestPresenceRateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "PRESENT"},
		{StudentID: env.studentIDs[1], Status: "ABSENT", Justification: "family"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/analytics/presence-rate", nil, models.RoleCoordinator)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.PresenceRateResult
	decodeData(t, w, &result)
	assert.Equal(t, 1, result.PresentCount)
	assert.Equal(t, 1, result.AbsentCount)
	assert.InDelta(t, 0.5, result.PresenceRate, 1e-9)
}

func TestPresenceRateEmptyDatasetIsZero(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/analytics/presence-rate", nil, models.RoleCoordinator)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.PresenceRateResult
	decodeData(t, w, &result)
	assert.Zero(t, result.PresenceRate)
}

func TestRankingEndpointValidatesEntity(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/analytics/ranking?entity=teacher", nil, models.RoleCoordinator)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoverageEndpoint(t *testing.T) {
	env := newTestEnv(t)

	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "PRESENT"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/analytics/coverage?class_id="+env.classID+"&month=2025-03", nil, models.RoleCoordinator)
	require.Equal(t, http.StatusOK, w.Code)

	var coverage models.CalendarCoverage
	decodeData(t, w, &coverage)
	assert.Equal(t, []string{"2025-03-03"}, coverage.RecordedDates)
}

func TestCSVExportEndpoint(t *testing.T) {
	env := newTestEnv(t)

	submitSheet(t, env, "2025-03-03", []models.AttendanceEntry{
		{StudentID: env.studentIDs[0], Status: "PRESENT"},
	})

	w := env.do(t, http.MethodGet, "/api/v1/exports/attendance.csv?class_id="+env.classID+"&month=2025-03", nil, models.RoleAgent)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Ana Souza")
}

func TestCSVExportForbiddenForTeacher(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/exports/attendance.csv?class_id="+env.classID, nil, models.RoleTeacher)

	require.Equal(t, http.StatusForbidden, w.Code)
}
