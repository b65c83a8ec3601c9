package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/auth"
	"github.com/condo-admin/backend/internal/media"
	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/service"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/storage/models"
	"github.com/condo-admin/backend/internal/websocket"
)

const adminPassword = "admin-secret"

type testServer struct {
	handler http.Handler
	users   *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = storage.RunMigrations(db)
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	tokens, err := auth.NewTokens(strings.Repeat("k", 32), time.Hour)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	userRepo := storage.NewUserRepository(db)
	apartmentRepo := storage.NewApartmentRepository(db)
	notificationRepo := storage.NewNotificationRepository(db)
	broadcaster := websocket.NewEventBroadcaster(hub)
	notifier := notify.New(notificationRepo,
		notify.WithPublisher(broadcaster),
		notify.WithMetrics(notify.NewMetrics(registry)),
	)
	resolver := scope.NewResolver(apartmentRepo)
	images := media.NewMemoryStore()
	hasher := auth.NewHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})

	svc := Services{
		Users:         service.NewUserService(userRepo, hasher, tokens),
		Apartments:    service.NewApartmentService(apartmentRepo, userRepo, resolver, notifier),
		Guests:        service.NewGuestService(storage.NewGuestRepository(db), apartmentRepo, resolver, notifier),
		Payments:      service.NewPaymentService(storage.NewPaymentRepository(db), userRepo, apartmentRepo, resolver, notifier),
		Maintenance:   service.NewMaintenanceService(storage.NewMaintenanceRepository(db), userRepo, notifier),
		DamageReports: service.NewDamageReportService(storage.NewDamageReportRepository(db), apartmentRepo, userRepo, images, notifier),
		Notifications: service.NewNotificationService(notificationRepo, userRepo, notifier, broadcaster),
	}

	_, err = svc.Users.Create(context.Background(), service.CreateUserInput{
		RegisterInput: service.RegisterInput{
			Name:     "Admin",
			Email:    "admin@condo.test",
			Cedula:   "V-1",
			Password: adminPassword,
			Role:     models.RoleAdmin,
		},
	})
	require.NoError(t, err)

	router := NewRouter(Config{
		DB:       db,
		Hub:      hub,
		Media:    images,
		Tokens:   tokens,
		Accounts: userRepo,
		Registry: registry,
		Version:  "test",
	}, svc)
	return &testServer{handler: router, users: svc.Users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session service.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

// activeUser creates an active account through the admin API and logs it in.
func (s *testServer) activeUser(t *testing.T, adminToken, email, cedula string, role models.Role) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"name": email, "email": email, "cedula": cedula, "password": "secret-pw", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	return user.ID, s.login(t, email, "secret-pw")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db_connected":true`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	s.login(t, "ADMIN@condo.test", adminPassword)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@condo.test", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.ErrUnauthorized, decodeError(t, rec).Error)
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@condo.test", "pass": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, middleware.ErrBadRequest, decodeError(t, rec).Error)
}

func TestRegisteredUserWaitsForApproval(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Tina", "email": "tina@condo.test", "cedula": "V-2", "password": "tenant-pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, models.RoleTenant, user.Role)
	assert.Equal(t, models.UserStatusPending, user.Status)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "tina@condo.test", "password": "tenant-pw"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/users/"+user.ID, admin, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s.login(t, "tina@condo.test", "tenant-pw")
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)
	_, tenant := s.activeUser(t, admin, "tenant@condo.test", "V-3", models.RoleTenant)

	rec := s.do(t, http.MethodGet, "/api/users", tenant, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, middleware.ErrForbidden, decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPost, "/api/apartments", tenant, map[string]any{"tower": "1", "number": "101"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/auth/me", tenant, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant@condo.test")
}

func TestAccountChangesApplyToIssuedTokens(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)
	ownerID, owner := s.activeUser(t, admin, "demoted@condo.test", "V-8", models.RoleOwner)

	rec := s.do(t, http.MethodGet, "/api/apartments", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/users/"+ownerID, admin, map[string]any{"role": "tenant"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/apartments", owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/users/"+ownerID, admin, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/auth/me", owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/users/"+ownerID, admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodGet, "/api/auth/me", owner, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)

	rec := s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, middleware.ErrValidation, decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPost, "/api/guests/missing/check-in", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, middleware.ErrNotFound, decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "1", "number": "101"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "1", "number": "101"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAssignmentScopesOwnerAndNotifies(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)
	ownerID, owner := s.activeUser(t, admin, "owner@condo.test", "V-4", models.RoleOwner)

	rec := s.do(t, http.MethodGet, "/api/apartments", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "T1", "number": "101", "floor": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var apartment models.Apartment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apartment))
	s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "T1", "number": "102"})

	rec = s.do(t, http.MethodPut, "/api/apartments/"+apartment.ID+"/assignment", admin,
		map[string]any{"user_id": ownerID, "role": "owner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/apartments", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var visible []models.Apartment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&visible))
	require.Len(t, visible, 1)
	assert.Equal(t, apartment.ID, visible[0].ID)
	assert.Equal(t, models.ApartmentOwnerOccupied, visible[0].Status)

	rec = s.do(t, http.MethodGet, "/api/notifications/mine", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []models.Notification
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&inbox))
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "T1-101")
	assert.False(t, inbox[0].Read)

	rec = s.do(t, http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalendarDateBodies(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)
	tenantID, _ := s.activeUser(t, admin, "payer@condo.test", "V-6", models.RoleTenant)

	rec := s.do(t, http.MethodPost, "/api/payments", admin, map[string]any{
		"user_id": tenantID, "amount": 150, "due_date": "2025-03-01", "paid_date": "2025-02-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment models.PaymentDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payment))
	assert.Equal(t, models.PaymentPaid, payment.Status)
	assert.True(t, payment.DueDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

	rec = s.do(t, http.MethodPatch, "/api/payments/"+payment.ID, admin, map[string]any{"paid_date": "2025-03-05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"overdue"`)

	rec = s.do(t, http.MethodPost, "/api/apartments", admin, map[string]any{"tower": "T2", "number": "201"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var apartment models.Apartment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apartment))

	rec = s.do(t, http.MethodPost, "/api/guests", admin, map[string]any{
		"apartment_id": apartment.ID, "guest_name": "Ana", "guest_cedula": "V-77", "number_of_guests": 2,
		"check_in_date": "2025-03-12", "check_out_date": "2025-03-15",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/maintenance", admin, map[string]any{
		"title": "Pool cleaning", "area": "Pool", "scheduled_date": "2025-03-20",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/payments", admin, map[string]any{
		"user_id": tenantID, "amount": 10, "due_date": "01/03/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerWithoutApartmentsSeesNoPayments(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@condo.test", adminPassword)
	_, owner := s.activeUser(t, admin, "owner@condo.test", "V-5", models.RoleOwner)

	rec := s.do(t, http.MethodGet, "/api/payments", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/health", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "condo_http_requests_total")
}
