// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/condo-admin/backend/internal/api/handlers"
	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/media"
	"github.com/condo-admin/backend/internal/service"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/storage/models"
	"github.com/condo-admin/backend/internal/websocket"
)

// Services groups the application services the handlers call.
type Services struct {
	Users         *service.UserService
	Apartments    *service.ApartmentService
	Guests        *service.GuestService
	Payments      *service.PaymentService
	Maintenance   *service.MaintenanceService
	DamageReports *service.DamageReportService
	Notifications *service.NotificationService
}

// Config holds everything the router needs besides the services.
type Config struct {
	DB             *storage.DB
	Hub            *websocket.Hub
	Media          media.Store
	Tokens         middleware.TokenVerifier
	Accounts       middleware.AccountLookup
	Registry       *prometheus.Registry
	StaticDir      string
	Version        string
	RequestTimeout time.Duration
	Settings       handlers.SettingsResponse
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(cfg Config, svc Services) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)
	if cfg.Registry != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware)
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	api := r.PathPrefix("/api").Subrouter()

	// Public endpoints
	api.HandleFunc("/health", handlers.HealthCheck(cfg.DB, cfg.Version)).Methods("GET")
	api.HandleFunc("/auth/login", handlers.Login(svc.Users)).Methods("POST")
	api.HandleFunc("/auth/register", handlers.Register(svc.Users)).Methods("POST")

	// Everything else requires a bearer token
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Authenticate(cfg.Tokens, cfg.Accounts))

	admin := middleware.RequireRoles(models.RoleAdmin)
	roles := middleware.RequireRoles

	authed.HandleFunc("/ws", handlers.WebSocketUpgrade(cfg.Hub)).Methods("GET")
	authed.Handle("/status", admin(handlers.Status(cfg.DB, cfg.Hub))).Methods("GET")
	authed.Handle("/settings", admin(handlers.GetSettings(cfg.Settings))).Methods("GET")

	// Account endpoints
	authed.HandleFunc("/auth/me", handlers.Me(svc.Users)).Methods("GET")
	authed.HandleFunc("/auth/password", handlers.ChangePassword(svc.Users)).Methods("POST")
	authed.Handle("/users", admin(handlers.ListUsers(svc.Users))).Methods("GET")
	authed.Handle("/users", admin(handlers.CreateUser(svc.Users))).Methods("POST")
	authed.Handle("/users/{id}", admin(handlers.GetUser(svc.Users))).Methods("GET")
	authed.Handle("/users/{id}", admin(handlers.UpdateUser(svc.Users))).Methods("PATCH")
	authed.Handle("/users/{id}", admin(handlers.DeleteUser(svc.Users))).Methods("DELETE")

	// Apartment endpoints
	ownerView := roles(models.RoleAdmin, models.RoleOwner)
	authed.Handle("/apartments", ownerView(handlers.ListApartments(svc.Apartments))).Methods("GET")
	authed.Handle("/apartments", admin(handlers.CreateApartment(svc.Apartments))).Methods("POST")
	authed.Handle("/apartments/{id}", ownerView(handlers.GetApartment(svc.Apartments))).Methods("GET")
	authed.Handle("/apartments/{id}", admin(handlers.UpdateApartment(svc.Apartments))).Methods("PATCH")
	authed.Handle("/apartments/{id}", admin(handlers.DeleteApartment(svc.Apartments))).Methods("DELETE")
	authed.Handle("/apartments/{id}/assignment", admin(handlers.AssignApartment(svc.Apartments))).Methods("PUT")

	// Guest endpoints
	guestView := roles(models.RoleAdmin, models.RoleOwner, models.RoleAirbnbGuest)
	frontDesk := roles(models.RoleAdmin, models.RoleSecurity)
	authed.Handle("/guests", guestView(handlers.ListGuests(svc.Guests))).Methods("GET")
	authed.Handle("/guests", admin(handlers.RegisterGuest(svc.Guests))).Methods("POST")
	authed.Handle("/guests/active", frontDesk(handlers.ListActiveGuests(svc.Guests))).Methods("GET")
	authed.Handle("/guests/{id}", guestView(handlers.GetGuest(svc.Guests))).Methods("GET")
	authed.Handle("/guests/{id}", admin(handlers.DeleteGuest(svc.Guests))).Methods("DELETE")
	authed.Handle("/guests/{id}/check-in", frontDesk(handlers.CheckInGuest(svc.Guests))).Methods("POST")
	authed.Handle("/guests/{id}/check-out", frontDesk(handlers.CheckOutGuest(svc.Guests))).Methods("POST")

	// Payment endpoints
	authed.HandleFunc("/payments", handlers.ListPayments(svc.Payments)).Methods("GET")
	authed.Handle("/payments", admin(handlers.CreatePayment(svc.Payments))).Methods("POST")
	authed.Handle("/payments/{id}", admin(handlers.GetPayment(svc.Payments))).Methods("GET")
	authed.Handle("/payments/{id}", admin(handlers.UpdatePayment(svc.Payments))).Methods("PATCH")
	authed.Handle("/payments/{id}", admin(handlers.DeletePayment(svc.Payments))).Methods("DELETE")
	authed.HandleFunc("/payments/{id}/pay", handlers.PayPayment(svc.Payments)).Methods("POST")

	// Maintenance endpoints
	authed.HandleFunc("/maintenance", handlers.ListMaintenance(svc.Maintenance)).Methods("GET")
	authed.Handle("/maintenance", admin(handlers.CreateMaintenance(svc.Maintenance))).Methods("POST")
	authed.HandleFunc("/maintenance/{id}", handlers.GetMaintenance(svc.Maintenance)).Methods("GET")
	authed.Handle("/maintenance/{id}", admin(handlers.UpdateMaintenance(svc.Maintenance))).Methods("PATCH")
	authed.Handle("/maintenance/{id}", admin(handlers.DeleteMaintenance(svc.Maintenance))).Methods("DELETE")

	// Damage report endpoints
	authed.Handle("/damage-reports", admin(handlers.ListDamageReports(svc.DamageReports))).Methods("GET")
	authed.HandleFunc("/damage-reports", handlers.CreateDamageReport(svc.DamageReports)).Methods("POST")
	authed.HandleFunc("/damage-reports/mine", handlers.ListMyDamageReports(svc.DamageReports)).Methods("GET")
	authed.HandleFunc("/damage-reports/{id}", handlers.GetDamageReport(svc.DamageReports)).Methods("GET")
	authed.HandleFunc("/damage-reports/{id}", handlers.UpdateDamageReport(svc.DamageReports)).Methods("PATCH")
	authed.HandleFunc("/damage-reports/{id}", handlers.DeleteDamageReport(svc.DamageReports)).Methods("DELETE")
	authed.Handle("/damage-reports/{id}/status", admin(handlers.UpdateDamageReportStatus(svc.DamageReports))).Methods("PUT")
	authed.HandleFunc("/damage-reports/{id}/images", handlers.UploadDamageReportImage(svc.DamageReports)).Methods("POST")
	if cfg.Media != nil {
		authed.HandleFunc("/media/{key:.+}", handlers.GetMedia(cfg.Media)).Methods("GET")
	}

	// Notification endpoints
	authed.Handle("/notifications", admin(handlers.ListNotifications(svc.Notifications))).Methods("GET")
	authed.Handle("/notifications", admin(handlers.CreateNotification(svc.Notifications))).Methods("POST")
	authed.HandleFunc("/notifications/mine", handlers.ListMyNotifications(svc.Notifications)).Methods("GET")
	authed.HandleFunc("/notifications/read-all", handlers.MarkAllNotificationsRead(svc.Notifications)).Methods("POST")
	authed.Handle("/notifications/{id}", admin(handlers.UpdateNotification(svc.Notifications))).Methods("PATCH")
	authed.Handle("/notifications/{id}", admin(handlers.DeleteNotification(svc.Notifications))).Methods("DELETE")
	authed.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead(svc.Notifications)).Methods("POST")

	// Serve static frontend files
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
