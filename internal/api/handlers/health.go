package handlers

import (
	"net/http"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{
			Status:      status,
			Version:     version,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Users                int `json:"users"`
	PendingUsers         int `json:"pending_users"`
	Apartments           int `json:"apartments"`
	ActiveGuests         int `json:"active_guests"`
	OpenMaintenance      int `json:"open_maintenance"`
	OpenDamageReports    int `json:"open_damage_reports"`
	PendingPayments      int `json:"pending_payments"`
	UnreadNotifications  int `json:"unread_notifications"`
	WebSocketConnections int `json:"websocket_connections"`
}

// Status returns a handler that summarizes the complex for the admin dashboard.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var resp StatusResponse

		counts := []struct {
			dst   *int
			query string
		}{
			{&resp.Users, "SELECT COUNT(*) FROM users"},
			{&resp.PendingUsers, "SELECT COUNT(*) FROM users WHERE status = 'pending'"},
			{&resp.Apartments, "SELECT COUNT(*) FROM apartments"},
			{&resp.ActiveGuests, "SELECT COUNT(*) FROM airbnb_guests WHERE status = 'checked_in'"},
			{&resp.OpenMaintenance, "SELECT COUNT(*) FROM maintenance WHERE status != 'completed'"},
			{&resp.OpenDamageReports, "SELECT COUNT(*) FROM damage_reports WHERE status != 'resolved'"},
			{&resp.PendingPayments, "SELECT COUNT(*) FROM payments WHERE status = 'pending'"},
			{&resp.UnreadNotifications, "SELECT COUNT(*) FROM notifications WHERE is_read = 0"},
		}
		for _, c := range counts {
			if err := db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
				middleware.WriteServiceError(w, r, err)
				return
			}
		}
		resp.WebSocketConnections = hub.ClientCount()

		writeJSON(w, http.StatusOK, resp)
	}
}
