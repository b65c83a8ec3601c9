package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/service"
)

// ListNotifications returns every notification.
func ListNotifications(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifications, err := svc.List(r.Context())
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notifications)
	}
}

// ListMyNotifications returns the caller's notifications, broadcasts included.
func ListMyNotifications(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notifications, err := svc.ListMine(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notifications)
	}
}

// CreateNotification sends a notification to one user or to everyone.
func CreateNotification(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateNotificationInput
		if !decodeJSON(w, r, &in) {
			return
		}
		n, err := svc.Create(r.Context(), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, n)
	}
}

// UpdateNotification edits a notification.
func UpdateNotification(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UpdateNotificationInput
		if !decodeJSON(w, r, &in) {
			return
		}
		n, err := svc.Update(r.Context(), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

// DeleteNotification removes a notification.
func DeleteNotification(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.MarkRead(r.Context(), principal(r), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

// MarkAllNotificationsRead marks every notification of the caller as read.
func MarkAllNotificationsRead(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.MarkAllRead(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": count})
	}
}
