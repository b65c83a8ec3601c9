package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/service"
)

// ListGuests returns the guests visible to the caller.
func ListGuests(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guests, err := svc.List(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, guests)
	}
}

// ListActiveGuests returns guests currently staying in the complex.
func ListActiveGuests(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guests, err := svc.ActiveGuests(r.Context())
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, guests)
	}
}

// GetGuest returns a single guest.
func GetGuest(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guest, err := svc.Get(r.Context(), principal(r), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, guest)
	}
}

// RegisterGuest records a new guest.
func RegisterGuest(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterGuestInput
		if !decodeJSON(w, r, &in) {
			return
		}
		guest, err := svc.Register(r.Context(), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, guest)
	}
}

// CheckInGuest marks a guest as arrived.
func CheckInGuest(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guest, err := svc.CheckIn(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, guest)
	}
}

// CheckOutGuest marks a guest as departed.
func CheckOutGuest(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guest, err := svc.CheckOut(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, guest)
	}
}

// DeleteGuest removes a guest registration.
func DeleteGuest(svc *service.GuestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
