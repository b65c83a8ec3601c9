package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/service"
)

// ListApartments returns the apartments visible to the caller.
func ListApartments(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apartments, err := svc.List(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, apartments)
	}
}

// GetApartment returns a single apartment.
func GetApartment(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apartment, err := svc.Get(r.Context(), principal(r), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, apartment)
	}
}

// CreateApartment adds an apartment.
func CreateApartment(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateApartmentInput
		if !decodeJSON(w, r, &in) {
			return
		}
		apartment, err := svc.Create(r.Context(), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, apartment)
	}
}

// UpdateApartment applies a partial update.
func UpdateApartment(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UpdateApartmentInput
		if !decodeJSON(w, r, &in) {
			return
		}
		apartment, err := svc.Update(r.Context(), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, apartment)
	}
}

// AssignApartment sets or clears an apartment's occupant.
func AssignApartment(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.AssignInput
		if !decodeJSON(w, r, &in) {
			return
		}
		apartment, err := svc.Assign(r.Context(), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, apartment)
	}
}

// DeleteApartment removes an apartment.
func DeleteApartment(svc *service.ApartmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
