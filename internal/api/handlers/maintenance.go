package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/service"
)

// ListMaintenance returns every maintenance job.
func ListMaintenance(svc *service.MaintenanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := svc.List(r.Context())
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

// GetMaintenance returns a single job.
func GetMaintenance(svc *service.MaintenanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// CreateMaintenance adds a job and announces it to residents.
func CreateMaintenance(svc *service.MaintenanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateMaintenanceInput
		if !decodeJSON(w, r, &in) {
			return
		}
		job, err := svc.Create(r.Context(), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, job)
	}
}

// UpdateMaintenance applies a partial update, including status changes.
func UpdateMaintenance(svc *service.MaintenanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UpdateMaintenanceInput
		if !decodeJSON(w, r, &in) {
			return
		}
		job, err := svc.Update(r.Context(), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// DeleteMaintenance removes a job.
func DeleteMaintenance(svc *service.MaintenanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
