package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/media"
	"github.com/condo-admin/backend/internal/service"
	"github.com/condo-admin/backend/internal/storage/models"
)

// maxImageBytes caps a single uploaded image.
const maxImageBytes = 10 << 20

// ListDamageReports returns one page of all reports.
func ListDamageReports(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.ListPage(r.Context(), principal(r),
			queryInt(r, "page", 1), queryInt(r, "limit", service.DefaultPageSize))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// ListMyDamageReports returns the reports raised by the caller.
func ListMyDamageReports(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := svc.ListMine(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

// GetDamageReport returns a single report.
func GetDamageReport(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Get(r.Context(), principal(r), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// CreateDamageReport raises a report.
func CreateDamageReport(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreateDamageReportInput
		if !decodeJSON(w, r, &in) {
			return
		}
		report, err := svc.Create(r.Context(), principal(r), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}

// UpdateDamageReport edits a report's details.
func UpdateDamageReport(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UpdateDamageReportInput
		if !decodeJSON(w, r, &in) {
			return
		}
		report, err := svc.Update(r.Context(), principal(r), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// statusRequest is the body of a status change.
type statusRequest struct {
	Status models.ReportStatus `json:"status"`
}

// UpdateDamageReportStatus advances a report's status.
func UpdateDamageReportStatus(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		report, err := svc.UpdateStatus(r.Context(), principal(r), mux.Vars(r)["id"], req.Status)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// DeleteDamageReport removes a report.
func DeleteDamageReport(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), principal(r), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadDamageReportImage attaches the multipart "image" field to a report.
func UploadDamageReportImage(svc *service.DamageReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		file, header, err := r.FormFile("image")
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "An image file is required in the \"image\" field")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		report, err := svc.AttachImage(r.Context(), principal(r), mux.Vars(r)["id"], header.Filename, contentType, file)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// GetMedia streams a stored file.
func GetMedia(store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		if _, err := media.CleanKey(key); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid media key")
			return
		}

		body, contentType, err := store.Get(r.Context(), key)
		if errors.Is(err, media.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Media not found")
			return
		}
		if err != nil {
			log.Printf("Failed to read media %s: %v", key, err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read media")
			return
		}
		defer body.Close()

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		if _, err := io.Copy(w, body); err != nil {
			log.Printf("Failed to stream media %s: %v", key, err)
		}
	}
}
