package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/condo-admin/backend/internal/api/middleware"
	"github.com/condo-admin/backend/internal/service"
)

// ListPayments returns the payments visible to the caller.
func ListPayments(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payments, err := svc.List(r.Context(), principal(r))
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

// GetPayment returns a single payment.
func GetPayment(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := svc.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}

// CreatePayment adds a payment.
func CreatePayment(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CreatePaymentInput
		if !decodeJSON(w, r, &in) {
			return
		}
		payment, err := svc.Create(r.Context(), in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, payment)
	}
}

// UpdatePayment applies a partial update.
func UpdatePayment(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.UpdatePaymentInput
		if !decodeJSON(w, r, &in) {
			return
		}
		payment, err := svc.Update(r.Context(), mux.Vars(r)["id"], in)
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}

// PayPayment marks one of the caller's payments as paid.
func PayPayment(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := svc.MarkPaid(r.Context(), principal(r), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payment)
	}
}

// DeletePayment removes a payment.
func DeletePayment(svc *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
