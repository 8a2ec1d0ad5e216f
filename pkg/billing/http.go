package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/patients/{id}/invoices", h.handleListForPatient).Methods(http.MethodGet)
	r.HandleFunc("/invoices/{id}", h.handleGet).Methods(http.MethodGet)
	r.Handle("/invoices/{id}/payments",
		middleware.RequireRole(models.RoleReceptionist, models.RoleAdmin)(http.HandlerFunc(h.handlePayment))).Methods(http.MethodPost)
}

func (h *Handler) handleListForPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	invoices, err := h.service.ListForPatient(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list invoices")
		http.Error(w, "failed to list invoices", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": invoices})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinic.ErrInvoiceNotFound) {
			http.Error(w, "invoice not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to get invoice")
		http.Error(w, "failed to get invoice", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoice": invoice})
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	invoice, err := h.service.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPayment):
			http.Error(w, "payment amount must be positive", http.StatusBadRequest)
		case errors.Is(err, clinic.ErrInvoiceNotFound):
			http.Error(w, "invoice not found", http.StatusNotFound)
		default:
			logger.Log.WithError(err).Error("failed to record payment")
			http.Error(w, "failed to record payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoice": invoice})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
