package visit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/middleware"
	"github.com/ehabalabdo/med-loop-sub000/pkg/observability/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// QueueInvalidator drops cached queue projections after a visit mutation.
type QueueInvalidator interface {
	Invalidate(ctx context.Context)
}

type Handler struct {
	engine *Engine
	store  Store
	queues QueueInvalidator
}

func NewHandler(engine *Engine, store Store, queues QueueInvalidator) *Handler {
	return &Handler{engine: engine, store: store, queues: queues}
}

func (h *Handler) Register(r *mux.Router) {
	r.Handle("/patients/intake",
		middleware.RequireRole(models.RoleReceptionist, models.RoleAdmin)(http.HandlerFunc(h.handleIntake))).Methods(http.MethodPost)
	r.HandleFunc("/patients/{id}", h.handleGetPatient).Methods(http.MethodGet)
	r.Handle("/patients/{id}/transition",
		middleware.RequireRole(models.RoleDoctor, models.RoleReceptionist, models.RoleAdmin)(http.HandlerFunc(h.handleTransition))).Methods(http.MethodPost)
}

func (h *Handler) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req models.IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.PatientID == nil && req.Name == "" {
		http.Error(w, "name is required for new patients", http.StatusBadRequest)
		return
	}
	if req.ClinicID == "" {
		http.Error(w, "clinic_id is required", http.StatusBadRequest)
		return
	}

	patient, err := h.engine.Intake(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, clinic.ErrPatientNotFound):
			http.Error(w, "patient not found", http.StatusNotFound)
		case errors.Is(err, ErrVisitActive):
			http.Error(w, "patient already has an active visit", http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("intake failed")
			http.Error(w, "intake failed", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncIntake()
	if h.queues != nil {
		h.queues.Invalidate(r.Context())
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	patient, err := h.store.GetPatient(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinic.ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to get patient")
		http.Error(w, "failed to get patient", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": patient})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.TargetStatus == "" {
		http.Error(w, "target_status is required", http.StatusBadRequest)
		return
	}

	patient, err := h.engine.Transition(r.Context(), id, req.TargetStatus, req.Update, req.ExpectedVersion)
	if err != nil {
		switch {
		case errors.Is(err, clinic.ErrPatientNotFound):
			http.Error(w, "patient not found", http.StatusNotFound)
		case errors.Is(err, ErrNoActiveVisit):
			http.Error(w, "patient has no active visit", http.StatusConflict)
		case errors.Is(err, ErrInvalidTransition):
			metrics.IncTransitionRejected()
			http.Error(w, "invalid transition", http.StatusUnprocessableEntity)
		case errors.Is(err, clinic.ErrVersionConflict):
			http.Error(w, "visit was modified by another staff member", http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("transition failed")
			http.Error(w, "transition failed", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncTransition()
	if req.TargetStatus == models.VisitStatusCompleted {
		metrics.IncInvoiceCreated()
	}
	if h.queues != nil {
		h.queues.Invalidate(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": patient})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
