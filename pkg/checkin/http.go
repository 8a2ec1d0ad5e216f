package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/middleware"
	"github.com/ehabalabdo/med-loop-sub000/pkg/observability/metrics"
	"github.com/ehabalabdo/med-loop-sub000/pkg/visit"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AppointmentStore is the scheduling slice of the clinic repository.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error)
	ListAppointments(ctx context.Context, status string, limit int) ([]models.Appointment, error)
}

type Handler struct {
	bridge *Bridge
	store  AppointmentStore
	queues visit.QueueInvalidator
}

func NewHandler(bridge *Bridge, store AppointmentStore, queues visit.QueueInvalidator) *Handler {
	return &Handler{bridge: bridge, store: store, queues: queues}
}

func (h *Handler) Register(r *mux.Router) {
	staff := middleware.RequireRole(models.RoleReceptionist, models.RoleAdmin)
	r.Handle("/appointments", staff(http.HandlerFunc(h.handleCreate))).Methods(http.MethodPost)
	r.HandleFunc("/appointments", h.handleList).Methods(http.MethodGet)
	r.Handle("/appointments/{id}/checkin", staff(http.HandlerFunc(h.handleCheckIn))).Methods(http.MethodPost)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil || req.ClinicID == "" || req.Date.IsZero() {
		http.Error(w, "patient_id, clinic_id, and date are required", http.StatusBadRequest)
		return
	}

	appt, err := h.store.CreateAppointment(r.Context(), models.Appointment{
		ID:         uuid.New(),
		PatientID:  req.PatientID,
		ClinicID:   req.ClinicID,
		ClinicName: req.ClinicName,
		DoctorID:   req.DoctorID,
		Date:       req.Date,
		Status:     models.AppointmentScheduled,
		Reason:     req.Reason,
	})
	if err != nil {
		logger.Log.WithError(err).Error("failed to create appointment")
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"appointment": appt})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := parseLimit(r, 100)
	appts, err := h.store.ListAppointments(r.Context(), status, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list appointments")
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": appts})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	appt, patient, err := h.bridge.CheckIn(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, clinic.ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		case errors.Is(err, clinic.ErrPatientNotFound):
			http.Error(w, "patient not found", http.StatusNotFound)
		case errors.Is(err, ErrAlreadyCheckedIn):
			http.Error(w, "appointment already checked in", http.StatusConflict)
		case errors.Is(err, ErrAppointmentClosed):
			http.Error(w, "appointment is not open for check-in", http.StatusConflict)
		case errors.Is(err, clinic.ErrVersionConflict):
			http.Error(w, "patient record was modified concurrently", http.StatusConflict)
		default:
			logger.Log.WithError(err).Error("check-in failed")
			http.Error(w, "check-in failed", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncCheckIn()
	if h.queues != nil {
		h.queues.Invalidate(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"appointment": appt,
		"patient":     patient,
	})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
