package reminder

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
	staff := middleware.RequireRole(models.RoleReceptionist, models.RoleAdmin)
	r.Handle("/notifications", staff(http.HandlerFunc(h.handleCreate))).Methods(http.MethodPost)
	r.HandleFunc("/notifications", h.handleDue).Methods(http.MethodGet)
	r.Handle("/notifications/{id}/dismiss", staff(http.HandlerFunc(h.handleDismiss))).Methods(http.MethodPost)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	notification, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}
		logger.Log.WithError(err).Error("failed to create notification")
		http.Error(w, "failed to create notification", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"notification": notification})
}

// handleDue returns the reminders currently due for the caller's role.
func (h *Handler) handleDue(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.service.Due(r.Context(), claims.Role)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list notifications")
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": notifications})
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.service.Dismiss(r.Context(), id); err != nil {
		if errors.Is(err, clinic.ErrNotificationNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to dismiss notification")
		http.Error(w, "failed to dismiss notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
