package queue

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/gateway/middleware"
	"github.com/ehabalabdo/med-loop-sub000/pkg/observability/metrics"
	"github.com/gorilla/mux"
)

type PatientLister interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
}

type Handler struct {
	store     PatientLister
	projector *Projector
	cache     *Cache
}

func NewHandler(store PatientLister, projector *Projector, cache *Cache) *Handler {
	return &Handler{store: store, projector: projector, cache: cache}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/queue", h.handleQueue).Methods(http.MethodGet)
}

// handleQueue serves the observer's queue view. Role and clinic scope come
// from the validated claims, never from request parameters, so a clinician
// cannot widen their own visibility.
func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if entries, ok := h.cache.Get(r.Context(), claims.Role, claims.ClinicIDs); ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"queue": entries})
		return
	}

	patients, err := h.store.ListPatients(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to read patients for queue")
		http.Error(w, "failed to build queue", http.StatusInternalServerError)
		return
	}

	entries := h.projector.Project(patients, claims.Role, claims.ClinicIDs)
	h.cache.Set(r.Context(), claims.Role, claims.ClinicIDs, entries)
	metrics.ObserveQueueDepth(len(entries))

	writeJSON(w, http.StatusOK, map[string]interface{}{"queue": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
