package announce

import (
	"encoding/json"
	"net/http"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/gorilla/mux"
)

type Handler struct {
	announcer *Announcer
}

func NewHandler(announcer *Announcer) *Handler {
	return &Handler{announcer: announcer}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/announcements", h.handleBoard).Methods(http.MethodGet)
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.announcer.Board(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to read announcement board")
		http.Error(w, "failed to read announcements", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"announcements": board})
}
