package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const stateCookie = "medloop_oauth_state"

// Handler exposes the SSO login flow. The provider authenticates the staff
// member; the callback mints the local session JWT the API middleware checks.
type Handler struct {
	oidc        *OIDCAuthenticator
	jwt         *JWTManager
	defaultRole string
}

func NewHandler(oidc *OIDCAuthenticator, jwt *JWTManager) *Handler {
	return &Handler{oidc: oidc, jwt: jwt, defaultRole: models.RoleReceptionist}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/callback", h.handleCallback).Methods(http.MethodGet)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.LoginURL(state), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	token, err := h.oidc.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Log.WithError(err).Warn("oauth code exchange failed")
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	profile, err := h.oidc.FetchProfile(r.Context(), token)
	if err != nil {
		logger.Log.WithError(err).Warn("userinfo fetch failed")
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(profile.Subject)
	if err != nil {
		// Providers with opaque subjects get a deterministic local id.
		userID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(profile.Subject))
	}

	session, err := h.jwt.IssueToken(models.User{
		ID:    userID,
		Email: profile.Email,
		Name:  profile.Name,
		Role:  h.defaultRole,
	})
	if err != nil {
		logger.Log.WithError(err).Error("session token issue failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": session,
		"token_type":   "Bearer",
		"email":        profile.Email,
	})
}
