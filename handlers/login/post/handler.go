package post

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/handlers"
	"github.com/a-h/listingwriter/metrics"
	"github.com/a-h/listingwriter/models"
	"github.com/a-h/respond"
)

func New(log *slog.Logger, gate auth.Gate, sessions *auth.Sessions, throttle *auth.Throttle, m *metrics.Metrics, sessionExpiry time.Duration, secureCookie bool) Handler {
	return Handler{
		log:           log,
		gate:          gate,
		sessions:      sessions,
		throttle:      throttle,
		metrics:       m,
		sessionExpiry: sessionExpiry,
		secureCookie:  secureCookie,
	}
}

type Handler struct {
	log           *slog.Logger
	gate          auth.Gate
	sessions      *auth.Sessions
	throttle      *auth.Throttle
	metrics       *metrics.Metrics
	sessionExpiry time.Duration
	secureCookie  bool
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.throttle.Allow() {
		h.log.Warn("login throttled")
		respond.WithError(w, "too many login attempts, wait a moment", http.StatusTooManyRequests)
		return
	}

	var req models.LoginPostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}

	err = h.gate.Check(req.Password)
	h.metrics.Login(err)
	if err != nil {
		handlers.WriteError(w, h.log, "login failed", err)
		return
	}

	session := h.sessions.Create()
	h.log.Info("session created")
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(h.sessionExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	respond.WithJSON(w, models.LoginPostResponse{Session: session.ID}, http.StatusOK)
}
