package post

import (
	"log/slog"
	"net/http"

	"github.com/a-h/listingwriter/auth"
)

func New(log *slog.Logger, sessions *auth.Sessions) Handler {
	return Handler{
		log:      log,
		sessions: sessions,
	}
}

type Handler struct {
	log      *slog.Logger
	sessions *auth.Sessions
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}
	h.sessions.Delete(session.ID)
	http.SetCookie(w, &http.Cookie{
		Name:   auth.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	h.log.Info("session ended")
	w.WriteHeader(http.StatusNoContent)
}
