// Package routes wires the HTTP handlers together.
package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/listingwriter/auth"
	generatepost "github.com/a-h/listingwriter/handlers/generate/post"
	loginpost "github.com/a-h/listingwriter/handlers/login/post"
	logoutpost "github.com/a-h/listingwriter/handlers/logout/post"
	suggestpost "github.com/a-h/listingwriter/handlers/suggest/post"
	variantsget "github.com/a-h/listingwriter/handlers/variants/get"
	"github.com/a-h/listingwriter/metrics"
	"github.com/a-h/listingwriter/workflow"
	"github.com/rs/cors"
)

type Config struct {
	Gate          auth.Gate
	Sessions      *auth.Sessions
	Throttle      *auth.Throttle
	Generator     *workflow.Generator
	Metrics       *metrics.Metrics
	SessionExpiry time.Duration
	SecureCookie  bool
}

// New returns the server handler. Only /login and /metrics can be reached
// without a session.
func New(log *slog.Logger, c Config) http.Handler {
	authenticated := http.NewServeMux()
	authenticated.Handle("POST /logout", logoutpost.New(log, c.Sessions))
	authenticated.Handle("POST /generate", generatepost.New(log, c.Generator))
	authenticated.Handle("POST /suggest", suggestpost.New(log, c.Generator))
	authenticated.Handle("GET /variants", variantsget.New(c.Generator))

	mux := http.NewServeMux()
	mux.Handle("POST /login", loginpost.New(log, c.Gate, c.Sessions, c.Throttle, c.Metrics, c.SessionExpiry, c.SecureCookie))
	if c.Metrics != nil {
		mux.Handle("GET /metrics", c.Metrics.Handler())
	}
	mux.Handle("/", auth.New(c.Sessions, authenticated))

	return cors.AllowAll().Handler(mux)
}
