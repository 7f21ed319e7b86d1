package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/listingwriter/failure"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{err: nil, expected: "ok"},
		{err: failure.New(failure.RateLimit, "slow down"), expected: "RateLimitError"},
		{err: errors.New("boom"), expected: "error"},
	}
	for _, tt := range tests {
		if actual := Outcome(tt.err); actual != tt.expected {
			t.Errorf("Outcome(%v): expected %q, got %q", tt.err, tt.expected, actual)
		}
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Generation("four-bullets", nil)
	m.Generation("four-bullets", failure.New(failure.EmptyInput, "empty"))
	m.Retry()
	m.Login(failure.New(failure.Auth, "wrong"))
	m.Suggestion(nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	for _, expected := range []string{
		`listingwriter_generations_total{outcome="ok",variant="four-bullets"} 1`,
		`listingwriter_generations_total{outcome="EmptyInputError",variant="four-bullets"} 1`,
		`listingwriter_completion_retries_total 1`,
		`listingwriter_logins_total{outcome="AuthError"} 1`,
		`listingwriter_suggestions_total{outcome="ok"} 1`,
	} {
		if !strings.Contains(string(body), expected) {
			t.Errorf("expected %q in:\n%s", expected, body)
		}
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.Generation("x", nil)
	m.Suggestion(nil)
	m.Retry()
	m.Login(nil)
}
