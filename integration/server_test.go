package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/completion"
	"github.com/a-h/listingwriter/config"
	"github.com/a-h/listingwriter/keywords"
	"github.com/a-h/listingwriter/metrics"
	"github.com/a-h/listingwriter/routes"
	"github.com/a-h/listingwriter/suggest"
	"github.com/a-h/listingwriter/workflow"
)

const password = "test-password"

type fakeCompleter struct {
	m     sync.Mutex
	text  string
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	return f.text, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func newServer(t *testing.T, c workflow.Completer) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	set, err := keywords.New([]string{"krzesło", "stół", "dąb"}, [][]float32{{1, 0}, {0, 1}, {0.9, 0.1}})
	if err != nil {
		t.Fatalf("failed to create keyword set: %v", err)
	}
	m := metrics.New()
	g, err := workflow.New(log, config.DefaultVariants(), set, c, suggest.New(fakeEmbedder{}, set), m)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	s := httptest.NewServer(routes.New(log, routes.Config{
		Gate:          auth.NewGate(password),
		Sessions:      auth.NewSessions(time.Hour),
		Throttle:      auth.NewThrottle(100, 100),
		Generator:     g,
		Metrics:       m,
		SessionExpiry: time.Hour,
	}))
	t.Cleanup(s.Close)
	return s
}
