package suggest

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/keywords"
	"github.com/tmc/langchaingo/embeddings"
)

const DefaultTopN = 5

type Suggestion struct {
	Keyword string
	Score   float64
}

// Suggester finds the stored keywords closest to a piece of text.
type Suggester struct {
	embedder embeddings.Embedder
	set      *keywords.Set
}

// New creates a Suggester. A nil embedder means the configured model can't
// embed text, and every call reports failure.CapabilityUnavailable.
func New(embedder embeddings.Embedder, set *keywords.Set) *Suggester {
	return &Suggester{
		embedder: embedder,
		set:      set,
	}
}

func (s *Suggester) Available() bool {
	return s != nil && s.embedder != nil && s.set.HasEmbeddings() && s.set.HasKeywords()
}

// Suggest returns up to topN keywords, most similar first. Equal scores keep
// the stored order.
func (s *Suggester) Suggest(ctx context.Context, text string, topN int) ([]Suggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, failure.New(failure.EmptyInput, "please enter a product description before suggesting keywords")
	}
	if s == nil || s.embedder == nil {
		return nil, failure.New(failure.CapabilityUnavailable, "the configured model doesn't support embeddings, keyword suggestions are unavailable")
	}
	if !s.set.HasEmbeddings() || !s.set.HasKeywords() {
		return nil, failure.New(failure.CapabilityUnavailable, "no keyword embeddings are loaded, keyword suggestions are unavailable")
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	query, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, failure.Wrap(failure.Provider, "failed to embed the product description", err)
	}
	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, 0, s.set.Len())
	var rangeErr error
	s.set.Range(func(i int, e []float32) bool {
		if len(e) != len(query) {
			rangeErr = fmt.Errorf("stored embeddings have %d dimensions but the model returned %d", len(e), len(query))
			return false
		}
		scores = append(scores, scored{index: i, score: CosineSimilarity(query, e)})
		return true
	})
	if rangeErr != nil {
		return nil, failure.Wrap(failure.Configuration, "keyword embeddings don't match the embedding model", rangeErr)
	}
	slices.SortStableFunc(scores, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	scores = scores[:min(topN, len(scores))]
	out := make([]Suggestion, len(scores))
	for i, sc := range scores {
		out[i] = Suggestion{Keyword: s.set.Keyword(sc.index), Score: sc.score}
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 if
// either is a zero vector or they differ in length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Keywords returns just the keyword labels.
func Keywords(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Keyword
	}
	return out
}
