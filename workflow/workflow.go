// Package workflow runs one generation request: gate, prompt, completion,
// formatting and, if asked for, keyword suggestions.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/completion"
	"github.com/a-h/listingwriter/config"
	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/format"
	"github.com/a-h/listingwriter/keywords"
	"github.com/a-h/listingwriter/metrics"
	"github.com/a-h/listingwriter/prompt"
	"github.com/a-h/listingwriter/suggest"
)

// UnknownVariant is the variant recorded for requests naming a variant that
// isn't configured.
const UnknownVariant = "unknown"

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type Request struct {
	UserText string
	// Variant is the prompt variant name. Empty selects the default.
	Variant string
	// Keywords fill the keywords slot. When empty, the stored keyword list is used.
	Keywords        []string
	SuggestKeywords bool
	TopN            int
}

type Result struct {
	Variant     string
	Raw         string
	Formatted   string
	Suggestions []suggest.Suggestion
	// SuggestionError is set when suggestions were asked for but couldn't be made.
	// It doesn't fail the generation.
	SuggestionError error
}

type Generator struct {
	log       *slog.Logger
	variants  config.Variants
	builders  map[string]*prompt.Builder
	set       *keywords.Set
	completer Completer
	suggester *suggest.Suggester
	metrics   *metrics.Metrics
}

func New(log *slog.Logger, variants config.Variants, set *keywords.Set, completer Completer, suggester *suggest.Suggester, m *metrics.Metrics) (*Generator, error) {
	if err := variants.Validate(); err != nil {
		return nil, err
	}
	builders := make(map[string]*prompt.Builder, len(variants.Variants))
	for _, v := range variants.Variants {
		b, err := prompt.New(v)
		if err != nil {
			return nil, err
		}
		builders[v.Name] = b
	}
	return &Generator{
		log:       log,
		variants:  variants,
		builders:  builders,
		set:       set,
		completer: completer,
		suggester: suggester,
		metrics:   m,
	}, nil
}

func (g *Generator) Variants() []config.Variant {
	return append([]config.Variant(nil), g.variants.Variants...)
}

func (g *Generator) DefaultVariant() string {
	return g.variants.Default
}

// Generate never calls the LLM for an unauthorized session or blank text.
func (g *Generator) Generate(ctx context.Context, session *auth.Session, req Request) (result Result, err error) {
	variant, ok := g.variants.Get(req.Variant)
	result.Variant = variant.Name
	defer func() {
		g.metrics.Generation(result.Variant, err)
	}()
	if session == nil || !session.Authorized {
		return result, failure.New(failure.Auth, "log in before generating")
	}
	if strings.TrimSpace(req.UserText) == "" {
		return result, failure.New(failure.EmptyInput, "please enter a product description before generating")
	}
	if !ok {
		// Names from the request never become metric labels.
		result.Variant = UnknownVariant
		return result, failure.New(failure.Configuration, fmt.Sprintf("unknown prompt variant %q", req.Variant))
	}

	in := prompt.Input{UserText: req.UserText}
	if variant.IncludeKeywords {
		in.Keywords = req.Keywords
		if len(in.Keywords) == 0 {
			if !g.set.HasKeywords() {
				return result, failure.New(failure.Configuration, fmt.Sprintf("variant %q needs keywords but none are loaded", variant.Name))
			}
			in.Keywords = g.set.Keywords()
		}
	}
	if variant.IncludeEmbeddings {
		if !g.set.HasEmbeddings() {
			return result, failure.New(failure.Configuration, fmt.Sprintf("variant %q needs embeddings but none are loaded", variant.Name))
		}
		in.Embeddings = g.set.Embeddings(variant.EmbeddingRows)
	}
	p, err := g.builders[variant.Name].Build(in)
	if err != nil {
		return result, err
	}

	g.log.Debug("requesting completion", slog.String("variant", variant.Name), slog.String("model", variant.Model), slog.Int("promptLength", len(p)))
	raw, err := g.completer.Complete(ctx, completion.Request{
		Prompt:      p,
		Model:       variant.Model,
		Temperature: variant.Temperature,
		MaxTokens:   variant.MaxTokens,
	})
	if err != nil {
		return result, err
	}
	result.Raw = raw
	result.Formatted = format.Bullets(raw, variant.BulletMarker)

	if req.SuggestKeywords {
		result.Suggestions, result.SuggestionError = g.Suggest(ctx, session, req.UserText, req.TopN)
		if result.SuggestionError != nil {
			g.log.Warn("keyword suggestion failed", slog.Any("error", result.SuggestionError))
		}
	}
	return result, nil
}

func (g *Generator) Suggest(ctx context.Context, session *auth.Session, text string, topN int) (suggestions []suggest.Suggestion, err error) {
	defer func() {
		g.metrics.Suggestion(err)
	}()
	if session == nil || !session.Authorized {
		return nil, failure.New(failure.Auth, "log in before requesting keyword suggestions")
	}
	return g.suggester.Suggest(ctx, text, topN)
}
