package post

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/handlers"
	"github.com/a-h/listingwriter/models"
	"github.com/a-h/listingwriter/suggest"
	"github.com/a-h/listingwriter/workflow"
	"github.com/a-h/respond"
)

func New(log *slog.Logger, generator *workflow.Generator) Handler {
	return Handler{
		log:       log,
		generator: generator,
	}
}

type Handler struct {
	log       *slog.Logger
	generator *workflow.Generator
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}

	var req models.GeneratePostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}

	// One generation per session at a time.
	if !session.TryBegin() {
		respond.WithError(w, "a description is already being generated", http.StatusConflict)
		return
	}
	defer session.End()

	result, err := h.generator.Generate(r.Context(), session, workflow.Request{
		UserText:        req.Text,
		Variant:         req.Variant,
		Keywords:        req.Keywords,
		SuggestKeywords: req.Suggest,
		TopN:            req.TopN,
	})
	if err != nil {
		handlers.WriteError(w, h.log, "failed to generate description", err)
		return
	}

	resp := models.GeneratePostResponse{
		Variant:   result.Variant,
		Raw:       result.Raw,
		Formatted: result.Formatted,
		Keywords:  Suggestions(result.Suggestions),
	}
	if result.SuggestionError != nil {
		resp.SuggestionError = result.SuggestionError.Error()
	}
	h.log.Info("description generated", slog.String("variant", result.Variant), slog.Int("keywords", len(resp.Keywords)))
	respond.WithJSON(w, resp, http.StatusOK)
}

func Suggestions(suggestions []suggest.Suggestion) []models.KeywordSuggestion {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]models.KeywordSuggestion, len(suggestions))
	for i, s := range suggestions {
		out[i] = models.KeywordSuggestion{Keyword: s.Keyword, Score: s.Score}
	}
	return out
}
