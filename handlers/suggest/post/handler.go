package post

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/handlers"
	generatepost "github.com/a-h/listingwriter/handlers/generate/post"
	"github.com/a-h/listingwriter/models"
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

	var req models.SuggestPostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}

	suggestions, err := h.generator.Suggest(r.Context(), session, req.Text, req.TopN)
	if err != nil {
		handlers.WriteError(w, h.log, "failed to suggest keywords", err)
		return
	}

	resp := models.SuggestPostResponse{
		Keywords: generatepost.Suggestions(suggestions),
	}
	if resp.Keywords == nil {
		resp.Keywords = []models.KeywordSuggestion{}
	}
	respond.WithJSON(w, resp, http.StatusOK)
}
