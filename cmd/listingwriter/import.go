package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a-h/listingwriter/config"
	"github.com/a-h/listingwriter/db"
	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/keywords"
	"github.com/tmc/langchaingo/embeddings"
)

type ImportCommand struct {
	RqliteURL      string `help:"The URL of the rqlite server." env:"RQLITE_URL" default:"http://localhost:4001"`
	KeywordsFile   string `help:"A JSON, YAML or CSV keyword list." env:"KEYWORDS_FILE" required:""`
	EmbeddingsFile string `help:"A CSV file with one embedding per keyword." env:"EMBEDDINGS_FILE" default:""`
	Embed          bool   `help:"Compute embeddings for the keywords when no embeddings file is given." env:"EMBED" default:"false"`
	BatchSize      int    `help:"The number of keywords to embed per request." env:"BATCH_SIZE" default:"512"`
	SecretsFile    string `help:"The TOML file containing OPENAI_API_KEY." env:"SECRETS_FILE" default:".streamlit/secrets.toml"`
	APIKey         string `help:"The OpenAI API key, overriding the secrets file." env:"OPENAI_API_KEY" default:""`
	Provider       string `help:"The embedding provider." env:"LLM_PROVIDER" enum:"openai,ollama" default:"openai"`
	OllamaURL      string `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://127.0.0.1:11434/"`
	EmbeddingModel string `help:"The model to use for embeddings." env:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	DryRun         bool   `help:"Do not actually import the keywords." env:"DRY_RUN" default:"false"`
	LogLevel       string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ImportCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	set, err := keywords.Load(c.KeywordsFile, c.EmbeddingsFile)
	if err != nil {
		return err
	}
	if !set.HasEmbeddings() && c.Embed {
		if set, err = c.embed(ctx, log, set); err != nil {
			return err
		}
	}
	stored := storedKeywords(set)
	log.Info("loaded keywords", slog.Int("count", len(stored)), slog.Bool("embeddings", set.HasEmbeddings()))
	if c.DryRun {
		log.Info("skipping keyword import in dry run mode")
		return nil
	}

	q, closer, err := openDatabase(log, c.RqliteURL)
	if err != nil {
		return err
	}
	defer closer()
	if err = q.KeywordPut(ctx, stored); err != nil {
		return fmt.Errorf("failed to put keywords: %w", err)
	}
	log.Info("keywords imported", slog.Int("count", len(stored)))
	return nil
}

func (c ImportCommand) embed(ctx context.Context, log *slog.Logger, set *keywords.Set) (*keywords.Set, error) {
	secrets, err := config.LoadSecrets(c.SecretsFile)
	if err != nil {
		return nil, err
	}
	secrets = secrets.With("", c.APIKey)
	if c.Provider != "ollama" && secrets.APIKey == "" {
		return nil, failure.New(failure.Configuration, "the LLM API key is not configured (OPENAI_API_KEY)")
	}
	_, ec, err := createLLM(c.Provider, c.OllamaURL, c.EmbeddingModel, secrets.APIKey)
	if err != nil {
		return nil, err
	}
	emb, err := embeddings.NewEmbedder(ec, embeddings.WithBatchSize(c.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	log.Info("embedding keywords", slog.Int("count", set.Len()), slog.String("model", c.EmbeddingModel))
	vectors, err := emb.EmbedDocuments(ctx, set.Keywords())
	if err != nil {
		return nil, failure.Wrap(failure.Provider, "", err)
	}
	return keywords.New(set.Keywords(), vectors)
}

func storedKeywords(set *keywords.Set) []db.Keyword {
	stored := make([]db.Keyword, 0, set.Len())
	for _, kw := range set.Keywords() {
		stored = append(stored, db.Keyword{Keyword: kw})
	}
	set.Range(func(i int, embedding []float32) bool {
		stored[i].Embedding = append([]float32(nil), embedding...)
		return true
	})
	return stored
}
