package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/listingwriter/auth"
	"github.com/a-h/listingwriter/completion"
	"github.com/a-h/listingwriter/config"
	"github.com/a-h/listingwriter/db"
	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/keywords"
	"github.com/a-h/listingwriter/metrics"
	"github.com/a-h/listingwriter/retry"
	"github.com/a-h/listingwriter/routes"
	"github.com/a-h/listingwriter/suggest"
	"github.com/a-h/listingwriter/workflow"
	"github.com/rqlite/gorqlite"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

type ServeCommand struct {
	SecretsFile    string        `help:"The TOML file containing OPENAI_API_KEY and [bot_secrets] password." env:"SECRETS_FILE" default:".streamlit/secrets.toml"`
	Password       string        `help:"The access password, overriding the secrets file." env:"LISTINGWRITER_PASSWORD" default:""`
	APIKey         string        `help:"The OpenAI API key, overriding the secrets file." env:"OPENAI_API_KEY" default:""`
	Provider       string        `help:"The LLM provider." env:"LLM_PROVIDER" enum:"openai,ollama" default:"openai"`
	OllamaURL      string        `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://127.0.0.1:11434/"`
	ChatModel      string        `help:"Use this model for every prompt variant instead of the variant's own." env:"CHAT_MODEL" default:""`
	EmbeddingModel string        `help:"The model to use for embeddings." env:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	NoEmbeddings   bool          `help:"Disable keyword suggestions." env:"NO_EMBEDDINGS" default:"false"`
	VariantsFile   string        `help:"A YAML file of prompt variants. The built-in variants are used if empty." env:"VARIANTS_FILE" default:""`
	KeywordsFile   string        `help:"A JSON, YAML or CSV keyword list." env:"KEYWORDS_FILE" default:""`
	EmbeddingsFile string        `help:"A CSV file with one embedding per keyword." env:"EMBEDDINGS_FILE" default:""`
	RqliteURL      string        `help:"Load keywords from rqlite instead of files." env:"RQLITE_URL" default:""`
	ListenAddr     string        `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:9020"`
	TLSCertFile    string        `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile     string        `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	SessionExpiry  time.Duration `help:"How long a login lasts." env:"SESSION_EXPIRY" default:"12h"`
	LoginRate      float64       `help:"Login attempts allowed per second." env:"LOGIN_RATE" default:"1"`
	LoginBurst     int           `help:"Login attempts allowed in a burst." env:"LOGIN_BURST" default:"5"`
	RetryAttempts  int           `help:"Completion attempts before a rate limit is reported." env:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay     time.Duration `help:"The wait before the first completion retry, doubled after each." env:"RETRY_DELAY" default:"1s"`
	LogLevel       string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	secrets, err := config.LoadSecrets(c.SecretsFile)
	if err != nil {
		return err
	}
	secrets = secrets.With(c.Password, c.APIKey)
	if c.Provider == "ollama" {
		if c.ChatModel == "" {
			return failure.New(failure.Configuration, "a chat model is required with the ollama provider")
		}
		err = secrets.ValidatePassword()
	} else {
		err = secrets.Validate()
	}
	if err != nil {
		return err
	}
	log.Info("loaded secrets", slog.Any("secrets", secrets))

	variants, err := c.loadVariants()
	if err != nil {
		return err
	}
	variants = variants.WithModel(c.ChatModel)

	set, err := c.loadKeywords(ctx, log)
	if err != nil {
		return err
	}
	log.Info("loaded keywords", slog.Int("count", set.Len()), slog.Bool("embeddings", set.HasEmbeddings()))

	log.Info("creating LLM clients", slog.String("provider", c.Provider))
	llm, embedderClient, err := createLLM(c.Provider, c.OllamaURL, c.EmbeddingModel, secrets.APIKey)
	if err != nil {
		return err
	}
	var emb embeddings.Embedder
	if !c.NoEmbeddings && set.HasEmbeddings() {
		if emb, err = embeddings.NewEmbedder(embedderClient); err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	m := metrics.New()
	cc := completion.New(llm,
		completion.WithLogger(log),
		completion.WithRetryPolicy(retry.Policy{MaxAttempts: c.RetryAttempts, BaseDelay: c.RetryDelay, Multiplier: 2}),
		completion.WithOnRetry(m.Retry))
	suggester := suggest.New(emb, set)
	log.Info("keyword suggestions", slog.Bool("available", suggester.Available()))
	generator, err := workflow.New(log, variants, set, cc, suggester, m)
	if err != nil {
		return err
	}

	handler := routes.New(log, routes.Config{
		Gate:          auth.NewGate(secrets.Password),
		Sessions:      auth.NewSessions(c.SessionExpiry),
		Throttle:      auth.NewThrottle(c.LoginRate, c.LoginBurst),
		Generator:     generator,
		Metrics:       m,
		SessionExpiry: c.SessionExpiry,
		SecureCookie:  c.TLSCertFile != "",
	})

	log.Info("Listening", slog.String("addr", c.ListenAddr))
	s := &http.Server{
		Addr:    c.ListenAddr,
		Handler: handler,
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		return s.ListenAndServeTLS(c.TLSCertFile, c.TLSKeyFile)
	}
	return s.ListenAndServe()
}

func (c ServeCommand) loadVariants() (config.Variants, error) {
	if c.VariantsFile == "" {
		return config.DefaultVariants(), nil
	}
	f, err := os.Open(c.VariantsFile)
	if err != nil {
		return config.Variants{}, fmt.Errorf("failed to open variants file: %w", err)
	}
	defer f.Close()
	return config.LoadVariants(f)
}

func (c ServeCommand) loadKeywords(ctx context.Context, log *slog.Logger) (*keywords.Set, error) {
	if c.RqliteURL == "" {
		return keywords.Load(c.KeywordsFile, c.EmbeddingsFile)
	}
	log.Info("loading keywords from database", slog.String("url", c.RqliteURL))
	q, closer, err := openDatabase(log, c.RqliteURL)
	if err != nil {
		return nil, err
	}
	defer closer()
	stored, err := q.KeywordList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywordSet(stored)
}

// keywordSet builds a set from stored keywords. Embeddings are only used when
// every keyword has one.
func keywordSet(stored []db.Keyword) (*keywords.Set, error) {
	kws := make([]string, len(stored))
	embs := make([][]float32, 0, len(stored))
	for i, k := range stored {
		kws[i] = k.Keyword
		if k.Embedding != nil {
			embs = append(embs, k.Embedding)
		}
	}
	if len(embs) != len(kws) {
		embs = nil
	}
	return keywords.New(kws, embs)
}

// createLLM returns the provider's client as both the completion model and
// the embedding client. Ollama embeds with its default model, so the
// embedding model is used there and completions name their model per call.
func createLLM(provider, ollamaURL, embeddingModel, apiKey string) (llms.Model, embeddings.EmbedderClient, error) {
	httpClient := &http.Client{}
	switch provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithModel(embeddingModel),
			ollama.WithHTTPClient(httpClient),
			ollama.WithServerURL(ollamaURL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM: %w", err)
		}
		return llm, llm, nil
	default:
		llm, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithEmbeddingModel(embeddingModel),
			openai.WithHTTPClient(httpClient))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM: %w", err)
		}
		return llm, llm, nil
	}
}

func openDatabase(log *slog.Logger, rqliteURL string) (q *db.Queries, closer func(), err error) {
	databaseURL, err := db.ParseRqliteURL(rqliteURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse rqlite URL: %w", err)
	}
	log.Info("opening database connection", slog.String("url", databaseURL.DataSourceName()))
	conn, err := gorqlite.Open(databaseURL.DataSourceName())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open connection: %w", err)
	}
	log.Info("migrating database schema", slog.String("url", databaseURL.MigrateDatabaseURL()))
	if err = db.Migrate(databaseURL); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db.New(conn), conn.Close, nil
}
