package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/a-h/listingwriter/failure"
	"github.com/pelletier/go-toml/v2"
)

// Secrets are read once at startup and never logged.
type Secrets struct {
	Password string
	APIKey   string
}

// secretsFile mirrors the layout of a Streamlit secrets.toml:
//
//	OPENAI_API_KEY = "sk-..."
//
//	[bot_secrets]
//	password = "..."
type secretsFile struct {
	APIKey     string `toml:"OPENAI_API_KEY"`
	BotSecrets struct {
		Password string `toml:"password"`
	} `toml:"bot_secrets"`
}

// LoadSecrets reads the TOML secrets file. A file that doesn't exist yields
// empty secrets, so that environment overrides can still supply them; Validate
// reports anything left missing.
func LoadSecrets(name string) (s Secrets, err error) {
	if name == "" {
		return s, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, failure.Wrap(failure.Configuration, fmt.Sprintf("failed to read secrets file %q", name), err)
	}
	var sf secretsFile
	if err = toml.Unmarshal(data, &sf); err != nil {
		return s, failure.Wrap(failure.Configuration, fmt.Sprintf("failed to parse secrets file %q", name), err)
	}
	return Secrets{
		Password: sf.BotSecrets.Password,
		APIKey:   sf.APIKey,
	}, nil
}

// With returns a copy of s where each non-empty argument replaces the loaded value.
func (s Secrets) With(password, apiKey string) Secrets {
	if password != "" {
		s.Password = password
	}
	if apiKey != "" {
		s.APIKey = apiKey
	}
	return s
}

// ValidatePassword only checks the access password, for providers that
// don't need an API key.
func (s Secrets) ValidatePassword() error {
	if s.Password == "" {
		return failure.New(failure.Configuration, "the access password is not configured (bot_secrets.password)")
	}
	return nil
}

func (s Secrets) Validate() error {
	if err := s.ValidatePassword(); err != nil {
		return err
	}
	if s.APIKey == "" {
		return failure.New(failure.Configuration, "the LLM API key is not configured (OPENAI_API_KEY)")
	}
	return nil
}

func (s Secrets) String() string {
	return "Secrets{[redacted]}"
}

func (s Secrets) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("password_set", s.Password != ""),
		slog.Bool("api_key_set", s.APIKey != ""),
	)
}
