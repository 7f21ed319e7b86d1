package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/a-h/listingwriter/client"
	"github.com/a-h/listingwriter/models"
)

type SuggestCommand struct {
	ServerURL string `help:"The URL of the listing writer server." env:"LISTINGWRITER_URL" default:"http://localhost:9020"`
	Password  string `help:"The access password. Prompted for if empty." env:"LISTINGWRITER_PASSWORD" default:""`
	Text      string `arg:"" optional:"" help:"The text to suggest keywords for. Read from stdin if empty."`
	TopN      int    `help:"The number of keywords to suggest." default:"5"`
	Pretty    bool   `help:"Pretty print the JSON output." default:"true"`
	LogLevel  string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c SuggestCommand) Run(ctx context.Context) (err error) {
	text, err := readText(c.Text, os.Stdin)
	if err != nil {
		return err
	}
	lwc := client.New(c.ServerURL)
	if err = login(ctx, lwc, c.Password); err != nil {
		return err
	}
	defer lwc.LogoutPost(ctx)

	resp, err := lwc.SuggestPost(ctx, models.SuggestPostRequest{
		Text: text,
		TopN: c.TopN,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if c.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}
