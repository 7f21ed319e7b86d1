package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a-h/listingwriter/client"
	"github.com/a-h/listingwriter/models"
)

type GenerateCommand struct {
	ServerURL string   `help:"The URL of the listing writer server." env:"LISTINGWRITER_URL" default:"http://localhost:9020"`
	Password  string   `help:"The access password. Prompted for if empty." env:"LISTINGWRITER_PASSWORD" default:""`
	Text      string   `arg:"" optional:"" help:"The product description to work from. Read from stdin if empty."`
	Variant   string   `help:"The prompt variant to use." default:""`
	Keywords  []string `help:"Keywords to include, replacing the stored list."`
	Suggest   bool     `help:"Also suggest keywords." default:"false"`
	TopN      int      `help:"The number of keywords to suggest." default:"5"`
	Raw       bool     `help:"Also print the unformatted LLM output." default:"false"`
	LogLevel  string   `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c GenerateCommand) Run(ctx context.Context) (err error) {
	text, err := readText(c.Text, os.Stdin)
	if err != nil {
		return err
	}
	lwc := client.New(c.ServerURL)
	if err = login(ctx, lwc, c.Password); err != nil {
		return err
	}
	defer lwc.LogoutPost(ctx)

	resp, err := lwc.GeneratePost(ctx, models.GeneratePostRequest{
		Text:     text,
		Variant:  c.Variant,
		Keywords: c.Keywords,
		Suggest:  c.Suggest,
		TopN:     c.TopN,
	})
	if err != nil {
		return err
	}
	printGenerated(os.Stdout, resp, c.Raw)
	return nil
}

func printGenerated(w io.Writer, resp models.GeneratePostResponse, raw bool) {
	fmt.Fprintln(w, resp.Formatted)
	if raw {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Raw output:")
		fmt.Fprintln(w, resp.Raw)
	}
	if len(resp.Keywords) > 0 {
		names := make([]string, len(resp.Keywords))
		for i, k := range resp.Keywords {
			names[i] = k.Keyword
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(names, ", "))
	}
	if resp.SuggestionError != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Keyword suggestions unavailable: %s\n", resp.SuggestionError)
	}
}
