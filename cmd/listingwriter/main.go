package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/a-h/listingwriter/failure"
	"github.com/alecthomas/kong"
)

type CLI struct {
	Serve    ServeCommand    `cmd:"serve" help:"Start the listing writer server."`
	Generate GenerateCommand `cmd:"generate" help:"Generate a product description."`
	Suggest  SuggestCommand  `cmd:"suggest" help:"Suggest keywords for a product description."`
	Write    WriteCommand    `cmd:"write" help:"Write product descriptions interactively."`
	Import   ImportCommand   `cmd:"import" help:"Import keywords and embeddings into rqlite."`
	Version  VersionCommand  `cmd:"version" help:"Print the version of the listing writer."`
}

func main() {
	var cli CLI
	ctx := context.Background()
	kctx := kong.Parse(&cli, kong.UsageOnError(), kong.BindTo(ctx, (*context.Context)(nil)))
	if err := kctx.Run(); err != nil {
		if kind, ok := failure.KindOf(err); ok && kind != failure.Configuration {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		log := getLogger("error")
		log.Error("error", slog.Any("error", err))
		os.Exit(1)
	}
}

func getLogger(level string) *slog.Logger {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "info":
		ll = slog.LevelInfo
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ll,
	}))
}
