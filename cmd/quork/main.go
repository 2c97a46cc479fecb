package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/quorkbot/quork/internal/api"
	"github.com/quorkbot/quork/internal/bot"
	"github.com/quorkbot/quork/internal/config"
	"github.com/quorkbot/quork/internal/permissions"
	"github.com/quorkbot/quork/internal/quotes"
	"github.com/quorkbot/quork/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	environment := os.Getenv("ENV")
	if environment == "" {
		environment = "development"
	}

	level := slog.LevelInfo
	if environment == "development" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	cfg, err := config.Load(environment)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Discord.Token == "" {
		slog.Error("no discord token configured, set QUORK_DISCORD__TOKEN")
		os.Exit(1)
	}

	slog.Info("starting quork", "environment", environment)

	// A dead database does not keep the bot offline: it connects anyway
	// and answers quote commands with a degraded-mode notice.
	db, err := storage.Connect(&cfg.Database)
	if err != nil {
		slog.Error("running without a database, quote features disabled", "error", err)
	} else {
		defer func() {
			if err := db.Close(); err != nil {
				slog.Warn("error closing database", "error", err)
			}
		}()
		if err := db.AutoMigrate(&quotes.Quote{}, &quotes.Vote{}, &permissions.Grant{}); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	quork, err := bot.New(cfg, db)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return quork.Run(ctx)
	})
	if cfg.API.Enabled && db != nil {
		server := api.New(&cfg.API, quotes.NewStore(db.DB))
		group.Go(func() error {
			return server.Run(ctx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	slog.Info("goodbye")
}
