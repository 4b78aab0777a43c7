package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"fable/internal/api"
	"fable/internal/config"
	"fable/internal/db"
	"fable/internal/logging"
	"fable/internal/stream"
	"fable/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := db.Open()
	if err != nil {
		// Recents are a convenience; the app runs without them.
		log.Warn("recents store unavailable", zap.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	client := api.NewClient(cfg.Server.URL, api.RetryConfig{
		MaxAttempts: cfg.Server.RetryAttempts,
		BaseDelay:   cfg.RetryDelay(),
		MaxDelay:    5 * time.Second,
	}, log)

	streams := stream.NewClient(stream.Options{
		StallTimeout: cfg.StallTimeout(),
		Logger:       log,
	})

	m := ui.New(ui.Deps{
		Config: cfg,
		Log:    log,
		Store:  store,
		API:    client,
		Stream: streams,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
