package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tatianab/chaotic-adventures/internal/app"
	"github.com/tatianab/chaotic-adventures/internal/config"
	"github.com/tatianab/chaotic-adventures/internal/models"
	"github.com/tatianab/chaotic-adventures/internal/tui"
)

func main() {
	resume := flag.String("resume", "", "id of a saved adventure to continue")
	list := flag.Bool("list", false, "list saved adventures and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *list {
		ids, err := models.ListSessions(cfg.SaveDir)
		if err != nil {
			fmt.Printf("Error listing saves: %v\n", err)
			os.Exit(1)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	// The alt screen owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, nil))
	slog.SetDefault(logger)

	game, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("Error creating game: %v\n", err)
		os.Exit(1)
	}
	defer game.Close()

	opts := tui.Options{Provider: game.Chain.Info(), SaveDir: cfg.SaveDir, Logger: logger}
	if *resume != "" {
		s, err := models.LoadSession(filepath.Join(cfg.SaveDir, *resume+".json"))
		if err != nil {
			fmt.Printf("Error loading adventure: %v\n", err)
			os.Exit(1)
		}
		opts.Resume = s
	}

	if err := tui.Run(game.Engine, opts); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
