// Package app wires the configured collaborators into a game engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/config"
	"github.com/tatianab/chaotic-adventures/internal/engine"
	"github.com/tatianab/chaotic-adventures/internal/memory"
	"github.com/tatianab/chaotic-adventures/internal/prompts"
	"github.com/tatianab/chaotic-adventures/internal/provider"
	"github.com/tatianab/chaotic-adventures/internal/rules"
)

// App is a ready-to-play engine and the resources behind it.
type App struct {
	Engine  *engine.Engine
	Chain   *provider.Chain
	Catalog *rules.Catalog
	Store   memory.Store
	Seed    int64

	closers []io.Closer
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := loadCatalog(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	renderer, err := prompts.NewRenderer()
	if err != nil {
		return nil, err
	}

	a := &App{Catalog: catalog}
	a.Chain = provider.Build(ctx, cfg.ProviderSettings(catalog.TierModels()), logger)
	if c, ok := a.Chain.Primary().(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	switch cfg.MemoryBackend {
	case "sqlite":
		db, err := memory.OpenSQLite(cfg.MemoryDBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		a.Store = db
		a.closers = append(a.closers, db)
	default:
		a.Store = memory.NewFileStore(cfg.MemoryDir)
	}

	a.Seed = cfg.Seed
	if a.Seed == 0 {
		if a.Seed, err = chance.NewSeed(); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Engine, err = engine.NewEngine(engine.Deps{
		Catalog:   catalog,
		Generator: a.Chain,
		Renderer:  renderer,
		Store:     a.Store,
		Rand:      chance.New(a.Seed),
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("game ready", "provider", a.Chain.Info().Provider, "memory", cfg.MemoryBackend, "seed", a.Seed)
	return a, nil
}

func loadCatalog(path string) (*rules.Catalog, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.Load(path)
}

// Close releases the store and provider clients.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
