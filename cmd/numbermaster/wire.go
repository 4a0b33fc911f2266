package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"svw.info/numbermaster/internal/config"
	"svw.info/numbermaster/internal/generator"
	"svw.info/numbermaster/internal/hint"
	"svw.info/numbermaster/internal/infrastructure/storage"
	"svw.info/numbermaster/internal/ports"
	"svw.info/numbermaster/internal/solver"
	"svw.info/numbermaster/internal/usecase"
	"svw.info/numbermaster/internal/validator"
)

// openStorage builds the backend named by the config. The returned func
// releases it.
func openStorage(c *config.Config) (ports.Storage, func() error, error) {
	noop := func() error { return nil }
	switch c.Storage.Driver {
	case "memory":
		return storage.NewMemory(), noop, nil
	case "sqlite":
		path := c.Storage.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "numbermaster.db")
		}
		db, err := storage.NewSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case "fs":
		if err := os.MkdirAll(c.Storage.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return storage.NewFS(c.Storage.Path), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
}

// buildService wires providers -> persistence -> use cases.
func buildService(c *config.Config, log *zap.Logger) (*usecase.Service, func() error, error) {
	st, closeStore, err := openStorage(c)
	if err != nil {
		return nil, nil, err
	}
	p := usecase.NewPersistence(st, validator.New(), log)
	svc := usecase.NewService(
		generator.NewRandomGenerator(c.Game.Seed),
		hint.NewFirstPair(),
		solver.NewBacktrackingSolver(c.Solver.MaxNodes),
		p,
		log,
		usecase.Options{StartLevel: c.Game.StartLevel, Autosave: c.Game.Autosave},
	)
	log.Info("Storage ready", zap.String("driver", c.Storage.Driver), zap.String("path", c.Storage.Path))
	return svc, closeStore, nil
}
