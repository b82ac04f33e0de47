package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/study/memory"
	"github.com/aschepis/backscratcher/study/memory/mem0"
	"github.com/aschepis/backscratcher/study/migrations"
)

// OpenMemory builds the memory store selected by memory.backend.
// The returned close function releases the backend and is never nil.
func OpenMemory(cfg *Config, logger zerolog.Logger) (*memory.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		backend memory.Backend
		closeFn = noop
	)
	switch cfg.Memory.Backend {
	case MemoryBackendSQLite:
		path := expandPath(cfg.Memory.DBPath)
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, noop, fmt.Errorf("failed to create memory directory: %w", err)
			}
		}
		db, err := memory.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		if err := migrations.RunMigrations(db, logger); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("failed to migrate memory database: %w", err)
		}
		backend = memory.NewSQLiteBackend(db, logger)
		closeFn = db.Close
	case MemoryBackendMem0:
		client, err := mem0.NewClient(cfg.Memory.Mem0APIKey, cfg.Memory.Mem0BaseURL, nil, logger)
		if err != nil {
			return nil, noop, err
		}
		backend = client
	default:
		return nil, noop, fmt.Errorf("unknown memory backend %q", cfg.Memory.Backend)
	}

	store, err := memory.NewStore(backend, cfg.Scope(), logger, memory.WithWindow(cfg.Window()))
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return store, closeFn, nil
}
