// Package vectorstore opens the vector store selected by configuration.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"unirag/internal/config"
	"unirag/internal/domain"
	"unirag/internal/vectorstore/memory"
	"unirag/internal/vectorstore/qdrant"
	"unirag/internal/vectorstore/sqlite"
)

// Open returns the Storage named by cfg.Type.
func Open(ctx context.Context, cfg config.StoreConfig) (domain.Storage, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "", "sqlite":
		if cfg.SQLite == nil || cfg.SQLite.Path == "" {
			return nil, domain.NewConfigError("store.sqlite.path", "wird für den SQLite-Speicher benötigt")
		}
		return sqlite.Open(ctx, cfg.SQLite.Path)
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, domain.NewConfigError("store.qdrant", "Abschnitt fehlt")
		}
		return qdrant.NewStorage(qdrant.Config{
			Host:    cfg.Qdrant.Host,
			Port:    cfg.Qdrant.Port,
			APIKey:  cfg.Qdrant.APIKey,
			UseTLS:  cfg.Qdrant.UseTLS,
			Timeout: time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store %q: %w", cfg.Type, domain.ErrConfiguration)
	}
}
