package pipeline

import (
	"fmt"

	"github.com/charmbracelet/log"

	"tunegrab/internal/config"
	"tunegrab/internal/fetch"
	"tunegrab/internal/lyrics"
	"tunegrab/internal/metadata"
	"tunegrab/internal/provider"
	"tunegrab/internal/quota"
)

// Build wires a fully configured Orchestrator from the config: quota store
// and gate, fetch engine, metadata provider chain and lyrics client.
func Build(cfg config.Config, logger *log.Logger) (*Orchestrator, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	g := quota.NewGate(store, cfg.AccountID, logger)
	engine := fetch.NewEngine(cfg, logger)

	var enrich enricher
	if clients := provider.Clients(cfg.MetadataProviders); len(clients) > 0 {
		chain := metadata.NewChainProvider(clients, logger)
		enrich = metadata.NewEnricher(chain, logger, 0)
	}

	var lyr lyricsFetcher
	if cfg.EmbedLyrics {
		lyr = lyrics.NewClient()
	}

	return New(cfg, g, engine, enrich, lyr, logger), nil
}

func newStore(cfg config.Config) (quota.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		store, err := quota.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open quota store: %w", err)
		}
		return store, nil
	case "rest":
		return quota.NewRESTStore(cfg.StoreURL), nil
	default:
		return nil, fmt.Errorf("unknown store_backend %q", cfg.StoreBackend)
	}
}
