package metadata

import (
	"context"

	"github.com/charmbracelet/log"
)

// ChainProvider tries multiple providers in order, returning results from
// the first one that succeeds with non-empty results.
type ChainProvider struct {
	providers []Provider
	log       *log.Logger
}

// NewChainProvider creates a ChainProvider that queries providers in order.
func NewChainProvider(providers []Provider, logger *log.Logger) *ChainProvider {
	return &ChainProvider{providers: providers, log: logger}
}

func (c *ChainProvider) Name() string { return "chain" }

func (c *ChainProvider) Search(ctx context.Context, query SearchQuery) ([]TrackInfo, error) {
	for _, p := range c.providers {
		results, err := p.Search(ctx, query)
		if err != nil {
			c.log.Debug("metadata provider failed", "provider", p.Name(), "err", err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}
