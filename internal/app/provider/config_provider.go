package provider

import (
	"fmt"
	"sync"

	"embeddables/internal/app/port"
	"embeddables/internal/domain/entity"
)

// AssembleFunc builds the Configuration. It runs at most once per provider.
type AssembleFunc func() (entity.Configuration, error)

type configProviderImpl struct {
	assemble AssembleFunc
	logger   port.Logger

	once sync.Once
	cfg  entity.Configuration
	err  error
}

// NewConfigProvider assembles the Configuration and returns a provider that
// serves copies of it. An assembly failure is returned and nothing is
// published.
func NewConfigProvider(assemble AssembleFunc, logger port.Logger) (port.ConfigProvider, error) {
	p := &configProviderImpl{
		assemble: assemble,
		logger:   logger.With("component", "ConfigProvider"),
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *configProviderImpl) init() error {
	p.once.Do(func() {
		cfg, err := p.assemble()
		if err != nil {
			p.logger.Error("Configuration assembly failed", "error", err)
			p.err = fmt.Errorf("assemble configuration: %w", err)
			return
		}
		p.cfg = cfg
		p.logger.Info("Configuration assembled",
			"id", cfg.ID,
			"chainId", cfg.ChainID,
			"collections", len(cfg.Collections))
	})
	return p.err
}

// Configuration implements port.ConfigProvider.
func (p *configProviderImpl) Configuration() entity.Configuration {
	return p.cfg.Clone()
}

// Collection implements port.ConfigProvider.
func (p *configProviderImpl) Collection(id string) (entity.Collection, bool) {
	return p.cfg.Collection(id)
}

// CW721Collections implements port.ConfigProvider.
func (p *configProviderImpl) CW721Collections() []entity.CW721Collection {
	return p.cfg.CW721Collections()
}

// CW20Collections implements port.ConfigProvider.
func (p *configProviderImpl) CW20Collections() []entity.CW20Collection {
	return p.cfg.CW20Collections()
}

// FeaturedCollections implements port.ConfigProvider.
func (p *configProviderImpl) FeaturedCollections() []entity.CW721Collection {
	return p.cfg.FeaturedCollections()
}
