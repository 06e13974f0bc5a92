package provider

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"embeddables/internal/domain/entity"
	"embeddables/internal/infrastructure/configloader"
	"embeddables/internal/pkg/logger"
	"embeddables/internal/pkg/schema"
)

func testBase() map[string]any {
	return map[string]any{
		"name":      "Embeddable",
		"chainId":   "galileo-3",
		"coinDenom": "uandr",
		"collections": []any{
			map[string]any{"type": "embeddables-auction", "id": "a1", "name": "A", "auction": "andr1a", "cw721": "andr1n", "featured": "7"},
			map[string]any{"type": "embeddables-crowdfund", "id": "c1", "name": "C", "crowdfund": "andr1c", "cw721": "andr1n"},
			map[string]any{"type": "embeddables-exchange", "id": "e1", "name": "E", "exchange": "andr1e", "cw20": "andr1t"},
		},
	}
}

func TestConfigProvider(t *testing.T) {
	calls := 0
	p, err := NewConfigProvider(func() (entity.Configuration, error) {
		calls++
		return configloader.Assemble("test", testBase(), time.Now())
	}, logger.NewAdapter(zap.NewNop()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "galileo-3", p.Configuration().ChainID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)

	assert.Len(t, p.CW721Collections(), 2)
	assert.Len(t, p.CW20Collections(), 1)
	require.Len(t, p.FeaturedCollections(), 1)
	assert.Equal(t, "a1", p.FeaturedCollections()[0].Base().ID)

	col, ok := p.Collection("c1")
	require.True(t, ok)
	assert.Equal(t, entity.CollectionTypeCrowdfund, col.CollectionType())
}

func TestConfigProvider_ReturnsCopies(t *testing.T) {
	p, err := NewConfigProvider(func() (entity.Configuration, error) {
		return configloader.Assemble("test", testBase(), time.Now())
	}, logger.NewAdapter(zap.NewNop()))
	require.NoError(t, err)

	cfg := p.Configuration()
	cfg.Name = "changed"
	cfg.Collections[0] = entity.ExchangeCollection{}

	again := p.Configuration()
	assert.Equal(t, "Embeddable", again.Name)
	assert.Equal(t, entity.CollectionTypeAuction, again.Collections[0].CollectionType())
}

func TestConfigProvider_AssemblyFailure(t *testing.T) {
	base := testBase()
	delete(base, "chainId")

	p, err := NewConfigProvider(func() (entity.Configuration, error) {
		return configloader.Assemble("test", base, time.Now())
	}, logger.NewAdapter(zap.NewNop()))
	require.Error(t, err)
	assert.Nil(t, p)

	var assemblyErr *configloader.AssemblyError
	assert.True(t, errors.As(err, &assemblyErr))
	assert.True(t, errors.Is(err, schema.ErrSchemaViolation))
}
