package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"embeddables/internal/app/port"
	"embeddables/internal/domain/entity"
	gql "embeddables/internal/entity"
	"embeddables/internal/pkg/schema"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned when the gateway answers without the requested object.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for malformed query arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

const (
	chainConfigQuery = `query ChainConfig($identifier: String!) {
  chainConfigs {
    config(identifier: $identifier) {
      chainId chainName chainType chainUrl addressPrefix defaultFee kernelAddress registryAddress blockExplorerTxPages
    }
  }
}`

	accountAssetsQuery = `query AccountAssets($walletAddress: String!, $offset: Int!, $limit: Int!) {
  accounts {
    assets(walletAddress: $walletAddress, offset: $offset, limit: $limit) {
      address name chainId adoType owner instantiateHeight lastUpdatedHeight
    }
  }
}`

	nftInfoQuery = `query NftInfo($contractAddress: String!, $tokenId: String!) {
  ADO {
    cw721(address: $contractAddress) {
      nftInfo(tokenId: $tokenId) {
        tokenId owner tokenUri
        metadata { name description image }
      }
    }
  }
}`
)

// QueryServiceOptions configures NewQueryService.
type QueryServiceOptions struct {
	// MaxConcurrentRequests bounds FeaturedTokens fan-out.
	MaxConcurrentRequests int
	// FlightTimeout bounds a gateway request shared by concurrent callers. It
	// runs detached from any single caller's cancellation.
	FlightTimeout time.Duration
}

// queryServiceImpl implements port.QueryService.
type queryServiceImpl struct {
	client   port.GraphQLClient
	cache    port.EntityCache
	config   port.ConfigProvider
	logger   *zap.Logger
	opts     QueryServiceOptions
	inflight singleflight.Group
}

// NewQueryService creates a query service reading through cache.
func NewQueryService(
	client port.GraphQLClient,
	cache port.EntityCache,
	config port.ConfigProvider,
	logger *zap.Logger,
	opts QueryServiceOptions,
) port.QueryService {
	if opts.MaxConcurrentRequests <= 0 {
		opts.MaxConcurrentRequests = 5
	}
	if opts.FlightTimeout <= 0 {
		opts.FlightTimeout = 30 * time.Second
	}
	s := &queryServiceImpl{
		client: client,
		cache:  cache,
		config: config,
		logger: logger.Named("QueryService"),
		opts:   opts,
	}
	s.logger.Info("QueryService initialized", zap.Int("maxConcurrentRequests", opts.MaxConcurrentRequests))
	return s
}

// ChainConfig implements port.QueryService.
func (s *queryServiceImpl) ChainConfig(ctx context.Context, chainID string, policy entity.FetchPolicy) (entity.ChainConfig, error) {
	if chainID == "" {
		return entity.ChainConfig{}, fmt.Errorf("%w: chainId is required", ErrInvalidArgument)
	}
	field := storeFieldName("config", map[string]any{"identifier": chainID})

	if policy != entity.FetchNetworkOnly {
		if cfg, ok := s.cachedChainConfig(field); ok {
			return cfg, nil
		}
	}

	v, err, shared := s.shared(ctx, "ChainConfig:"+chainID, func(ctx context.Context) (any, error) {
		resp, err := s.client.Do(ctx, gql.GraphQLRequest{
			Query:         chainConfigQuery,
			Variables:     map[string]any{"identifier": chainID},
			OperationName: "ChainConfig",
		})
		if err != nil {
			return nil, err
		}
		raw, err := pick(resp.Data, "chainConfigs.config")
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", chainID, err)
		}
		cfg, err := parseRaw[entity.ChainConfig](entity.ChainConfigSchema, raw)
		if err != nil {
			return nil, fmt.Errorf("validate ChainConfig response: %w", err)
		}

		key, err := s.cache.Write(entity.TypeChainConfig, raw)
		if err != nil {
			return nil, fmt.Errorf("cache ChainConfig: %w", err)
		}
		ref, _ := json.Marshal(map[string]string{field: key})
		if _, err := s.cache.Write(entity.TypeChainConfigQuery, ref); err != nil {
			return nil, fmt.Errorf("cache ChainConfigQuery: %w", err)
		}
		return cfg, nil
	})
	if err != nil {
		return entity.ChainConfig{}, err
	}
	s.logger.Debug("Fetched chain config", zap.String("chainId", chainID), zap.Bool("shared", shared))
	return v.(entity.ChainConfig), nil
}

func (s *queryServiceImpl) cachedChainConfig(field string) (entity.ChainConfig, bool) {
	root, ok := s.cache.Read(entity.TypeChainConfigQuery)
	if !ok {
		return entity.ChainConfig{}, false
	}
	var refs map[string]string
	if err := json.Unmarshal(root, &refs); err != nil {
		s.logger.Warn("Unreadable ChainConfigQuery entry", zap.Error(err))
		return entity.ChainConfig{}, false
	}
	key, ok := refs[field]
	if !ok {
		return entity.ChainConfig{}, false
	}
	raw, ok := s.cache.Read(key)
	if !ok {
		return entity.ChainConfig{}, false
	}
	cfg, err := parseRaw[entity.ChainConfig](entity.ChainConfigSchema, raw)
	if err != nil {
		s.logger.Warn("Cached ChainConfig failed validation", zap.String("key", key), zap.Error(err))
		return entity.ChainConfig{}, false
	}
	return cfg, true
}

// AccountAssets implements port.QueryService. Under cache-first a page is
// served from the cache only when the cached list covers it completely.
func (s *queryServiceImpl) AccountAssets(ctx context.Context, walletAddress string, offset, limit int, policy entity.FetchPolicy) ([]entity.AssetResult, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("%w: walletAddress is required", ErrInvalidArgument)
	}
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: offset must be >= 0 and limit > 0", ErrInvalidArgument)
	}
	partition := map[string]any{"walletAddress": walletAddress}

	if policy != entity.FetchNetworkOnly {
		if raw, ok := s.cache.ReadField(entity.TypeAccountsQuery, "assets", partition); ok {
			items := gjson.ParseBytes(raw).Array()
			if offset <= len(items) && len(items)-offset >= limit {
				pageRaw := joinRaw(items[offset : offset+limit])
				assets, err := parseRaw[[]entity.AssetResult](schema.Array[entity.AssetResult](entity.AssetResultSchema), pageRaw)
				if err == nil {
					return assets, nil
				}
				s.logger.Warn("Cached assets failed validation", zap.String("wallet", walletAddress), zap.Error(err))
			}
		}
	}

	flightKey := fmt.Sprintf("AccountAssets:%s:%d:%d", walletAddress, offset, limit)
	v, err, _ := s.shared(ctx, flightKey, func(ctx context.Context) (any, error) {
		args := map[string]any{"walletAddress": walletAddress, "offset": offset, "limit": limit}
		resp, err := s.client.Do(ctx, gql.GraphQLRequest{
			Query:         accountAssetsQuery,
			Variables:     args,
			OperationName: "AccountAssets",
		})
		if err != nil {
			return nil, err
		}
		raw, err := pick(resp.Data, "accounts.assets")
		if err != nil {
			return nil, fmt.Errorf("assets of %s: %w", walletAddress, err)
		}
		assets, err := parseRaw[[]entity.AssetResult](schema.Array[entity.AssetResult](entity.AssetResultSchema), raw)
		if err != nil {
			return nil, fmt.Errorf("validate AccountAssets response: %w", err)
		}
		if err := s.cache.WriteField(entity.TypeAccountsQuery, "assets", args, raw); err != nil {
			return nil, fmt.Errorf("cache assets: %w", err)
		}
		return assets, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.AssetResult), nil
}

// NftInfo implements port.QueryService. Tokens are identified by tokenId
// alone, so equal ids from different contracts share a cache entry.
func (s *queryServiceImpl) NftInfo(ctx context.Context, contractAddress, tokenID string, policy entity.FetchPolicy) (entity.NftInfo, error) {
	if contractAddress == "" || tokenID == "" {
		return entity.NftInfo{}, fmt.Errorf("%w: contract and tokenId are required", ErrInvalidArgument)
	}

	if policy != entity.FetchNetworkOnly {
		probe, _ := json.Marshal(map[string]string{"tokenId": tokenID})
		if key, err := s.cache.Identify(entity.TypeNftInfo, probe); err == nil {
			if raw, ok := s.cache.Read(key); ok {
				if nft, err := parseRaw[entity.NftInfo](entity.NftInfoSchema, raw); err == nil {
					return nft, nil
				}
			}
		}
	}

	v, err, _ := s.shared(ctx, "NftInfo:"+contractAddress+":"+tokenID, func(ctx context.Context) (any, error) {
		resp, err := s.client.Do(ctx, gql.GraphQLRequest{
			Query:         nftInfoQuery,
			Variables:     map[string]any{"contractAddress": contractAddress, "tokenId": tokenID},
			OperationName: "NftInfo",
		})
		if err != nil {
			return nil, err
		}
		raw, err := pick(resp.Data, "ADO.cw721.nftInfo")
		if err != nil {
			return nil, fmt.Errorf("token %s of %s: %w", tokenID, contractAddress, err)
		}
		nft, err := parseRaw[entity.NftInfo](entity.NftInfoSchema, raw)
		if err != nil {
			return nil, fmt.Errorf("validate NftInfo response: %w", err)
		}
		if _, err := s.cache.Write(entity.TypeNftInfo, raw); err != nil {
			return nil, fmt.Errorf("cache NftInfo: %w", err)
		}
		return nft, nil
	})
	if err != nil {
		return entity.NftInfo{}, err
	}
	return v.(entity.NftInfo), nil
}

// FeaturedTokens implements port.QueryService.
func (s *queryServiceImpl) FeaturedTokens(ctx context.Context, policy entity.FetchPolicy) ([]entity.FeaturedToken, []entity.TokenError) {
	featured := s.config.FeaturedCollections()
	tokens := make([]*entity.FeaturedToken, len(featured))

	var mu sync.Mutex
	var failures []entity.TokenError

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.MaxConcurrentRequests)
	for i, col := range featured {
		i, col := i, col
		eg.Go(func() error {
			nft, err := s.NftInfo(egCtx, col.CW721(), col.FeaturedToken(), policy)
			if err != nil {
				s.logger.Error("Failed to fetch featured token",
					zap.String("collection", col.Base().ID),
					zap.String("tokenId", col.FeaturedToken()),
					zap.Error(err))
				mu.Lock()
				failures = append(failures, entity.TokenError{
					CollectionID: col.Base().ID,
					Contract:     col.CW721(),
					TokenID:      col.FeaturedToken(),
					Message:      err.Error(),
				})
				mu.Unlock()
				return nil
			}
			tokens[i] = &entity.FeaturedToken{CollectionID: col.Base().ID, Contract: col.CW721(), Nft: nft}
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]entity.FeaturedToken, 0, len(tokens))
	for _, t := range tokens {
		if t != nil {
			out = append(out, *t)
		}
	}
	s.logger.Info("Featured tokens fetched", zap.Int("tokenCount", len(out)), zap.Int("errorCount", len(failures)))
	return out, failures
}

// shared runs fn once for every concurrent caller of key. fn gets a context
// that outlives the caller that started it; each caller still returns as soon
// as its own ctx is done.
func (s *queryServiceImpl) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	ch := s.inflight.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FlightTimeout)
		defer cancel()
		return fn(flightCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err, res.Shared
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}

// pick extracts the object at path from a response's data, failing with
// ErrNotFound when it is absent or null.
func pick(data []byte, path string) ([]byte, error) {
	res := gjson.GetBytes(data, path)
	if !res.Exists() || res.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s missing from response", ErrNotFound, path)
	}
	return []byte(res.Raw), nil
}

// parseRaw decodes raw JSON and validates it against s.
func parseRaw[T any](s schema.Schema[T], raw []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	return s.Parse(v)
}

func joinRaw(items []gjson.Result) []byte {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(it.Raw)
	}
	b.WriteByte(']')
	return b.Bytes()
}

// storeFieldName names a field of a query root by its arguments.
func storeFieldName(field string, args map[string]any) string {
	b, _ := json.Marshal(args)
	return field + "(" + string(b) + ")"
}
