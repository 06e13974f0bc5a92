package port

import (
	"context"

	"embeddables/internal/domain/entity"
	gql "embeddables/internal/entity"
)

// GraphQLClient sends one request to the GraphQL gateway.
type GraphQLClient interface {
	Do(ctx context.Context, req gql.GraphQLRequest) (*gql.GraphQLResponse, error)
}

// QueryService answers the widget's GraphQL queries through the cache.
type QueryService interface {
	ChainConfig(ctx context.Context, chainID string, policy entity.FetchPolicy) (entity.ChainConfig, error)
	AccountAssets(ctx context.Context, walletAddress string, offset, limit int, policy entity.FetchPolicy) ([]entity.AssetResult, error)
	NftInfo(ctx context.Context, contractAddress, tokenID string, policy entity.FetchPolicy) (entity.NftInfo, error)
	// FeaturedTokens fetches the featured NFT of every CW721 collection. Per-token
	// failures are reported alongside the tokens that did load.
	FeaturedTokens(ctx context.Context, policy entity.FetchPolicy) ([]entity.FeaturedToken, []entity.TokenError)
}
