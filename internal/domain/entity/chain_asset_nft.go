package entity

// Typenames of the cacheable GraphQL objects.
const (
	TypeChainConfig      = "ChainConfig"
	TypeChainConfigQuery = "ChainConfigQuery"
	TypeAccountsQuery    = "AccountsQuery"
	TypeAssetResult      = "AssetResult"
	TypeNftInfo          = "NftInfo"
)

// ChainConfig describes one chain known to the GraphQL gateway.
type ChainConfig struct {
	ChainID              string   `json:"chainId,omitempty"`
	ChainName            string   `json:"chainName,omitempty"`
	ChainType            string   `json:"chainType,omitempty"`
	ChainURL             string   `json:"chainUrl,omitempty"`
	AddressPrefix        string   `json:"addressPrefix,omitempty"`
	DefaultFee           string   `json:"defaultFee,omitempty"`
	KernelAddress        string   `json:"kernelAddress,omitempty"`
	RegistryAddress      string   `json:"registryAddress,omitempty"`
	BlockExplorerTxPages []string `json:"blockExplorerTxPages,omitempty"`
}

// AssetResult is one ADO owned by a wallet.
type AssetResult struct {
	Address           string `json:"address,omitempty"`
	Name              string `json:"name,omitempty"`
	ChainID           string `json:"chainId,omitempty"`
	AdoType           string `json:"adoType,omitempty"`
	Owner             string `json:"owner,omitempty"`
	InstantiateHeight int64  `json:"instantiateHeight,omitempty"`
	LastUpdatedHeight int64  `json:"lastUpdatedHeight,omitempty"`
}

// NftMetadata is the token metadata extension.
type NftMetadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// NftInfo is a single CW721 token.
type NftInfo struct {
	TokenID  string       `json:"tokenId,omitempty"`
	Owner    string       `json:"owner,omitempty"`
	TokenURI string       `json:"tokenUri,omitempty"`
	Metadata *NftMetadata `json:"metadata,omitempty"`
}

// FeaturedToken is the featured NFT of one CW721 collection.
type FeaturedToken struct {
	CollectionID string  `json:"collectionId"`
	Contract     string  `json:"contract"`
	Nft          NftInfo `json:"nft"`
}
