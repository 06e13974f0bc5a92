package entity

import (
	"strconv"
	"time"

	"embeddables/internal/pkg/schema"
)

// ShareUrlsSchema validates ShareUrls.
var ShareUrlsSchema = schema.Object(
	schema.Optional("twitter", schema.String(), func(s *ShareUrls, v string) { s.Twitter = v }),
)

// BaseCollectionSchema validates the properties shared by all collections.
var BaseCollectionSchema = schema.Object(
	schema.Required("id", schema.String(), func(b *BaseCollection, v string) { b.ID = v }),
	schema.Required("name", schema.String(), func(b *BaseCollection, v string) { b.Name = v }),
	schema.Optional("description", schema.String(), func(b *BaseCollection, v string) { b.Description = v }),
).With(schema.Embed(func(b *BaseCollection) *ShareUrls { return &b.ShareUrls }, ShareUrlsSchema.Fields()...)...)

// CollectionTypeSchema validates the discriminator enumeration on its own.
var CollectionTypeSchema = schema.Enum(CollectionTypes...)

func baseFields[T any](get func(*T) *BaseCollection) []schema.Field[T] {
	return schema.Embed(get, BaseCollectionSchema.Fields()...)
}

// AuctionCollectionSchema validates an auction collection.
var AuctionCollectionSchema = schema.Object(
	schema.Required("auction", schema.String(), func(c *AuctionCollection, v string) { c.Auction = v }),
	schema.Required("cw721", schema.String(), func(c *AuctionCollection, v string) { c.Cw721 = v }),
	schema.Optional("featured", schema.String(), func(c *AuctionCollection, v string) { c.Featured = v }),
	schema.Required("type", schema.Literal(CollectionTypeAuction), func(c *AuctionCollection, v CollectionType) { c.Type = v }),
).With(baseFields(func(c *AuctionCollection) *BaseCollection { return &c.BaseCollection })...)

// MarketplaceCollectionSchema validates a marketplace collection.
var MarketplaceCollectionSchema = schema.Object(
	schema.Required("marketplace", schema.String(), func(c *MarketplaceCollection, v string) { c.Marketplace = v }),
	schema.Required("cw721", schema.String(), func(c *MarketplaceCollection, v string) { c.Cw721 = v }),
	schema.Optional("featured", schema.String(), func(c *MarketplaceCollection, v string) { c.Featured = v }),
	schema.Required("type", schema.Literal(CollectionTypeMarketplace), func(c *MarketplaceCollection, v CollectionType) { c.Type = v }),
).With(baseFields(func(c *MarketplaceCollection) *BaseCollection { return &c.BaseCollection })...)

// CrowdfundCollectionSchema validates a crowdfund collection.
var CrowdfundCollectionSchema = schema.Object(
	schema.Required("crowdfund", schema.String(), func(c *CrowdfundCollection, v string) { c.Crowdfund = v }),
	schema.Required("cw721", schema.String(), func(c *CrowdfundCollection, v string) { c.Cw721 = v }),
	schema.Optional("featured", schema.String(), func(c *CrowdfundCollection, v string) { c.Featured = v }),
	schema.Required("type", schema.Literal(CollectionTypeCrowdfund), func(c *CrowdfundCollection, v CollectionType) { c.Type = v }),
).With(baseFields(func(c *CrowdfundCollection) *BaseCollection { return &c.BaseCollection })...)

// ExchangeCollectionSchema validates an exchange collection.
var ExchangeCollectionSchema = schema.Object(
	schema.Required("exchange", schema.String(), func(c *ExchangeCollection, v string) { c.Exchange = v }),
	schema.Required("cw20", schema.String(), func(c *ExchangeCollection, v string) { c.Cw20 = v }),
	schema.Required("type", schema.Literal(CollectionTypeExchange), func(c *ExchangeCollection, v CollectionType) { c.Type = v }),
).With(baseFields(func(c *ExchangeCollection) *BaseCollection { return &c.BaseCollection })...)

// CollectionSchema validates any collection, selecting the variant by "type".
var CollectionSchema = schema.DiscriminatedUnion[Collection]("type",
	schema.Case(CollectionTypeAuction, AuctionCollectionSchema, func(c AuctionCollection) Collection { return c }),
	schema.Case(CollectionTypeMarketplace, MarketplaceCollectionSchema, func(c MarketplaceCollection) Collection { return c }),
	schema.Case(CollectionTypeCrowdfund, CrowdfundCollectionSchema, func(c CrowdfundCollection) Collection { return c }),
	schema.Case(CollectionTypeExchange, ExchangeCollectionSchema, func(c ExchangeCollection) Collection { return c }),
)

// ConfigurationSchema validates a complete, assembled configuration document.
var ConfigurationSchema = schema.Object(
	schema.Required("name", schema.String(), func(c *Configuration, v string) { c.Name = v }),
	schema.Required("chainId", schema.String(), func(c *Configuration, v string) { c.ChainID = v }),
	schema.Required("coinDenom", schema.String(), func(c *Configuration, v string) { c.CoinDenom = v }),
	schema.Required("collections", schema.Array[Collection](CollectionSchema), func(c *Configuration, v []Collection) { c.Collections = v }),
	schema.Required("id", schema.String(), func(c *Configuration, v string) { c.ID = v }),
	schema.Required("createdDate", schema.Timestamp(), func(c *Configuration, v time.Time) { c.CreatedDate = v }),
	schema.Required("modifiedDate", schema.Timestamp(), func(c *Configuration, v time.Time) { c.ModifiedDate = v }),
	schema.Optional("banner", schema.String(), func(c *Configuration, v string) { c.Banner = v }),
	schema.Optional("description", schema.String(), func(c *Configuration, v string) { c.Description = v }),
).With(schema.Embed(func(c *Configuration) *ShareUrls { return &c.ShareUrls }, ShareUrlsSchema.Fields()...)...).
	Refine(uniqueCollectionIDs)

func uniqueCollectionIDs(c Configuration) schema.Issues {
	var iss schema.Issues
	seen := make(map[string]int, len(c.Collections))
	for i, col := range c.Collections {
		id := col.Base().ID
		if first, dup := seen[id]; dup {
			iss = append(iss, schema.Issue{
				Path:     "/collections/" + strconv.Itoa(i) + "/id",
				Code:     schema.CodeDuplicate,
				Expected: "unique collection id",
				Actual:   id,
				Message:  "collection id already used at /collections/" + strconv.Itoa(first),
			})
			continue
		}
		seen[id] = i
	}
	return iss
}

// ChainConfigSchema validates a ChainConfig response object.
var ChainConfigSchema = schema.Object(
	schema.Nullish("chainId", schema.String(), func(c *ChainConfig, v string) { c.ChainID = v }),
	schema.Nullish("chainName", schema.String(), func(c *ChainConfig, v string) { c.ChainName = v }),
	schema.Nullish("chainType", schema.String(), func(c *ChainConfig, v string) { c.ChainType = v }),
	schema.Nullish("chainUrl", schema.String(), func(c *ChainConfig, v string) { c.ChainURL = v }),
	schema.Nullish("addressPrefix", schema.String(), func(c *ChainConfig, v string) { c.AddressPrefix = v }),
	schema.Nullish("defaultFee", schema.String(), func(c *ChainConfig, v string) { c.DefaultFee = v }),
	schema.Nullish("kernelAddress", schema.String(), func(c *ChainConfig, v string) { c.KernelAddress = v }),
	schema.Nullish("registryAddress", schema.String(), func(c *ChainConfig, v string) { c.RegistryAddress = v }),
	schema.Nullish("blockExplorerTxPages", schema.Array(schema.String()), func(c *ChainConfig, v []string) { c.BlockExplorerTxPages = v }),
)

// AssetResultSchema validates an AssetResult response object.
var AssetResultSchema = schema.Object(
	schema.Nullish("address", schema.String(), func(a *AssetResult, v string) { a.Address = v }),
	schema.Nullish("name", schema.String(), func(a *AssetResult, v string) { a.Name = v }),
	schema.Nullish("chainId", schema.String(), func(a *AssetResult, v string) { a.ChainID = v }),
	schema.Nullish("adoType", schema.String(), func(a *AssetResult, v string) { a.AdoType = v }),
	schema.Nullish("owner", schema.String(), func(a *AssetResult, v string) { a.Owner = v }),
	schema.Nullish("instantiateHeight", schema.Int(), func(a *AssetResult, v int64) { a.InstantiateHeight = v }),
	schema.Nullish("lastUpdatedHeight", schema.Int(), func(a *AssetResult, v int64) { a.LastUpdatedHeight = v }),
)

// NftMetadataSchema validates the metadata extension of an NftInfo.
var NftMetadataSchema = schema.Object(
	schema.Nullish("name", schema.String(), func(m *NftMetadata, v string) { m.Name = v }),
	schema.Nullish("description", schema.String(), func(m *NftMetadata, v string) { m.Description = v }),
	schema.Nullish("image", schema.String(), func(m *NftMetadata, v string) { m.Image = v }),
)

// NftInfoSchema validates an NftInfo response object.
var NftInfoSchema = schema.Object(
	schema.Nullish("tokenId", schema.String(), func(n *NftInfo, v string) { n.TokenID = v }),
	schema.Nullish("owner", schema.String(), func(n *NftInfo, v string) { n.Owner = v }),
	schema.Nullish("tokenUri", schema.String(), func(n *NftInfo, v string) { n.TokenURI = v }),
	schema.Nullish("metadata", NftMetadataSchema, func(n *NftInfo, v NftMetadata) { n.Metadata = &v }),
)

// ParseCollection validates v against the collection union.
func ParseCollection(v any) (Collection, error) {
	return CollectionSchema.Parse(v)
}

// ParseConfiguration validates v against the configuration schema.
func ParseConfiguration(v any) (Configuration, error) {
	return ConfigurationSchema.Parse(v)
}
