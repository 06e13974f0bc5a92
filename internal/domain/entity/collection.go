package entity

// CollectionType is the discriminator literal of a Collection.
type CollectionType string

const (
	CollectionTypeAuction     CollectionType = "embeddables-auction"
	CollectionTypeMarketplace CollectionType = "embeddables-marketplace"
	CollectionTypeCrowdfund   CollectionType = "embeddables-crowdfund"
	CollectionTypeExchange    CollectionType = "embeddables-exchange"
)

// CollectionTypes lists every kind in enumeration order.
var CollectionTypes = []CollectionType{
	CollectionTypeAuction,
	CollectionTypeMarketplace,
	CollectionTypeCrowdfund,
	CollectionTypeExchange,
}

// ShareUrls holds optional social-sharing links.
type ShareUrls struct {
	Twitter string `json:"twitter,omitempty"`
}

// BaseCollection holds the properties shared by every collection kind.
type BaseCollection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ShareUrls
}

// Collection is the closed set of collection kinds. Only the types declared in
// this package implement it.
type Collection interface {
	CollectionType() CollectionType
	Base() BaseCollection
	isCollection()
}

// CW721Collection is a collection trading non-fungible tokens.
type CW721Collection interface {
	Collection
	CW721() string
	FeaturedToken() string
}

// CW20Collection is a collection trading a fungible token.
type CW20Collection interface {
	Collection
	CW20() string
}

// AuctionCollection sells NFTs through an auction contract.
type AuctionCollection struct {
	Type     CollectionType `json:"type"`
	Auction  string         `json:"auction"`
	Cw721    string         `json:"cw721"`
	Featured string         `json:"featured,omitempty"`
	BaseCollection
}

// MarketplaceCollection sells NFTs through a marketplace contract.
type MarketplaceCollection struct {
	Type        CollectionType `json:"type"`
	Marketplace string         `json:"marketplace"`
	Cw721       string         `json:"cw721"`
	Featured    string         `json:"featured,omitempty"`
	BaseCollection
}

// CrowdfundCollection mints NFTs through a crowdfund contract.
type CrowdfundCollection struct {
	Type      CollectionType `json:"type"`
	Crowdfund string         `json:"crowdfund"`
	Cw721     string         `json:"cw721"`
	Featured  string         `json:"featured,omitempty"`
	BaseCollection
}

// ExchangeCollection sells a CW20 token through an exchange contract.
type ExchangeCollection struct {
	Type     CollectionType `json:"type"`
	Exchange string         `json:"exchange"`
	Cw20     string         `json:"cw20"`
	BaseCollection
}

func (c AuctionCollection) CollectionType() CollectionType     { return CollectionTypeAuction }
func (c MarketplaceCollection) CollectionType() CollectionType { return CollectionTypeMarketplace }
func (c CrowdfundCollection) CollectionType() CollectionType   { return CollectionTypeCrowdfund }
func (c ExchangeCollection) CollectionType() CollectionType    { return CollectionTypeExchange }

func (c AuctionCollection) Base() BaseCollection     { return c.BaseCollection }
func (c MarketplaceCollection) Base() BaseCollection { return c.BaseCollection }
func (c CrowdfundCollection) Base() BaseCollection   { return c.BaseCollection }
func (c ExchangeCollection) Base() BaseCollection    { return c.BaseCollection }

func (AuctionCollection) isCollection()     {}
func (MarketplaceCollection) isCollection() {}
func (CrowdfundCollection) isCollection()   {}
func (ExchangeCollection) isCollection()    {}

func (c AuctionCollection) CW721() string     { return c.Cw721 }
func (c MarketplaceCollection) CW721() string { return c.Cw721 }
func (c CrowdfundCollection) CW721() string   { return c.Cw721 }

func (c AuctionCollection) FeaturedToken() string     { return c.Featured }
func (c MarketplaceCollection) FeaturedToken() string { return c.Featured }
func (c CrowdfundCollection) FeaturedToken() string   { return c.Featured }

func (c ExchangeCollection) CW20() string { return c.Cw20 }

// AsCW721 narrows c to the non-fungible kinds.
func AsCW721(c Collection) (CW721Collection, bool) {
	nft, ok := c.(CW721Collection)
	return nft, ok
}

// AsCW20 narrows c to the fungible kind.
func AsCW20(c Collection) (CW20Collection, bool) {
	ft, ok := c.(CW20Collection)
	return ft, ok
}
