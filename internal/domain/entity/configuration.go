package entity

import "time"

// Configuration is the document describing one embeddable instance.
type Configuration struct {
	Name         string       `json:"name"`
	ChainID      string       `json:"chainId"`
	CoinDenom    string       `json:"coinDenom"`
	Collections  []Collection `json:"collections"`
	ID           string       `json:"id"`
	CreatedDate  time.Time    `json:"createdDate"`
	ModifiedDate time.Time    `json:"modifiedDate"`
	Banner       string       `json:"banner,omitempty"`
	Description  string       `json:"description,omitempty"`
	ShareUrls
}

// Collection returns the collection with the given id.
func (c Configuration) Collection(id string) (Collection, bool) {
	for _, col := range c.Collections {
		if col.Base().ID == id {
			return col, true
		}
	}
	return nil, false
}

// CollectionsOfType returns the collections of one kind, in document order.
func (c Configuration) CollectionsOfType(t CollectionType) []Collection {
	var out []Collection
	for _, col := range c.Collections {
		if col.CollectionType() == t {
			out = append(out, col)
		}
	}
	return out
}

// CW721Collections returns the auction, marketplace and crowdfund collections.
func (c Configuration) CW721Collections() []CW721Collection {
	var out []CW721Collection
	for _, col := range c.Collections {
		if nft, ok := AsCW721(col); ok {
			out = append(out, nft)
		}
	}
	return out
}

// CW20Collections returns the exchange collections.
func (c Configuration) CW20Collections() []CW20Collection {
	var out []CW20Collection
	for _, col := range c.Collections {
		if ft, ok := AsCW20(col); ok {
			out = append(out, ft)
		}
	}
	return out
}

// FeaturedCollections returns the CW721 collections that name a featured token.
func (c Configuration) FeaturedCollections() []CW721Collection {
	var out []CW721Collection
	for _, nft := range c.CW721Collections() {
		if nft.FeaturedToken() != "" {
			out = append(out, nft)
		}
	}
	return out
}

// Clone returns a copy that shares nothing mutable with c. Collection values are
// plain structs, so copying the slice is enough.
func (c Configuration) Clone() Configuration {
	out := c
	out.Collections = append([]Collection(nil), c.Collections...)
	return out
}
