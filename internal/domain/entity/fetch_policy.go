package entity

import "fmt"

// FetchPolicy selects whether a query may be answered from the cache.
type FetchPolicy string

const (
	// FetchCacheFirst answers from the cache when the data is complete there and
	// goes to the network otherwise.
	FetchCacheFirst FetchPolicy = "cache-first"
	// FetchNetworkOnly always queries the network and writes the result through.
	FetchNetworkOnly FetchPolicy = "network-only"
)

// ParseFetchPolicy maps the wire name to a policy. An empty string is
// cache-first.
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch FetchPolicy(s) {
	case "", FetchCacheFirst:
		return FetchCacheFirst, nil
	case FetchNetworkOnly:
		return FetchNetworkOnly, nil
	default:
		return "", fmt.Errorf("unknown fetch policy %q", s)
	}
}
