package entity

// TokenError records a featured token that could not be fetched.
type TokenError struct {
	CollectionID string `json:"collectionId"`
	Contract     string `json:"contract"`
	TokenID      string `json:"tokenId"`
	Message      string `json:"message"`
}
