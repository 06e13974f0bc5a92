package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GraphQLRequest is the POST body sent to the GraphQL gateway.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse is the envelope returned by the gateway. Data is kept raw so
// the caller can pick out the sub-trees it validates and caches.
type GraphQLResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors,omitempty"`
}

// GraphQLErrorItem is one entry of the "errors" array.
type GraphQLErrorItem struct {
	Message   string            `json:"message"`
	Path      []any             `json:"path,omitempty"`
	Locations []GraphQLLocation `json:"locations,omitempty"`
}

// GraphQLLocation points into the query document.
type GraphQLLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError reports the "errors" array of a response.
type GraphQLError struct {
	Operation string
	Items     []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		msgs = append(msgs, it.Message)
	}
	return fmt.Sprintf("graphql %s: %s", e.Operation, strings.Join(msgs, "; "))
}
