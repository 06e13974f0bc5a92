package cache

import (
	"encoding/json"
	"fmt"
	"math"

	"embeddables/internal/domain/entity"
)

// Args are the arguments of a field read or write.
type Args = map[string]any

// EntityMerge combines a stored entity with an incoming payload of the same key.
type EntityMerge struct {
	Name  string
	Apply func(existing, incoming []byte) ([]byte, error)
}

// FieldMerge combines the stored list of a field with an incoming page. Items
// are entity keys when the field normalizes them and raw JSON otherwise.
type FieldMerge struct {
	Name  string
	Apply func(existing, incoming []string, args Args) []string
}

// TypePolicy declares how entities of one typename are identified and merged.
type TypePolicy struct {
	// KeyFields is the ordered composite key. A type without key fields is a
	// singleton stored under its typename.
	KeyFields []string
	// Merge defaults to WholeReplace.
	Merge  *EntityMerge
	Fields map[string]FieldPolicy
}

// FieldPolicy declares how one field of a query root is stored.
type FieldPolicy struct {
	// KeyArgs select the arguments that partition the field. Nil means every
	// argument takes part in the identity.
	KeyArgs []string
	// Merge defaults to ReplaceField.
	Merge *FieldMerge
	// ItemType, when set, stores list items as entities of that type.
	ItemType string
}

// Policies is the type-and-field policy table.
type Policies map[string]TypePolicy

var (
	// WholeReplace keeps only the newest payload.
	WholeReplace = &EntityMerge{
		Name:  "whole-replace",
		Apply: func(_, incoming []byte) ([]byte, error) { return incoming, nil },
	}

	// ObjectMerge overlays the incoming top-level fields on the stored ones.
	ObjectMerge = &EntityMerge{
		Name:  "object-merge",
		Apply: mergeObjects,
	}

	// ReplaceField keeps only the newest list.
	ReplaceField = &FieldMerge{
		Name:  "whole-replace",
		Apply: func(_, incoming []string, _ Args) []string { return incoming },
	}

	// OffsetAppend truncates the stored list at the "offset" argument and appends
	// the incoming page.
	OffsetAppend = &FieldMerge{
		Name: "offset-append",
		Apply: func(existing, incoming []string, args Args) []string {
			return MergeOffset(existing, incoming, OffsetArg(args))
		},
	}
)

// DefaultPolicies returns the policy table of the embeddable GraphQL schema.
func DefaultPolicies() Policies {
	return Policies{
		entity.TypeChainConfig: {
			KeyFields: []string{"chainId"},
		},
		entity.TypeChainConfigQuery: {
			Merge: ObjectMerge,
		},
		entity.TypeAccountsQuery: {
			Fields: map[string]FieldPolicy{
				"assets": {
					KeyArgs:  []string{"walletAddress"},
					Merge:    OffsetAppend,
					ItemType: entity.TypeAssetResult,
				},
			},
		},
		entity.TypeAssetResult: {
			KeyFields: []string{"address", "name", "chainId"},
		},
		entity.TypeNftInfo: {
			KeyFields: []string{"tokenId"},
		},
	}
}

func (p TypePolicy) merge() *EntityMerge {
	if p.Merge == nil {
		return WholeReplace
	}
	return p.Merge
}

func (p FieldPolicy) merge() *FieldMerge {
	if p.Merge == nil {
		return ReplaceField
	}
	return p.Merge
}

// MergeOffset keeps existing[:offset] and appends incoming. A missing existing
// list is empty, a negative offset is zero and an offset past the end keeps
// the whole existing list.
func MergeOffset[T any](existing, incoming []T, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(existing) {
		offset = len(existing)
	}
	merged := make([]T, 0, offset+len(incoming))
	merged = append(merged, existing[:offset]...)
	return append(merged, incoming...)
}

// OffsetArg reads the "offset" argument, treating absent or non-numeric values
// as zero.
func OffsetArg(args Args) int {
	switch v := args["offset"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

func mergeObjects(existing, incoming []byte) ([]byte, error) {
	var base map[string]json.RawMessage
	if err := jsonAPI.Unmarshal(existing, &base); err != nil {
		return nil, fmt.Errorf("decode stored object: %w", err)
	}
	var patch map[string]json.RawMessage
	if err := jsonAPI.Unmarshal(incoming, &patch); err != nil {
		return nil, fmt.Errorf("decode incoming object: %w", err)
	}
	if base == nil {
		base = make(map[string]json.RawMessage, len(patch))
	}
	for k, v := range patch {
		base[k] = v
	}
	return jsonAPI.Marshal(base)
}
