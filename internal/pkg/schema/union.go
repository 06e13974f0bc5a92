package schema

import (
	"strconv"
	"strings"
)

// Variant is one member of a discriminated union producing U.
type Variant[U any] struct {
	tag   string
	parse func(v any) (U, error)
}

// Case declares the variant selected when the discriminator equals tag. wrap
// converts the variant's own type into the union type.
func Case[U, V any, K ~string](tag K, s Schema[V], wrap func(V) U) Variant[U] {
	return Variant[U]{
		tag: string(tag),
		parse: func(v any) (U, error) {
			pv, err := s.Parse(v)
			if err != nil {
				var zero U
				return zero, err
			}
			return wrap(pv), nil
		},
	}
}

// UnionSchema is a discriminated union. The discriminator is authoritative:
// only the variant whose tag equals it is tried, and a missing or unknown tag
// fails before any structural matching.
type UnionSchema[U any] struct {
	key      string
	variants []Variant[U]
}

// DiscriminatedUnion builds a union keyed on the given property. Variants are
// consulted in declaration order.
func DiscriminatedUnion[U any](key string, variants ...Variant[U]) *UnionSchema[U] {
	return &UnionSchema[U]{key: key, variants: variants}
}

// Discriminator returns the property name carrying the tag.
func (u *UnionSchema[U]) Discriminator() string { return u.key }

// Tags lists the variant tags in declaration order.
func (u *UnionSchema[U]) Tags() []string {
	out := make([]string, 0, len(u.variants))
	for _, v := range u.variants {
		out = append(out, v.tag)
	}
	return out
}

func (u *UnionSchema[U]) Describe() string {
	tags := u.Tags()
	for i, t := range tags {
		tags[i] = strconv.Quote(t)
	}
	return "object with " + u.key + " one of " + strings.Join(tags, " | ")
}

func (u *UnionSchema[U]) Parse(v any) (U, error) {
	var zero U
	m, ok := v.(map[string]any)
	if !ok {
		return zero, Issues{{Path: "/", Code: CodeInvalidType, Expected: "object", Actual: v, Message: "expected object, received " + kindOf(v)}}
	}
	path := "/" + escapePointer(u.key)
	raw, present := m[u.key]
	if !present || raw == nil {
		return zero, Issues{{Path: path, Code: CodeDiscriminatorMissing, Expected: u.Describe(), Actual: raw, Message: "discriminator " + strconv.Quote(u.key) + " missing"}}
	}
	tag, isString := raw.(string)
	if isString {
		for _, variant := range u.variants {
			if variant.tag == tag {
				return variant.parse(v)
			}
		}
	}
	return zero, Issues{{Path: path, Code: CodeDiscriminatorUnknown, Expected: u.Describe(), Actual: raw, Message: "unrecognized variant"}}
}
