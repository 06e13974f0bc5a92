package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Schema turns an untyped decoded JSON value into T or reports Issues.
type Schema[T any] interface {
	Parse(v any) (T, error)
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc[T any] func(v any) (T, error)

func (f SchemaFunc[T]) Parse(v any) (T, error) { return f(v) }

type stringSchema struct{}

// String accepts JSON strings.
func String() Schema[string] { return stringSchema{} }

func (stringSchema) Parse(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", Issues{{Path: "/", Code: CodeInvalidType, Expected: "string", Actual: v, Message: "expected string, received " + kindOf(v)}}
	}
	return s, nil
}

type literalSchema[T ~string] struct{ want T }

// Literal accepts exactly the given string.
func Literal[T ~string](want T) Schema[T] { return literalSchema[T]{want: want} }

func (l literalSchema[T]) Parse(v any) (T, error) {
	s, ok := v.(string)
	if !ok {
		return "", Issues{{Path: "/", Code: CodeInvalidType, Expected: strconv.Quote(string(l.want)), Actual: v, Message: "expected string, received " + kindOf(v)}}
	}
	if T(s) != l.want {
		return "", Issues{{Path: "/", Code: CodeInvalidLiteral, Expected: strconv.Quote(string(l.want)), Actual: v, Message: fmt.Sprintf("invalid literal value, expected %q", string(l.want))}}
	}
	return l.want, nil
}

type enumSchema[T ~string] struct{ values []T }

// Enum accepts one of the given strings.
func Enum[T ~string](values ...T) Schema[T] { return enumSchema[T]{values: values} }

func (e enumSchema[T]) expected() string {
	parts := make([]string, 0, len(e.values))
	for _, v := range e.values {
		parts = append(parts, strconv.Quote(string(v)))
	}
	return "one of " + strings.Join(parts, " | ")
}

func (e enumSchema[T]) Parse(v any) (T, error) {
	s, ok := v.(string)
	if !ok {
		return "", Issues{{Path: "/", Code: CodeInvalidType, Expected: e.expected(), Actual: v, Message: "expected string, received " + kindOf(v)}}
	}
	for _, want := range e.values {
		if T(s) == want {
			return want, nil
		}
	}
	return "", Issues{{Path: "/", Code: CodeInvalidEnum, Expected: e.expected(), Actual: v, Message: "invalid enum value, expected " + e.expected()}}
}

type timestampSchema struct{}

// Timestamp accepts ISO-8601 / RFC 3339 strings and yields time.Time.
func Timestamp() Schema[time.Time] { return timestampSchema{} }

func (timestampSchema) Parse(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, Issues{{Path: "/", Code: CodeInvalidType, Expected: "ISO-8601 timestamp", Actual: v, Message: "expected string, received " + kindOf(v)}}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, Issues{{Path: "/", Code: CodeInvalidFormat, Expected: "ISO-8601 timestamp", Actual: v, Message: "invalid ISO-8601 timestamp"}}
	}
	return t, nil
}

type intSchema struct{}

// Int accepts integral JSON numbers, whichever way the decoder represented them.
func Int() Schema[int64] { return intSchema{} }

func (intSchema) Parse(v any) (int64, error) {
	bad := func() (int64, error) {
		return 0, Issues{{Path: "/", Code: CodeInvalidType, Expected: "integer", Actual: v, Message: "expected integer, received " + kindOf(v)}}
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return bad()
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return bad()
		}
		return i, nil
	default:
		return bad()
	}
}

type arraySchema[E any] struct{ elem Schema[E] }

// Array accepts JSON arrays whose every element satisfies elem. Element issues
// are reported under /<index>.
func Array[E any](elem Schema[E]) Schema[[]E] { return arraySchema[E]{elem: elem} }

func (a arraySchema[E]) Parse(v any) ([]E, error) {
	src, ok := v.([]any)
	if !ok {
		return nil, Issues{{Path: "/", Code: CodeInvalidType, Expected: "array", Actual: v, Message: "expected array, received " + kindOf(v)}}
	}
	out := make([]E, 0, len(src))
	var iss Issues
	for i, raw := range src {
		ev, err := a.elem.Parse(raw)
		if err != nil {
			iss = append(iss, childIssues("/"+strconv.Itoa(i), err)...)
			continue
		}
		out = append(out, ev)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}
