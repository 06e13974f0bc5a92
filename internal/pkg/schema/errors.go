package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeInvalidLiteral       = "invalid_literal"
	CodeInvalidEnum          = "invalid_enum"
	CodeInvalidFormat        = "invalid_format"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeDuplicate            = "duplicate"
)

var (
	// ErrSchemaViolation matches every Issues value via errors.Is.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrUnrecognizedVariant matches Issues that carry a discriminator_missing or
	// discriminator_unknown entry.
	ErrUnrecognizedVariant = errors.New("unrecognized variant")
)

// Issue is a single validation failure.
type Issue struct {
	Path     string `json:"path"` // JSON Pointer, "/" for the root value
	Code     string `json:"code"`
	Expected string `json:"expected"`
	Actual   any    `json:"actual"`
	Message  string `json:"message"`
}

// Issues is the failure report of a Parse call. It implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Is reports ErrSchemaViolation for any Issues and ErrUnrecognizedVariant when a
// discriminator issue is present.
func (iss Issues) Is(target error) bool {
	switch target {
	case ErrSchemaViolation:
		return true
	case ErrUnrecognizedVariant:
		for _, it := range iss {
			if it.Code == CodeDiscriminatorMissing || it.Code == CodeDiscriminatorUnknown {
				return true
			}
		}
	}
	return false
}

// Paths returns the path of every issue in order.
func (iss Issues) Paths() []string {
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		out = append(out, it.Path)
	}
	return out
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IsUnrecognizedVariant is shorthand for errors.Is(err, ErrUnrecognizedVariant).
func IsUnrecognizedVariant(err error) bool {
	return errors.Is(err, ErrUnrecognizedVariant)
}

// rebase prefixes every child issue path with base.
func rebase(base string, child Issues) Issues {
	out := make(Issues, 0, len(child))
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// childIssues converts an error returned by a child schema into Issues rooted at
// base.
func childIssues(base string, err error) Issues {
	if iss, ok := AsIssues(err); ok {
		return rebase(base, iss)
	}
	return Issues{{Path: base, Code: CodeInvalidType, Message: err.Error()}}
}

// escapePointer escapes a key for use as a JSON Pointer reference token.
func escapePointer(key string) string {
	if !strings.ContainsAny(key, "~/") {
		return key
	}
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(key)
}

// kindOf names the JSON kind of a decoded value for messages.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case float64, float32, int, int32, int64, uint, uint32, uint64, fmt.Stringer:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
