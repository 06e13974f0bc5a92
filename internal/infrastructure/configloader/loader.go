package configloader

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"embeddables/internal/domain/entity"
	"embeddables/internal/pkg/schema"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConfigurationID is the fixed id stamped on every assembled Configuration.
const ConfigurationID = "andromeda"

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// AssemblyError reports a Configuration that failed validation. The process
// must not serve with it.
type AssemblyError struct {
	Source string
	Issues schema.Issues
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("configuration assembly failed for %s: %v", e.Source, e.Issues)
}

// Unwrap exposes the issues so errors.Is(err, schema.ErrSchemaViolation) holds.
func (e *AssemblyError) Unwrap() error { return e.Issues }

// FormatISO renders t in UTC with millisecond precision and a Z suffix.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// LoadBaseDocument reads the static configuration document from path.
func LoadBaseDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read base configuration %s: %w", path, err)
	}
	doc, err := DecodeBaseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base configuration %s: %w", path, err)
	}
	return doc, nil
}

// DecodeBaseDocument decodes a base document that must be a JSON object.
func DecodeBaseDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("base configuration is not a JSON object")
	}
	return doc, nil
}

// Assemble stamps the generated fields on a copy of base and validates the
// result. base itself is not modified.
func Assemble(source string, base map[string]any, now time.Time) (entity.Configuration, error) {
	doc := make(map[string]any, len(base)+3)
	for k, v := range base {
		doc[k] = v
	}
	stamp := FormatISO(now)
	doc["createdDate"] = stamp
	doc["modifiedDate"] = stamp
	doc["id"] = ConfigurationID

	cfg, err := entity.ParseConfiguration(doc)
	if err != nil {
		iss, ok := schema.AsIssues(err)
		if !ok {
			return entity.Configuration{}, fmt.Errorf("configuration assembly failed for %s: %w", source, err)
		}
		return entity.Configuration{}, &AssemblyError{Source: source, Issues: iss}
	}
	return cfg, nil
}

// Load reads the base document at path and assembles it.
func Load(path string, now time.Time) (entity.Configuration, error) {
	base, err := LoadBaseDocument(path)
	if err != nil {
		return entity.Configuration{}, err
	}
	return Assemble(path, base, now)
}
