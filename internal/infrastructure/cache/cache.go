package cache

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"embeddables/internal/pkg/metrics"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const lockStripes = 64

var (
	// ErrIdentityIncomplete is returned by Identify when a key field is absent or
	// null in the payload.
	ErrIdentityIncomplete = errors.New("cache identity incomplete")
	// ErrUnknownType is returned for typenames without a policy.
	ErrUnknownType = errors.New("no cache policy for type")
	// ErrInvalidPayload is returned for payloads that are not valid JSON of the
	// expected shape.
	ErrInvalidPayload = errors.New("invalid cache payload")
)

// Cache is a normalized in-memory entity store. Entities are kept as JSON
// under keys derived from their typename and key fields; query-root fields
// are kept as lists that reference those entities.
type Cache struct {
	store    *gocache.Cache
	policies Policies
	locks    [lockStripes]sync.RWMutex
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates an empty cache governed by policies. Entries never expire; only
// Invalidate removes them. A nil m disables metrics.
func New(policies Policies, logger *zap.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		store:    gocache.New(gocache.NoExpiration, 0),
		policies: policies,
		logger:   logger.Named("NormalizedCache"),
		metrics:  m,
	}
}

func (c *Cache) lockFor(key string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &c.locks[h.Sum32()%lockStripes]
}

// Identify computes the cache key of payload as an entity of typeName.
func (c *Cache) Identify(typeName string, payload []byte) (string, error) {
	policy, ok := c.policies[typeName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	if len(policy.KeyFields) == 0 {
		return typeName, nil
	}

	b := &strings.Builder{}
	b.WriteString(typeName)
	b.WriteString(":{")
	for i, field := range policy.KeyFields {
		res := gjson.GetBytes(payload, gjsonEscape(field))
		if !res.Exists() || res.Type == gjson.Null {
			return "", fmt.Errorf("%w: %s.%s is missing", ErrIdentityIncomplete, typeName, field)
		}
		name, _ := jsonAPI.Marshal(field)
		value, err := jsonAPI.Marshal(res.Value())
		if err != nil {
			return "", fmt.Errorf("%w: %s.%s: %v", ErrInvalidPayload, typeName, field, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// Write stores payload as an entity of typeName and returns its key. Payloads
// without a complete identity go under a private fallback key that no other
// payload can share.
func (c *Cache) Write(typeName string, payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return "", fmt.Errorf("%w: %s payload is not a JSON object", ErrInvalidPayload, typeName)
	}
	key, err := c.Identify(typeName, payload)
	switch {
	case errors.Is(err, ErrIdentityIncomplete):
		key = typeName + ":#" + uuid.NewString()
		c.logger.Warn("Storing entity under fallback key",
			zap.String("type", typeName),
			zap.String("key", key),
			zap.Error(err))
		if c.metrics != nil {
			c.metrics.CacheIdentityMisses.WithLabelValues(typeName).Inc()
		}
	case err != nil:
		return "", err
	}

	merge := c.policies[typeName].merge()
	incoming := append([]byte(nil), payload...)

	mu := c.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	if existing, found := c.store.Get(key); found {
		if stored, isEntity := existing.([]byte); isEntity {
			merged, err := merge.Apply(stored, incoming)
			if err != nil {
				return "", fmt.Errorf("merge %s: %w", key, err)
			}
			incoming = merged
		}
	}
	c.store.Set(key, incoming, gocache.NoExpiration)
	c.countWrite(typeName, merge.Name)
	return key, nil
}

// Read returns the most recently merged JSON of the entity stored under key.
func (c *Cache) Read(key string) ([]byte, bool) {
	mu := c.lockFor(key)
	mu.RLock()
	v, found := c.store.Get(key)
	mu.RUnlock()

	stored, isEntity := v.([]byte)
	if !found || !isEntity {
		c.countRead("entity", "miss")
		return nil, false
	}
	c.countRead("entity", "hit")
	return append([]byte(nil), stored...), true
}

// FieldKey returns the storage key of a query-root field. Only the declared key
// arguments take part; pagination arguments do not.
func (c *Cache) FieldKey(typeName, field string, args Args) string {
	policy := c.policies[typeName].Fields[field]
	names := policy.KeyArgs
	if names == nil {
		names = make([]string, 0, len(args))
		for name := range args {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	b := &strings.Builder{}
	b.WriteString(typeName)
	b.WriteByte('.')
	b.WriteString(field)
	b.WriteString("({")
	written := 0
	for _, name := range names {
		v, present := args[name]
		if !present {
			continue
		}
		nb, _ := jsonAPI.Marshal(name)
		vb, err := jsonAPI.Marshal(v)
		if err != nil {
			vb = []byte("null")
		}
		if written > 0 {
			b.WriteByte(',')
		}
		b.Write(nb)
		b.WriteByte(':')
		b.Write(vb)
		written++
	}
	b.WriteString("})")
	return b.String()
}

// WriteField merges a JSON array page into a query-root field. Items of a
// normalized field are written as entities first and referenced by key.
func (c *Cache) WriteField(typeName, field string, args Args, payload []byte) error {
	page := gjson.ParseBytes(payload)
	if !gjson.ValidBytes(payload) || !page.IsArray() {
		return fmt.Errorf("%w: %s.%s payload is not a JSON array", ErrInvalidPayload, typeName, field)
	}
	policy, ok := c.policies[typeName].Fields[field]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownType, typeName, field)
	}

	var incoming []string
	for _, item := range page.Array() {
		if policy.ItemType == "" {
			incoming = append(incoming, item.Raw)
			continue
		}
		key, err := c.Write(policy.ItemType, []byte(item.Raw))
		if err != nil {
			return fmt.Errorf("write %s item of %s.%s: %w", policy.ItemType, typeName, field, err)
		}
		incoming = append(incoming, key)
	}

	merge := policy.merge()
	key := c.FieldKey(typeName, field, args)

	mu := c.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	var existing []string
	if v, found := c.store.Get(key); found {
		existing, _ = v.([]string)
	}
	merged := merge.Apply(existing, incoming, args)
	c.store.Set(key, append([]string(nil), merged...), gocache.NoExpiration)
	c.countWrite(typeName+"."+field, merge.Name)

	c.logger.Debug("Merged field page",
		zap.String("key", key),
		zap.String("policy", merge.Name),
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(incoming)),
		zap.Int("merged", len(merged)))
	return nil
}

// ReadField returns the stored list of a query-root field as a JSON array,
// resolving entity references.
func (c *Cache) ReadField(typeName, field string, args Args) ([]byte, bool) {
	key := c.FieldKey(typeName, field, args)
	mu := c.lockFor(key)
	mu.RLock()
	v, found := c.store.Get(key)
	var items []string
	if found {
		items, found = v.([]string)
		items = append([]string(nil), items...)
	}
	mu.RUnlock()

	if !found {
		c.countRead("field", "miss")
		return nil, false
	}
	c.countRead("field", "hit")

	normalized := c.policies[typeName].Fields[field].ItemType != ""
	b := &strings.Builder{}
	b.WriteByte('[')
	written := 0
	for _, item := range items {
		raw := item
		if normalized {
			ent, ok := c.Read(item)
			if !ok {
				c.logger.Debug("Dangling reference in field", zap.String("field", key), zap.String("ref", item))
				continue
			}
			raw = string(ent)
		}
		if written > 0 {
			b.WriteByte(',')
		}
		b.WriteString(raw)
		written++
	}
	b.WriteByte(']')
	return []byte(b.String()), true
}

// Invalidate drops every entity and field.
func (c *Cache) Invalidate() {
	for i := range c.locks {
		c.locks[i].Lock()
	}
	c.store.Flush()
	for i := range c.locks {
		c.locks[i].Unlock()
	}
	c.logger.Info("Cache invalidated")
}

func (c *Cache) countRead(kind, result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheReads.WithLabelValues(kind, result).Inc()
}

func (c *Cache) countWrite(target, policy string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheWrites.WithLabelValues(target, policy).Inc()
}

// Len reports the number of stored entities and fields.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func gjsonEscape(field string) string {
	if !strings.ContainsAny(field, `.*?|#@\`) {
		return field
	}
	b := &strings.Builder{}
	for _, r := range field {
		if strings.ContainsRune(`.*?|#@\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
