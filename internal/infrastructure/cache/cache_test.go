package cache_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"embeddables/internal/domain/entity"
	"embeddables/internal/infrastructure/cache"
	"embeddables/internal/pkg/metrics"
)

func newCache(t *testing.T) (*cache.Cache, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return cache.New(cache.DefaultPolicies(), zap.NewNop(), m), m
}

func asset(address, name string) string {
	return fmt.Sprintf(`{"address":%q,"name":%q,"chainId":"galileo-3","adoType":"cw721"}`, address, name)
}

func page(items ...string) []byte {
	return []byte("[" + strings.Join(items, ",") + "]")
}

func TestMergeOffset(t *testing.T) {
	existing := []string{"a0", "a1", "a2", "a3"}
	incoming := []string{"b0", "b1"}

	cases := []struct {
		name     string
		existing []string
		offset   int
		want     []string
	}{
		{"truncate at offset", existing, 2, []string{"a0", "a1", "b0", "b1"}},
		{"offset zero replaces", existing, 0, []string{"b0", "b1"}},
		{"no existing", nil, 3, []string{"b0", "b1"}},
		{"offset past end keeps all", existing, 10, []string{"a0", "a1", "a2", "a3", "b0", "b1"}},
		{"negative offset", existing, -1, []string{"b0", "b1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cache.MergeOffset(tc.existing, incoming, tc.offset))
		})
	}
}

func TestMergeOffset_DoesNotAliasExisting(t *testing.T) {
	existing := make([]int, 4, 8)
	merged := cache.MergeOffset(existing, []int{9}, 2)
	merged[0] = 7
	assert.Equal(t, 0, existing[0])
	assert.Equal(t, []int{0, 0, 0, 0}, existing)
}

func TestOffsetArg(t *testing.T) {
	assert.Equal(t, 0, cache.OffsetArg(nil))
	assert.Equal(t, 0, cache.OffsetArg(cache.Args{"offset": "2"}))
	assert.Equal(t, 2, cache.OffsetArg(cache.Args{"offset": 2}))
	assert.Equal(t, 2, cache.OffsetArg(cache.Args{"offset": float64(2)}))
}

func TestIdentify(t *testing.T) {
	c, _ := newCache(t)

	key, err := c.Identify(entity.TypeAssetResult, []byte(asset("andr1x", "nft")))
	require.NoError(t, err)
	assert.Equal(t, `AssetResult:{"address":"andr1x","name":"nft","chainId":"galileo-3"}`, key)

	key, err = c.Identify(entity.TypeChainConfig, []byte(`{"chainName":"Galileo","chainId":"galileo-3"}`))
	require.NoError(t, err)
	assert.Equal(t, `ChainConfig:{"chainId":"galileo-3"}`, key)

	key, err = c.Identify(entity.TypeChainConfigQuery, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, entity.TypeChainConfigQuery, key)

	_, err = c.Identify(entity.TypeNftInfo, []byte(`{"tokenId":null}`))
	assert.True(t, errors.Is(err, cache.ErrIdentityIncomplete))

	_, err = c.Identify("Unknown", []byte(`{}`))
	assert.True(t, errors.Is(err, cache.ErrUnknownType))
}

func TestWrite_SameIdentityOverwrites(t *testing.T) {
	c, _ := newCache(t)

	first := `{"address":"andr1x","name":"nft","chainId":"galileo-3","owner":"andr1alice","lastUpdatedHeight":10}`
	second := `{"address":"andr1x","name":"nft","chainId":"galileo-3","owner":"andr1bob"}`

	k1, err := c.Write(entity.TypeAssetResult, []byte(first))
	require.NoError(t, err)
	k2, err := c.Write(entity.TypeAssetResult, []byte(second))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	got, ok := c.Read(k1)
	require.True(t, ok)
	assert.JSONEq(t, second, string(got))
	assert.Equal(t, 1, c.Len())
}

func TestWrite_ObjectMerge(t *testing.T) {
	c, _ := newCache(t)

	_, err := c.Write(entity.TypeChainConfigQuery, []byte(`{"a":1,"b":{"x":1}}`))
	require.NoError(t, err)
	key, err := c.Write(entity.TypeChainConfigQuery, []byte(`{"b":{"y":2},"c":3}`))
	require.NoError(t, err)

	got, ok := c.Read(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1,"b":{"y":2},"c":3}`, string(got))
}

func TestWrite_FallbackKey(t *testing.T) {
	c, m := newCache(t)

	payload := `{"owner":"andr1alice"}`
	k1, err := c.Write(entity.TypeNftInfo, []byte(payload))
	require.NoError(t, err)
	k2, err := c.Write(entity.TypeNftInfo, []byte(payload))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k1, "NftInfo:#"))
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheIdentityMisses.WithLabelValues(entity.TypeNftInfo)))

	keyed, err := c.Write(entity.TypeNftInfo, []byte(`{"tokenId":"1"}`))
	require.NoError(t, err)
	assert.NotEqual(t, k1, keyed)
}

func TestWrite_RejectsNonObject(t *testing.T) {
	c, _ := newCache(t)

	_, err := c.Write(entity.TypeNftInfo, []byte(`[1]`))
	assert.True(t, errors.Is(err, cache.ErrInvalidPayload))
	_, err = c.Write(entity.TypeNftInfo, []byte(`{`))
	assert.True(t, errors.Is(err, cache.ErrInvalidPayload))
}

func TestWriteField_OffsetAppend(t *testing.T) {
	c, _ := newCache(t)
	args := func(offset int) cache.Args {
		return cache.Args{"walletAddress": "andr1alice", "offset": offset, "limit": 2}
	}

	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", args(0), page(asset("a0", "n"), asset("a1", "n"))))
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", args(2), page(asset("a2", "n"), asset("a3", "n"))))
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", args(2), page(asset("b0", "n"), asset("b1", "n"))))

	got, ok := c.ReadField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "andr1alice", "offset": 40})
	require.True(t, ok)
	assert.JSONEq(t, string(page(asset("a0", "n"), asset("a1", "n"), asset("b0", "n"), asset("b1", "n"))), string(got))
}

func TestWriteField_OffsetZeroReplaces(t *testing.T) {
	c, _ := newCache(t)
	wallet := cache.Args{"walletAddress": "andr1alice"}

	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", wallet, page(asset("a0", "n"), asset("a1", "n"))))
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", wallet, page(asset("b0", "n"))))

	got, ok := c.ReadField(entity.TypeAccountsQuery, "assets", wallet)
	require.True(t, ok)
	assert.JSONEq(t, string(page(asset("b0", "n"))), string(got))
}

func TestWriteField_NoExistingIgnoresOffset(t *testing.T) {
	c, _ := newCache(t)
	args := cache.Args{"walletAddress": "andr1alice", "offset": 20}

	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", args, page(asset("b0", "n"))))

	got, ok := c.ReadField(entity.TypeAccountsQuery, "assets", args)
	require.True(t, ok)
	assert.JSONEq(t, string(page(asset("b0", "n"))), string(got))
}

func TestWriteField_PartitionsByWallet(t *testing.T) {
	c, _ := newCache(t)

	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "alice"}, page(asset("a0", "n"))))
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "bob", "offset": 5}, page(asset("b0", "n"))))

	alice, ok := c.ReadField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "alice"})
	require.True(t, ok)
	assert.JSONEq(t, string(page(asset("a0", "n"))), string(alice))

	_, ok = c.ReadField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "carol"})
	assert.False(t, ok)
}

func TestWriteField_ItemsAreNormalized(t *testing.T) {
	c, _ := newCache(t)
	wallet := cache.Args{"walletAddress": "alice"}

	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", wallet, page(asset("a0", "n"))))

	// A later write of the same entity is visible through the field.
	updated := `{"address":"a0","name":"n","chainId":"galileo-3","owner":"alice"}`
	_, err := c.Write(entity.TypeAssetResult, []byte(updated))
	require.NoError(t, err)

	got, ok := c.ReadField(entity.TypeAccountsQuery, "assets", wallet)
	require.True(t, ok)
	assert.JSONEq(t, "["+updated+"]", string(got))
}

func TestFieldKey(t *testing.T) {
	c, _ := newCache(t)

	assert.Equal(t,
		`AccountsQuery.assets({"walletAddress":"alice"})`,
		c.FieldKey(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "alice", "offset": 3, "limit": 10}))
	assert.Equal(t,
		`ChainConfigQuery.config({"identifier":"galileo-3"})`,
		c.FieldKey(entity.TypeChainConfigQuery, "config", cache.Args{"identifier": "galileo-3"}))
}

func TestInvalidate(t *testing.T) {
	c, _ := newCache(t)

	key, err := c.Write(entity.TypeNftInfo, []byte(`{"tokenId":"1"}`))
	require.NoError(t, err)
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "alice"}, page(asset("a0", "n"))))

	c.Invalidate()

	_, ok := c.Read(key)
	assert.False(t, ok)
	_, ok = c.ReadField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": "alice"})
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestConcurrentFieldWrites(t *testing.T) {
	c, _ := newCache(t)
	wallet := "alice"

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			args := cache.Args{"walletAddress": wallet, "offset": 0}
			assert.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", args, page(asset(fmt.Sprintf("a%d", i), "n"))))
			c.ReadField(entity.TypeAccountsQuery, "assets", args)
		}(i)
	}
	wg.Wait()

	got, ok := c.ReadField(entity.TypeAccountsQuery, "assets", cache.Args{"walletAddress": wallet})
	require.True(t, ok)
	// Every write replaced the list at offset 0, so exactly one page survives.
	assert.Equal(t, 1, strings.Count(string(got), `"address"`))
}

func TestWriteField_UnknownField(t *testing.T) {
	c, _ := newCache(t)

	err := c.WriteField(entity.TypeAccountsQuery, "balances", cache.Args{"walletAddress": "alice"}, page(`1`))
	assert.True(t, errors.Is(err, cache.ErrUnknownType))
	err = c.WriteField("WalletQuery", "assets", cache.Args{"walletAddress": "alice"}, page(`1`))
	assert.True(t, errors.Is(err, cache.ErrUnknownType))
	assert.Zero(t, c.Len())
}

func TestNilMetrics(t *testing.T) {
	c := cache.New(cache.DefaultPolicies(), zap.NewNop(), nil)

	_, err := c.Write(entity.TypeNftInfo, []byte(`{"owner":"alice"}`))
	require.NoError(t, err)
	key, err := c.Write(entity.TypeNftInfo, []byte(`{"tokenId":"1"}`))
	require.NoError(t, err)
	_, ok := c.Read(key)
	assert.True(t, ok)
	_, ok = c.Read("NftInfo:missing")
	assert.False(t, ok)

	wallet := cache.Args{"walletAddress": "alice"}
	require.NoError(t, c.WriteField(entity.TypeAccountsQuery, "assets", wallet, page(asset("a0", "n"))))
	_, ok = c.ReadField(entity.TypeAccountsQuery, "assets", wallet)
	assert.True(t, ok)
}
