package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"embeddables/internal/app/service"
	"embeddables/internal/domain/entity"
	gql "embeddables/internal/entity"
	"embeddables/internal/pkg/metrics"
	"embeddables/internal/pkg/schema"
)

type fakeConfig struct{ cfg entity.Configuration }

func (f fakeConfig) Configuration() entity.Configuration { return f.cfg.Clone() }
func (f fakeConfig) Collection(id string) (entity.Collection, bool) {
	return f.cfg.Collection(id)
}
func (f fakeConfig) CW721Collections() []entity.CW721Collection    { return f.cfg.CW721Collections() }
func (f fakeConfig) CW20Collections() []entity.CW20Collection      { return f.cfg.CW20Collections() }
func (f fakeConfig) FeaturedCollections() []entity.CW721Collection { return f.cfg.FeaturedCollections() }

type fakeQueries struct {
	lastPolicy entity.FetchPolicy
	lastOffset int
	lastLimit  int
	err        error
}

func (f *fakeQueries) ChainConfig(_ context.Context, chainID string, policy entity.FetchPolicy) (entity.ChainConfig, error) {
	f.lastPolicy = policy
	if f.err != nil {
		return entity.ChainConfig{}, f.err
	}
	return entity.ChainConfig{ChainID: chainID, ChainName: "Galileo"}, nil
}

func (f *fakeQueries) AccountAssets(_ context.Context, wallet string, offset, limit int, policy entity.FetchPolicy) ([]entity.AssetResult, error) {
	f.lastPolicy, f.lastOffset, f.lastLimit = policy, offset, limit
	if f.err != nil {
		return nil, f.err
	}
	return []entity.AssetResult{{Address: "andr1asset", Owner: wallet}}, nil
}

func (f *fakeQueries) NftInfo(_ context.Context, contract, tokenID string, policy entity.FetchPolicy) (entity.NftInfo, error) {
	f.lastPolicy = policy
	if f.err != nil {
		return entity.NftInfo{}, f.err
	}
	return entity.NftInfo{TokenID: tokenID, Owner: contract}, nil
}

func (f *fakeQueries) FeaturedTokens(context.Context, entity.FetchPolicy) ([]entity.FeaturedToken, []entity.TokenError) {
	return []entity.FeaturedToken{{CollectionID: "a1", Contract: "andr1nft", Nft: entity.NftInfo{TokenID: "1"}}},
		[]entity.TokenError{{CollectionID: "m1", TokenID: "2", Message: "not found"}}
}

func testConfiguration() entity.Configuration {
	return entity.Configuration{
		Name:    "Andromeda",
		ChainID: "galileo-3",
		ID:      "andromeda",
		Collections: []entity.Collection{
			entity.AuctionCollection{Type: entity.CollectionTypeAuction, Auction: "andr1auction", Cw721: "andr1nft", Featured: "1",
				BaseCollection: entity.BaseCollection{ID: "a1", Name: "Auction"}},
			entity.ExchangeCollection{Type: entity.CollectionTypeExchange, Exchange: "andr1exchange", Cw20: "andr1cw20",
				BaseCollection: entity.BaseCollection{ID: "e1", Name: "Exchange"}},
		},
	}
}

func newRouter(t *testing.T, q *fakeQueries) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := metrics.New(prometheus.NewRegistry())
	h := NewHandler(fakeConfig{cfg: testConfiguration()}, q, zap.NewNop())
	return SetupRouter(h, RouterOptions{Metrics: m}, zap.NewNop()), m
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestConfigAndCollections(t *testing.T) {
	r, _ := newRouter(t, &fakeQueries{})

	w := serve(r, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode[map[string]any](t, w)
	assert.Equal(t, "galileo-3", cfg["chainId"])
	assert.Len(t, cfg["collections"], 2)

	w = serve(r, http.MethodGet, "/api/v1/collections?type=embeddables-exchange", "")
	require.Equal(t, http.StatusOK, w.Code)
	cols := decode[[]map[string]any](t, w)
	require.Len(t, cols, 1)
	assert.Equal(t, "e1", cols[0]["id"])
	assert.Equal(t, "andr1cw20", cols[0]["cw20"])

	w = serve(r, http.MethodGet, "/api/v1/collections?type=embeddables-crowdfund", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/v1/collections?type=raffle", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/collections/a1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "embeddables-auction", decode[map[string]any](t, w)["type"])

	w = serve(r, http.MethodGet, "/api/v1/collections/zzz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateCollection(t *testing.T) {
	r, _ := newRouter(t, &fakeQueries{})

	w := serve(r, http.MethodPost, "/api/v1/collections/validate",
		`{"type":"embeddables-crowdfund","id":"c1","name":"Drop","crowdfund":"andr1cf","cw721":"andr1nft","extra":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "embeddables-crowdfund", resp["type"])
	col := resp["collection"].(map[string]any)
	assert.Equal(t, "andr1cf", col["crowdfund"])
	assert.NotContains(t, col, "extra")

	w = serve(r, http.MethodPost, "/api/v1/collections/validate",
		`{"type":"embeddables-auction","id":"a","name":"A","cw721":"andr1nft"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	failed := decode[ErrorResponse](t, w)
	require.Len(t, failed.Issues, 1)
	assert.Equal(t, "/auction", failed.Issues[0].Path)
	assert.Equal(t, schema.CodeRequired, failed.Issues[0].Code)
	assert.LessOrEqual(t, len([]rune(failed.Error)), maxMessageLen)

	w = serve(r, http.MethodPost, "/api/v1/collections/validate", `{"type":"embeddables-raffle"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, schema.CodeDiscriminatorUnknown, decode[ErrorResponse](t, w).Issues[0].Code)

	w = serve(r, http.MethodPost, "/api/v1/collections/validate", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueries(t *testing.T) {
	q := &fakeQueries{}
	r, _ := newRouter(t, q)

	w := serve(r, http.MethodGet, "/api/v1/chains/galileo-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Galileo", decode[entity.ChainConfig](t, w).ChainName)
	assert.Equal(t, entity.FetchCacheFirst, q.lastPolicy)

	w = serve(r, http.MethodGet, "/api/v1/accounts/andr1alice/assets?offset=20&limit=10&fetchPolicy=network-only", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "andr1alice", decode[[]entity.AssetResult](t, w)[0].Owner)
	assert.Equal(t, entity.FetchNetworkOnly, q.lastPolicy)
	assert.Equal(t, 20, q.lastOffset)
	assert.Equal(t, 10, q.lastLimit)

	w = serve(r, http.MethodGet, "/api/v1/accounts/andr1alice/assets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, q.lastOffset)
	assert.Equal(t, 20, q.lastLimit)

	w = serve(r, http.MethodGet, "/api/v1/accounts/andr1alice/assets?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/nfts/andr1nft/7?fetchPolicy=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/nfts/andr1nft/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", decode[entity.NftInfo](t, w).TokenID)

	w = serve(r, http.MethodGet, "/api/v1/featured", "")
	require.Equal(t, http.StatusOK, w.Code)
	featured := decode[FeaturedResponse](t, w)
	assert.Len(t, featured.Tokens, 1)
	assert.Len(t, featured.ServiceErrors, 1)

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `embeddables_http_requests_total{method="GET",path="/api/v1/chains/:chainId",status="200"} 1`)
}

func TestQueryErrors(t *testing.T) {
	long := strings.Repeat("x", 300)
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("chain x: %w", service.ErrNotFound), http.StatusNotFound},
		{"invalid argument", fmt.Errorf("%w: chainId is required", service.ErrInvalidArgument), http.StatusBadRequest},
		{"deadline", fmt.Errorf("gateway: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"graphql", &gql.GraphQLError{Operation: "ChainConfig", Items: []gql.GraphQLErrorItem{{Message: long}}}, http.StatusBadGateway},
		{"schema", fmt.Errorf("validate: %w", schema.Issues{{Path: "/chainId", Code: schema.CodeInvalidType}}), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRouter(t, &fakeQueries{err: tt.err})
			w := serve(r, http.MethodGet, "/api/v1/chains/galileo-3", "")
			assert.Equal(t, tt.status, w.Code)
			body := decode[ErrorResponse](t, w)
			assert.NotEmpty(t, body.Error)
			assert.LessOrEqual(t, len([]rune(body.Error)), maxMessageLen)
		})
	}
}

func TestHealthzAndCORS(t *testing.T) {
	r, _ := newRouter(t, &fakeQueries{})

	w := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	req.Header.Set("Origin", "https://widget.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
