package restapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"embeddables/internal/app/port"
	"embeddables/internal/app/service"
	"embeddables/internal/domain/entity"
	gql "embeddables/internal/entity"
	"embeddables/internal/pkg/schema"
	"embeddables/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxMessageLen bounds the message of every error response.
const maxMessageLen = 100

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Issues schema.Issues `json:"issues,omitempty"`
}

// ValidateResponse is the body of a successful collection validation.
type ValidateResponse struct {
	Type       entity.CollectionType `json:"type"`
	Collection entity.Collection     `json:"collection"`
}

// FeaturedResponse carries the featured tokens and the per-token failures.
type FeaturedResponse struct {
	Tokens        []entity.FeaturedToken `json:"tokens"`
	ServiceErrors []entity.TokenError    `json:"service_errors,omitempty"`
	StatusMessage string                 `json:"status_message"`
}

type assetsQuery struct {
	Offset      int    `form:"offset" binding:"gte=0"`
	Limit       int    `form:"limit,default=20" binding:"gt=0,lte=100"`
	FetchPolicy string `form:"fetchPolicy"`
}

// Handler serves the embeddable API.
type Handler struct {
	config  port.ConfigProvider
	queries port.QueryService
	logger  *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(config port.ConfigProvider, queries port.QueryService, logger *zap.Logger) *Handler {
	return &Handler{
		config:  config,
		queries: queries,
		logger:  logger.Named("RestAPI"),
	}
}

// GetConfiguration returns the assembled Configuration.
func (h *Handler) GetConfiguration(c *gin.Context) {
	c.JSON(http.StatusOK, h.config.Configuration())
}

// ListCollections returns every collection, optionally filtered by ?type=.
func (h *Handler) ListCollections(c *gin.Context) {
	cfg := h.config.Configuration()
	kind := c.Query("type")
	if kind == "" {
		c.JSON(http.StatusOK, nonNil(cfg.Collections))
		return
	}
	for _, t := range entity.CollectionTypes {
		if string(t) == kind {
			c.JSON(http.StatusOK, nonNil(cfg.CollectionsOfType(t)))
			return
		}
	}
	h.fail(c, http.StatusBadRequest, "unknown collection type "+kind, nil)
}

// GetCollection returns one collection by id.
func (h *Handler) GetCollection(c *gin.Context) {
	id := c.Param("id")
	col, ok := h.config.Collection(id)
	if !ok {
		h.fail(c, http.StatusNotFound, "collection "+id+" not found", nil)
		return
	}
	c.JSON(http.StatusOK, col)
}

// ValidateCollection parses the request body as a Collection.
func (h *Handler) ValidateCollection(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "failed to read body: "+err.Error(), nil)
		return
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid JSON: "+err.Error(), nil)
		return
	}

	col, err := entity.ParseCollection(doc)
	if err != nil {
		iss, _ := schema.AsIssues(err)
		h.fail(c, http.StatusUnprocessableEntity, err.Error(), iss)
		return
	}
	c.JSON(http.StatusOK, ValidateResponse{Type: col.CollectionType(), Collection: col})
}

// GetChainConfig returns the gateway's configuration of one chain.
func (h *Handler) GetChainConfig(c *gin.Context) {
	policy, ok := h.fetchPolicy(c)
	if !ok {
		return
	}
	cfg, err := h.queries.ChainConfig(c.Request.Context(), c.Param("chainId"), policy)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetAccountAssets returns one page of a wallet's assets.
func (h *Handler) GetAccountAssets(c *gin.Context) {
	var q assetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	policy, err := entity.ParseFetchPolicy(q.FetchPolicy)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	assets, err := h.queries.AccountAssets(c.Request.Context(), c.Param("walletAddress"), q.Offset, q.Limit, policy)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(assets))
}

// GetNftInfo returns a single token of a CW721 contract.
func (h *Handler) GetNftInfo(c *gin.Context) {
	policy, ok := h.fetchPolicy(c)
	if !ok {
		return
	}
	nft, err := h.queries.NftInfo(c.Request.Context(), c.Param("contract"), c.Param("tokenId"), policy)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, nft)
}

// GetFeaturedTokens returns the featured token of every CW721 collection that names one.
func (h *Handler) GetFeaturedTokens(c *gin.Context) {
	policy, ok := h.fetchPolicy(c)
	if !ok {
		return
	}
	tokens, failures := h.queries.FeaturedTokens(c.Request.Context(), policy)

	resp := FeaturedResponse{Tokens: nonNil(tokens), ServiceErrors: failures}
	switch {
	case len(failures) > 0 && len(tokens) == 0:
		resp.StatusMessage = "Failed to retrieve any featured token."
	case len(failures) > 0:
		resp.StatusMessage = "Featured tokens retrieved. Some tokens could not be fetched."
	case len(tokens) == 0:
		resp.StatusMessage = "No collection names a featured token."
	default:
		resp.StatusMessage = "Featured tokens retrieved successfully."
	}
	c.JSON(http.StatusOK, resp)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) fetchPolicy(c *gin.Context) (entity.FetchPolicy, bool) {
	policy, err := entity.ParseFetchPolicy(c.Query("fetchPolicy"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return "", false
	}
	return policy, true
}

func (h *Handler) queryFailed(c *gin.Context, err error) {
	var gqlErr *gql.GraphQLError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		h.fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		h.fail(c, http.StatusGatewayTimeout, err.Error(), nil)
	case errors.Is(err, schema.ErrSchemaViolation):
		iss, _ := schema.AsIssues(err)
		h.logger.Warn("Gateway response failed validation", zap.String("path", c.FullPath()), zap.Error(err))
		h.fail(c, http.StatusBadGateway, err.Error(), iss)
	case errors.As(err, &gqlErr):
		h.fail(c, http.StatusBadGateway, gqlErr.Error(), nil)
	default:
		h.logger.Error("Query failed", zap.String("path", c.FullPath()), zap.Error(err))
		h.fail(c, http.StatusBadGateway, err.Error(), nil)
	}
}

func (h *Handler) fail(c *gin.Context, status int, msg string, iss schema.Issues) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:  utils.ShortenString(msg, maxMessageLen),
		Issues: iss,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
