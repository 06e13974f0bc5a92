package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"embeddables/internal/app/port"
	"embeddables/internal/entity"
	"embeddables/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptyQuery is returned for requests without a query document.
var ErrEmptyQuery = errors.New("graphql query cannot be empty")

// GraphQLClientOptions configures NewGraphQLClient.
type GraphQLClientOptions struct {
	Endpoint string
	Timeout  time.Duration
	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Metrics   *metrics.Metrics
	// Client overrides the transport, mainly for tests.
	Client *fasthttp.Client
}

// graphQLClientImpl is the fasthttp implementation of port.GraphQLClient.
type graphQLClientImpl struct {
	client   *fasthttp.Client
	endpoint string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewGraphQLClient creates a client that POSTs to opts.Endpoint.
func NewGraphQLClient(opts GraphQLClientOptions, logger *zap.Logger) port.GraphQLClient {
	c := &graphQLClientImpl{
		client:   opts.Client,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		timeout:  opts.Timeout,
		logger:   logger.Named("GraphQLClient"),
		metrics:  opts.Metrics,
	}
	if c.client == nil {
		c.client = &fasthttp.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Do implements port.GraphQLClient. A response carrying "errors" is returned
// together with an *entity.GraphQLError so callers can still inspect partial
// data.
func (c *graphQLClientImpl) Do(ctx context.Context, gqlReq entity.GraphQLRequest) (*entity.GraphQLResponse, error) {
	if strings.TrimSpace(gqlReq.Query) == "" {
		return nil, ErrEmptyQuery
	}
	op := gqlReq.OperationName
	if op == "" {
		op = "anonymous"
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait for %s: %w", op, err)
		}
	}

	body, err := json.Marshal(gqlReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request %s: %w", op, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.SetBodyRaw(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Sending GraphQL request", zap.String("operation", op), zap.String("endpoint", c.endpoint))
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	c.observe(op, start, err == nil && resp.StatusCode() == fasthttp.StatusOK)
	if err != nil {
		c.logger.Error("Failed to execute GraphQL request", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("failed to execute graphql request %s: %w", op, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("GraphQL gateway returned non-OK status",
			zap.String("operation", op),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("graphql request %s failed with status %d: %s", op, resp.StatusCode(), string(rawBody))
	}

	var out entity.GraphQLResponse
	if err := json.Unmarshal(rawBody, &out); err != nil {
		c.logger.Error("Failed to decode GraphQL response",
			zap.String("operation", op),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to decode graphql response %s: %w", op, err)
	}
	// The body buffer goes back to the pool on return.
	out.Data = append([]byte(nil), out.Data...)

	if len(out.Errors) > 0 {
		c.logger.Warn("GraphQL response carried errors",
			zap.String("operation", op),
			zap.Int("errorCount", len(out.Errors)),
			zap.String("firstError", out.Errors[0].Message))
		return &out, &entity.GraphQLError{Operation: op, Items: out.Errors}
	}
	return &out, nil
}

func (c *graphQLClientImpl) observe(op string, start time.Time, ok bool) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	c.metrics.GraphQLRequests.WithLabelValues(op, status).Inc()
	c.metrics.GraphQLDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
