// Package subgraph is a GraphQL client for indexed blockchain datasets.
package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/circuitbreaker"
	"github.com/SimpleFi-finance/defi-analytics/internal/httpclient"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/ratelimit"
)

// DefaultPageSize is the largest page the hosted service returns.
const DefaultPageSize = 1000

// Options configure a Client.
type Options struct {
	Name              string
	URL               string
	PageSize          int
	Timeout           time.Duration
	RequestsPerMinute int
	RoundTripper      http.RoundTripper
}

// Client runs GraphQL queries against one endpoint, rate limited and behind
// a circuit breaker.
type Client struct {
	name     string
	url      string
	pageSize int
	http     *httpclient.Client
	limiter  *ratelimit.Limiter
	cb       *circuitbreaker.CircuitBreaker[json.RawMessage]
	log      logger.LoggerInterface
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// New creates a Client.
func New(opts Options, log logger.LoggerInterface) (*Client, error) {
	if opts.URL == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "subgraph url")
	}
	if opts.Name == "" {
		opts.Name = "subgraph"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	httpOpts := []httpclient.Option{
		httpclient.WithName(opts.Name),
		httpclient.WithTimeout(opts.Timeout),
	}
	if opts.RoundTripper != nil {
		httpOpts = append(httpOpts, httpclient.WithRoundTripper(opts.RoundTripper))
	}
	hc, err := httpclient.New(httpOpts...)
	if err != nil {
		return nil, err
	}

	cbCfg := circuitbreaker.DefaultConfig(opts.Name)
	cbCfg.OnStateChange = func(name, from, to string) {
		log.Warn(context.Background(), "subgraph circuit breaker state change",
			"breaker", name, "from", from, "to", to)
	}

	return &Client{
		name:     opts.Name,
		url:      opts.URL,
		pageSize: opts.PageSize,
		http:     hc,
		limiter:  ratelimit.New(opts.RequestsPerMinute),
		cb:       circuitbreaker.New[json.RawMessage](cbCfg),
		log:      log,
	}, nil
}

// Name identifies the endpoint in logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// PageSize is the page size used by Paginate.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Healthy reports whether the circuit breaker lets requests through.
func (c *Client) Healthy(context.Context) (bool, string) {
	state := c.cb.State()
	return state != "open", state
}

// Query executes query and decodes its data object into out.
func (c *Client) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeRateLimitExceeded, c.name)
	}

	data, err := c.cb.Execute(func() (json.RawMessage, error) {
		return c.do(ctx, query, vars)
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.New(apperror.CodeSubgraphResponseError,
			apperror.WithCause(err),
			apperror.WithContextf("%s: decode data", c.name))
	}
	return nil
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any) (json.RawMessage, error) {
	var resp response

	err := c.http.PostJSON(ctx, c.url, request{Query: query, Variables: vars}, &resp)
	var status *httpclient.StatusError
	switch {
	case errors.As(err, &status) && status.Status < 500 && status.Status != http.StatusTooManyRequests:
		return nil, apperror.External(apperror.CodeSubgraphResponseError, c.name, err)
	case err != nil:
		return nil, apperror.External(apperror.CodeSubgraphQueryFailed, c.name, err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, apperror.New(apperror.CodeSubgraphResponseError,
			apperror.WithContextf("%s: %s", c.name, strings.Join(msgs, "; ")))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, apperror.New(apperror.CodeSubgraphResponseError,
			apperror.WithContextf("%s: empty data", c.name))
	}

	return resp.Data, nil
}
