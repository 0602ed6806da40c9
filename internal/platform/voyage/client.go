package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/platform/ctxutil"
	"github.com/yungbote/movierec-backend/internal/platform/httpx"
	"github.com/yungbote/movierec-backend/internal/platform/logger"
)

type InputType string

const (
	InputDocument InputType = "document"
	InputQuery    InputType = "query"
)

const (
	opEmbed  = "embed"
	opRerank = "rerank"

	maxBodyBytes = 32 << 20
)

// RerankResult points back into the documents slice passed to Rerank.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Client calls the Voyage AI embeddings and rerank endpoints. Each attempt has
// its own timeout, retries are bounded, and a circuit breaker sheds load while
// the upstream is failing.
type Client struct {
	log     *logger.Logger
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *observability.Metrics
	sleep   func(context.Context, time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreakerSettings overrides the default breaker thresholds.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = c.newBreaker(st) }
}

func withSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func NewClient(log *logger.Logger, cfg Config, opts ...Option) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	c := &Client{
		log:     log.With("service", "VoyageClient"),
		cfg:     cfg,
		http:    &http.Client{},
		metrics: observability.Current(),
		sleep:   httpx.Sleep,
	}
	c.breaker = c.newBreaker(gobreaker.Settings{
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return counts.ConsecutiveFailures >= 5
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	return c, nil
}

func (c *Client) newBreaker(st gobreaker.Settings) *gobreaker.CircuitBreaker[[]byte] {
	st.Name = "voyage"
	// client errors say nothing about upstream health
	st.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		if errors.Is(err, context.Canceled) {
			return true
		}
		var he *HTTPError
		if errors.As(err, &he) {
			return !httpx.IsRetryableHTTPStatus(he.StatusCode)
		}
		return false
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		c.log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		c.metrics.SetBreakerState(name, int(to))
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

type embedRequest struct {
	Input     []string  `json:"input"`
	Model     string    `json:"model"`
	InputType InputType `json:"input_type,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string, inputType InputType) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i, s := range inputs {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("voyage embed: input %d is empty", i)
		}
		clean[i] = s
	}

	raw, err := c.call(ctx, opEmbed, "/embeddings", embedRequest{Input: clean, Model: c.cfg.EmbedModel, InputType: inputType})
	if err != nil {
		return nil, err
	}
	var resp embedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("voyage embed decode: %w", err)
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("voyage embed: missing embedding for input %d (requested=%d returned=%d)", i, len(clean), len(resp.Data))
		}
	}
	return out, nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Data []RerankResult `json:"data"`
}

// Rerank scores documents against query. Results come back ordered by
// relevance, most relevant first.
func (c *Client) Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error) {
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("voyage rerank: query is empty")
	}
	raw, err := c.call(ctx, opRerank, "/rerank", rerankRequest{Query: query, Documents: documents, Model: c.cfg.RerankModel})
	if err != nil {
		return nil, err
	}
	var resp rerankResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("voyage rerank decode: %w", err)
	}
	out := make([]RerankResult, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("voyage rerank: result index %d out of range (documents=%d)", r.Index, len(documents))
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, op, path string, body any) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := observability.StartSpan(ctx, "voyage."+op)
	defer span.End()

	start := time.Now()
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, op, path, body)
	})
	status := http.StatusOK
	if err != nil {
		status = 0
		var he *HTTPError
		if errors.As(err, &he) {
			status = he.StatusCode
		}
		span.RecordError(err)
	}
	c.metrics.ObserveGateway(op, status, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("voyage %s: %w", op, err)
	}
	return raw, nil
}

func (c *Client) doWithRetry(ctx context.Context, op, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		resp, raw, err := c.doOnce(ctx, op, path, payload)
		if err == nil {
			return raw, nil
		}
		if attempt >= c.cfg.MaxRetries || ctx.Err() != nil || !httpx.IsRetryableError(err) {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("voyage request retrying",
			"operation", op,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := c.sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, op, path string, payload []byte) (*http.Response, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if len(msg) > 512 {
			msg = msg[:512] + "..."
		}
		return resp, raw, &HTTPError{Operation: op, StatusCode: resp.StatusCode, Body: msg}
	}
	return resp, raw, nil
}
