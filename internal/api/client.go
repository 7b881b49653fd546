// Package api is the typed HTTP client for the backlog backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/idilsaglam/backlog/internal/config"
	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/platform/retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

type validator interface {
	Validate() error
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	log     *logging.Logger
}

// New builds a client from cfg. A nil log discards output.
func New(cfg config.APIConfig, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("api"),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}
	c.policy = retry.Policy{
		MaxAttempts:      cfg.MaxAttempts,
		InitialBackoff:   cfg.Backoff,
		RateLimitBackoff: 5 * cfg.Backoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.log.Warn(context.Background(), "retrying request",
				zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		},
	}
	return c
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, in any) (request, error) {
	r := request{method: method, path: path}
	if in == nil {
		return r, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return r, fmt.Errorf("failed to marshal request: %w", err)
	}
	r.body = b
	r.contentType = "application/json"
	return r, nil
}

// send runs req, retrying only GETs, and decodes a 2xx body into out when out is non-nil.
func (c *Client) send(ctx context.Context, req request, out any) error {
	if logging.RequestIDFromContext(ctx) == "" {
		ctx = logging.WithRequestID(ctx, "")
	}
	policy := retry.Once
	if req.method == http.MethodGet {
		policy = c.policy
	}
	return retry.DoVoid(ctx, policy, classify, func(ctx context.Context) error {
		return c.attempt(ctx, req, out)
	})
}

func (c *Client) attempt(ctx context.Context, req request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", logging.RequestIDFromContext(ctx))

	c.log.Debug(ctx, "request", zap.String("method", req.method), zap.String("path", req.path))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Info(ctx, "request rejected",
			zap.String("method", req.method), zap.String("path", req.path), zap.Int("status", resp.StatusCode))
		return &StatusError{Method: req.method, Path: req.path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrDecode, req.method, req.path, err)
	}
	return nil
}

func getOne[T validator](ctx context.Context, c *Client, path string) (T, error) {
	var v T
	if err := c.send(ctx, request{method: http.MethodGet, path: path}, &v); err != nil {
		return v, err
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("%w: GET %s: %w", ErrDecode, path, err)
	}
	return v, nil
}

func getList[T validator](ctx context.Context, c *Client, path string) ([]T, error) {
	var vs []T
	if err := c.send(ctx, request{method: http.MethodGet, path: path}, &vs); err != nil {
		return nil, err
	}
	for i, v := range vs {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: GET %s: element %d: %w", ErrDecode, path, i, err)
		}
	}
	if vs == nil {
		vs = []T{}
	}
	return vs, nil
}
