package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/doronEilam/blog/internal/session"
	"github.com/doronEilam/blog/internal/tokens"
	"github.com/doronEilam/blog/pkg/logger"
	"github.com/doronEilam/blog/pkg/metrics"
)

// Session is the slice of the session manager the dispatcher depends on.
type Session interface {
	AccessToken() (string, bool)
	EnsureFreshAccess(ctx context.Context) (string, error)
	Expire(reason string)
}

// Client dispatches authenticated requests against the remote API. It
// attaches the bearer credential, refreshes an expired access token before
// sending, and recovers from a 401 with exactly one refresh + resend. A 401
// from the refresh endpoint itself, or a failed retry, expires the session.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRateLimit throttles outbound calls with a token bucket.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a dispatcher for the API at baseURL.
func New(baseURL string, sess Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch issues an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues an authenticated DELETE. A 204 response yields no body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do performs one logical request. It contributes to at most one in-flight
// refresh and resends at most once, regardless of how the first attempt
// fails. Non-auth errors pass through untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	// missing credentials mean an anonymous request; some endpoints allow it
	token, hasToken := c.session.AccessToken()
	if hasToken && tokens.IsExpired(token) {
		var err error
		if token, err = c.session.EnsureFreshAccess(ctx); err != nil {
			c.session.Expire("token refresh failed before request")
			return fmt.Errorf("refresh before %s %s: %w", method, path, err)
		}
	}

	status, respBody, err := c.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return c.finish(status, respBody, out)
	}

	// the refresh endpoint rejecting credentials is unrecoverable; anything
	// else gets one refresh and one resend
	if path == session.RefreshPath {
		c.session.Expire("refresh endpoint returned 401")
		return newError(status, respBody)
	}
	if !hasToken {
		// anonymous request rejected; nothing to refresh
		return newError(status, respBody)
	}

	logger.Debugf("client: 401 on %s %s, refreshing and retrying once", method, path)
	token, err = c.session.EnsureFreshAccess(ctx)
	if err != nil {
		c.session.Expire("token refresh failed after 401")
		return fmt.Errorf("refresh after 401 on %s %s: %w", method, path, err)
	}
	metrics.RequestRetries.Inc()

	status, respBody, err = c.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.session.Expire("request unauthorized after refresh")
		return newError(status, respBody)
	}
	return c.finish(status, respBody, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	metrics.APIRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}

func (c *Client) finish(status int, body []byte, out any) error {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return newError(status, body)
	}
	if out == nil || status == http.StatusNoContent || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
