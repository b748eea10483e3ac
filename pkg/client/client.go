// Package client is the HTTP client for the graph gateway. It implements
// the engine's scope fetcher with response caching, retry with backoff for
// transient failures, and observability hooks on every request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/skilltreelabs/skilltree/pkg/cache"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/graph"
	"github.com/skilltreelabs/skilltree/pkg/httputil"
	"github.com/skilltreelabs/skilltree/pkg/observability"
	"github.com/skilltreelabs/skilltree/pkg/store"
)

// Defaults applied by Options.ValidateAndSetDefaults.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = time.Minute
	DefaultRetries  = 3
)

// Options configures a Client.
type Options struct {
	// BaseURL is the gateway root, e.g. "http://localhost:8080".
	BaseURL string

	// HTTPClient overrides the transport. Defaults to a client with
	// DefaultTimeout.
	HTTPClient *http.Client

	// Cache stores fetched snapshots. Defaults to the null cache.
	Cache cache.Cache

	// Keyer derives cache keys. Defaults to the standard keyer.
	Keyer cache.Keyer

	// CacheTTL bounds snapshot staleness. Defaults to DefaultCacheTTL.
	CacheTTL time.Duration

	// Retries is the attempt count for transient failures.
	Retries int

	// Logger receives request logs. Defaults to a discarding logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := errors.ValidateURL(o.BaseURL); err != nil {
		return err
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// Client talks to the gateway. Safe for concurrent use.
type Client struct {
	opts Options
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Client{opts: opts}, nil
}

// apiError is the gateway's JSON error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchScope implements the engine's scope fetcher: a nil scopeID fetches
// the baseline scope, otherwise the focus scope for the group.
func (c *Client) FetchScope(ctx context.Context, scopeID *uuid.UUID) (*graph.Snapshot, error) {
	scope := ""
	path := "/api/graph"
	if scopeID != nil {
		scope = scopeID.String()
		path = "/api/graph/focus/" + url.PathEscape(scope)
	}

	key := c.opts.Keyer.SnapshotKey(scope)
	if data, hit, err := c.opts.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "snapshot")
		snap, err := graph.UnmarshalSnapshot(data)
		if err == nil {
			return snap, nil
		}
		// Corrupt entry; fall through to a fresh fetch.
		_ = c.opts.Cache.Delete(ctx, key)
	} else {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	snap, err := graph.UnmarshalSnapshot(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot")
	}

	if err := c.opts.Cache.Set(ctx, key, body, c.opts.CacheTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "snapshot", len(body))
	}
	return snap, nil
}

// CreateNode posts a new node and invalidates the affected cached scopes.
func (c *Client) CreateNode(ctx context.Context, in store.CreateNodeInput) (*graph.AbstractNode, error) {
	body, err := c.post(ctx, "/api/nodes", in)
	if err != nil {
		return nil, err
	}
	var node graph.AbstractNode
	if err := json.Unmarshal(body, &node); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode created node")
	}

	c.invalidate(ctx, "")
	if in.ParentID != nil {
		c.invalidate(ctx, in.ParentID.String())
	}
	return &node, nil
}

// Reseed resets the backend dataset and drops the baseline cache entry.
func (c *Client) Reseed(ctx context.Context) error {
	if _, err := c.post(ctx, "/api/admin/seed", nil); err != nil {
		return err
	}
	c.invalidate(ctx, "")
	return nil
}

func (c *Client) invalidate(ctx context.Context, scope string) {
	_ = c.opts.Cache.Delete(ctx, c.opts.Keyer.SnapshotKey(scope))
}

// =============================================================================
// Transport
// =============================================================================

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode request")
		}
	}
	return c.do(ctx, http.MethodPost, path, body)
}

// do runs one request with retry on transient failures. Non-2xx responses
// are translated into structured errors using the gateway's error body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	full := c.opts.BaseURL + path
	u, err := url.Parse(full)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad url %s", full)
	}

	var out []byte
	attempt := func() error {
		observability.HTTP().OnRequest(ctx, method, u.Host, u.Path)
		start := time.Now()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, full, reader)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "build request")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, method, u.Host, u.Path, err)
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path)}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response")}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			out = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			return &httputil.RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter}}
		case resp.StatusCode >= 500:
			return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s %s: status %d", method, path, resp.StatusCode)}
		default:
			return statusError(resp.StatusCode, data, method, path)
		}
	}

	if err := httputil.Retry(ctx, c.opts.Retries, 500*time.Millisecond, attempt); err != nil {
		c.opts.Logger.Warn("request failed", "method", method, "path", path, "err", err)
		return nil, unwrapRetryable(err)
	}
	return out, nil
}

// statusError maps a non-retryable HTTP failure to a structured error,
// preferring the code the gateway sent.
func statusError(status int, body []byte, method, path string) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Code != "" {
		return errors.New(errors.Code(ae.Code), "%s", ae.Message)
	}
	switch status {
	case http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s %s: not found", method, path)
	case http.StatusConflict:
		return errors.New(errors.ErrCodeDuplicate, "%s %s: conflict", method, path)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s %s: status %d", method, path, status)
	}
}

// unwrapRetryable strips the retry marker so callers see the domain error.
func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}
