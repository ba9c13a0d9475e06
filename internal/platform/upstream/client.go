// Package upstream is the single point of HTTP dispatch to the clinical
// backend. Every resource client in internal/domain goes through Client; none
// of them build requests or interpret error bodies on their own.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const tokenKey contextKey = "upstream_token"

// WithToken returns a context carrying the backend access token to attach as
// a bearer credential on outgoing requests.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the backend access token from the context, if any.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// Options is the per-request options bag: query params, JSON body, and an
// optional pointer the response body is decoded into.
type Options struct {
	// Op is a short human-readable description of the operation
	// ("schedule appointment"). It is carried on returned errors.
	Op string
	// Params are appended to the request URL as query parameters.
	Params url.Values
	// Body, when non-nil, is JSON-encoded as the request body.
	Body interface{}
	// Out, when non-nil, receives the JSON-decoded response body.
	Out interface{}
}

// Client issues requests against the clinical backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a backend client. baseURL must not have a trailing slash;
// one is stripped if present.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "upstream").Logger(),
	}
}

// Do issues a single HTTP request and returns the raw response body. On a
// non-2xx status the body is parsed through Normalize and a *Error is
// returned. Transport failures (DNS, refused connection, context
// cancellation) yield a *Error with Transport set.
func (c *Client) Do(ctx context.Context, method, path string, opts Options) ([]byte, error) {
	u := c.baseURL + path
	if len(opts.Params) > 0 {
		u += "?" + opts.Params.Encode()
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &Error{Op: opts.Op, Transport: true, Message: "encode request body", Err: err}
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, &Error{Op: opts.Op, Transport: true, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream transport failure")
		return nil, &Error{Op: opts.Op, Transport: true, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: opts.Op, Transport: true, Message: "read response body", Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, fields := Normalize(raw)
		return nil, &Error{
			Op:      opts.Op,
			Status:  resp.StatusCode,
			Message: msg,
			Fields:  fields,
		}
	}

	if opts.Out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, opts.Out); err != nil {
			return nil, &Error{Op: opts.Op, Transport: true, Message: "decode response body", Err: err}
		}
	}
	return raw, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts Options) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts Options) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts Options) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, opts)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts Options) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts Options) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, opts)
}

// Path joins path segments under a resource family root, escaping each
// segment. Path("healthcare", "appointments", id) -> "/healthcare/appointments/<id>".
func Path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (e *Error) Error() string {
	switch {
	case e.Transport:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s: %s (status %d, %d field errors)", e.Op, e.Message, e.Status, len(e.Fields))
	default:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
}

// Unwrap exposes the underlying transport error for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }
