// Package postgrest is a small client for a PostgREST-style JSON API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/UniversalTze/FormBase/pkg/middleware/requestid"
)

const (
	ownerKey          = "username"
	preferHeader      = "Prefer"
	returnRepresented = "return=representation"
	maxErrorBody      = 4 << 10
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d - %s", e.Status, e.Body)
}

// Observer is told about every completed round trip. status is 0 when the
// request never produced a response.
type Observer func(method, resource string, status int, elapsed time.Duration)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver registers a round-trip observer, typically a metrics recorder.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client issues authenticated JSON requests against the store.
type Client struct {
	baseURL  string
	defaults Credentials
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New constructs a Client. A zero timeout means requests are bounded only by ctx.
func New(baseURL string, defaults Credentials, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		defaults: defaults,
		http:     &http.Client{Timeout: timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the JSON response of a GET into out.
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post creates a row and decodes the stored representation into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Patch partially updates rows and decodes the stored representation into out.
func (c *Client) Patch(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, out)
}

// Delete removes rows.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Do sends one request. A non-nil body must marshal to a JSON object; the owner
// username is merged into it. Responses are decoded into out only when the
// content type is JSON; anything else is an empty success.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	creds := c.credentials(ctx)

	var reader io.Reader
	if body != nil {
		payload, err := withOwner(body, creds.Username)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set(preferHeader, returnRepresented)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, endpoint, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, resourceOf(endpoint), err)
	}
	defer resp.Body.Close()
	c.observe(method, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		herr := &HTTPError{Method: method, Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
		c.logger.Debug("upstream request failed",
			zap.String("method", method),
			zap.String("resource", resourceOf(endpoint)),
			zap.Int("status", resp.StatusCode),
		)
		return herr
	}

	if out == nil || !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", resourceOf(endpoint), err)
	}
	return nil
}

// Owner returns the username writes made with ctx are stamped with.
func (c *Client) Owner(ctx context.Context) string {
	return c.credentials(ctx).Username
}

// Ping checks that the store answers at all.
func (c *Client) Ping(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "/", nil, nil)
}

func (c *Client) credentials(ctx context.Context) Credentials {
	creds := c.defaults
	if override, ok := CredentialsFromContext(ctx); ok {
		if override.Token != "" {
			creds.Token = override.Token
		}
		if override.Username != "" {
			creds.Username = override.Username
		}
	}
	return creds
}

func (c *Client) url(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func (c *Client) observe(method, endpoint string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(method, resourceOf(endpoint), status, elapsed)
	}
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.Status == status
}

func withOwner(body interface{}, owner string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	if owner == "" {
		return payload, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	stamped, err := json.Marshal(owner)
	if err != nil {
		return nil, err
	}
	fields[ownerKey] = stamped
	return json.Marshal(fields)
}

func resourceOf(endpoint string) string {
	path := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexAny(path, "?/"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "json")
	}
	return media == "application/json" || strings.HasSuffix(media, "+json") || strings.HasPrefix(media, "application/vnd.pgrst")
}
