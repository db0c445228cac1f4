// Package client talks to the listing API on behalf of the terminal browser.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/maxviazov/cve-catalog-service/internal/model"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = 250 * time.Millisecond
	listPath       = "/api/cves"
)

// NetworkError means the request never produced an HTTP response: dial failure,
// reset connection, timeout or an unreadable body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// FieldError mirrors the field errors reported by the server on 400.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode  int
	Code        string       `json:"error"`
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"field_errors"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "; %s %s", fe.Field, fe.Message)
	}
	return b.String()
}

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	retries uint64
	backoff time.Duration
	log     zerolog.Logger
}

type Option func(*Client)

// WithTimeout bounds every single attempt; a timed out attempt is a NetworkError.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRetries sets how many extra attempts a NetworkError gets. API errors are never retried.
func WithRetries(n uint64) Option { return func(c *Client) { c.retries = n } }

func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:    u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		backoff: DefaultBackoff,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.backoff <= 0 {
		c.backoff = time.Millisecond
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.log = c.log.With().Str("module", "client").Logger()
	return c, nil
}

// ListRecords fetches one page. ctx cancellation stops both the in-flight attempt and any retry wait.
func (c *Client) ListRecords(ctx context.Context, page, limit int) (model.RecordPage, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + listPath
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	target := u.String()

	var out model.RecordPage
	attempt := 0
	b := retry.WithMaxRetries(c.retries, retry.NewConstant(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		res, err := c.get(ctx, target)
		if err == nil {
			out = res
			return nil
		}
		var ne *NetworkError
		if errors.As(err, &ne) && ctx.Err() == nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Str("url", target).Msg("fetch failed")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return model.RecordPage{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, target string) (model.RecordPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.RecordPage{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.RecordPage{}, &NetworkError{Op: "GET " + target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RecordPage{}, &NetworkError{Op: "read body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// error body is best effort; the status alone is enough to report
		_ = json.Unmarshal(body, apiErr)
		return model.RecordPage{}, apiErr
	}

	var page model.RecordPage
	if err := json.Unmarshal(body, &page); err != nil {
		return model.RecordPage{}, fmt.Errorf("decode page: %w", err)
	}
	return page, nil
}
