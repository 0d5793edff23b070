// Package transport implements the authenticated HTTP client for the
// hosted Dealgrid API: bearer injection, a single serialized token
// refresh on 401, typed error mapping and multipart upload.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
	"github.com/dealgrid/dealgrid/internal/wire"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "dealgrid-go"
	contentTypeJSON  = "application/json"

	// maxResponseBytes caps how much of a response body is read into memory.
	maxResponseBytes = 10 << 20
)

// Client is the HTTP client all REST-backend calls go through.
type Client struct {
	base      string
	http      *http.Client
	store     *token.Store
	log       *zap.Logger
	userAgent string
	onExpired func()

	flight      singleflight.Group
	expiredOnce sync.Once
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSessionExpiredHook registers a callback fired at most once, when a
// 401 cannot be resolved by refreshing and the stored tokens are cleared.
func WithSessionExpiredHook(f func()) Option {
	return func(c *Client) { c.onExpired = f }
}

// New builds a Client for the given API base URL. Tokens are read from
// and written back to store as the session evolves.
func New(base string, store *token.Store, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(base, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		store:     store,
		log:       zap.NewNop(),
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// response is one HTTP exchange after the body has been drained.
type response struct {
	status int
	body   []byte
	header http.Header
}

// Do performs a registry endpoint call: JSON in, raw body out. A 401 is
// retried exactly once after a successful token refresh; every other
// non-2xx status becomes an *errs.APIError.
func (c *Client) Do(ctx context.Context, ep endpoint.Endpoint, q url.Values, body any) ([]byte, error) {
	return c.roundTrip(ctx, ep, q, body, true)
}

// Get issues a GET to an ad-hoc path under the API base.
func (c *Client) Get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	return c.roundTrip(ctx, endpoint.Endpoint{Method: http.MethodGet, Path: path}, q, nil, true)
}

// Post issues a POST with a JSON body to an ad-hoc path.
func (c *Client) Post(ctx context.Context, path string, q url.Values, body any) ([]byte, error) {
	return c.roundTrip(ctx, endpoint.Endpoint{Method: http.MethodPost, Path: path}, q, body, true)
}

// Put issues a PUT with a JSON body to an ad-hoc path.
func (c *Client) Put(ctx context.Context, path string, q url.Values, body any) ([]byte, error) {
	return c.roundTrip(ctx, endpoint.Endpoint{Method: http.MethodPut, Path: path}, q, body, true)
}

// Patch issues a PATCH with a JSON body to an ad-hoc path.
func (c *Client) Patch(ctx context.Context, path string, q url.Values, body any) ([]byte, error) {
	return c.roundTrip(ctx, endpoint.Endpoint{Method: http.MethodPatch, Path: path}, q, body, true)
}

// Delete issues a DELETE to an ad-hoc path.
func (c *Client) Delete(ctx context.Context, path string, q url.Values) ([]byte, error) {
	return c.roundTrip(ctx, endpoint.Endpoint{Method: http.MethodDelete, Path: path}, q, nil, true)
}

// Upload sends one file as multipart form data plus optional extra form
// fields. Uploads never retry on 401: the stream is consumed by the
// first attempt.
func (c *Client) Upload(ctx context.Context, ep endpoint.Endpoint, q url.Values, field, filename string, r io.Reader, extra map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			return nil, errs.Wrap(0, "", "encode form field", err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, errs.Wrap(0, "", "encode form file", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, errs.Wrap(0, "", "read upload payload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, errs.Wrap(0, "", "finish multipart body", err)
	}

	resp, _, err := c.send(ctx, ep.Method, ep.URL(c.base, q), buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, c.typedError(resp)
	}
	return resp.body, nil
}

func (c *Client) roundTrip(ctx context.Context, ep endpoint.Endpoint, q url.Values, body any, allowRetry bool) ([]byte, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	rawURL := ep.URL(c.base, q)

	resp, sentAccess, err := c.send(ctx, ep.Method, rawURL, payload, contentType)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized && allowRetry {
		if err := c.ensureFresh(ctx, sentAccess); err != nil {
			return nil, err
		}
		resp, _, err = c.send(ctx, ep.Method, rawURL, payload, contentType)
		if err != nil {
			return nil, err
		}
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, c.typedError(resp)
	}
	return resp.body, nil
}

// send performs a single HTTP exchange. It reports the access token that
// was attached so the refresh path can tell whether the pair has already
// been rotated by a concurrent caller.
func (c *Client) send(ctx context.Context, method, rawURL string, body []byte, contentType string) (*response, string, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, "", errs.Wrap(0, "", "build request", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	access := c.store.Access()
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("url", rawURL), zap.Error(err))
		return nil, access, errs.Wrap(0, "", "cannot reach the Dealgrid API", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, access, errs.Wrap(0, "", "read response body", err)
	}
	c.log.Debug("http round trip",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &response{status: resp.StatusCode, body: data, header: resp.Header}, access, nil
}

// ensureFresh resolves a 401 by refreshing the token pair. Concurrent
// callers share one refresh; a caller whose 401 raced an already
// completed rotation skips the refresh and just retries.
func (c *Client) ensureFresh(ctx context.Context, sentAccess string) error {
	if c.store.Refresh() == "" {
		return errs.Wrap(http.StatusUnauthorized, "", "not signed in", errs.ErrUnauthorized)
	}
	_, err, _ := c.flight.Do("refresh", func() (any, error) {
		if cur := c.store.Access(); cur != "" && cur != sentAccess {
			return nil, nil
		}
		return nil, c.refresh(ctx)
	})
	if err != nil {
		return c.sessionExpired(err)
	}
	return nil
}

// refresh exchanges the stored refresh token for a new pair and rewrites
// it into the scope the session lives in.
func (c *Client) refresh(ctx context.Context) error {
	rt := c.store.Refresh()
	if rt == "" {
		return errs.New(http.StatusUnauthorized, "", "no refresh token")
	}
	body, err := json.Marshal(map[string]string{"refreshToken": rt})
	if err != nil {
		return errs.Wrap(0, "", "encode refresh request", err)
	}
	resp, _, err := c.send(ctx, endpoint.UserRefreshToken.Method, endpoint.UserRefreshToken.URL(c.base, nil), body, contentTypeJSON)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status > 299 {
		return c.typedError(resp)
	}
	raw, err := wire.Unwrap(resp.body)
	if err != nil {
		return err
	}
	pair, err := wire.Decode[model.TokenPair](raw)
	if err != nil {
		return err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return errs.New(http.StatusInternalServerError, "", "refresh response missing tokens")
	}
	if err := c.store.Update(token.Pair{Access: pair.AccessToken, Refresh: pair.RefreshToken}); err != nil {
		return err
	}
	c.log.Debug("access token refreshed")
	return nil
}

// sessionExpired clears stored tokens, fires the expiry hook once and
// returns the terminal session-expired error.
func (c *Client) sessionExpired(cause error) error {
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clear tokens after failed refresh", zap.Error(err))
	}
	c.expiredOnce.Do(func() {
		if c.onExpired != nil {
			c.onExpired()
		}
	})
	c.log.Warn("session expired", zap.Error(cause))
	return errs.Wrap(http.StatusUnauthorized, "SESSION_EXPIRED", "session expired, sign in again", errs.ErrSessionExpired)
}

// typedError maps a non-2xx response onto *errs.APIError, pulling the
// message and optional code out of the body when it is JSON.
func (c *Client) typedError(r *response) error {
	msg, code := messageFromBody(r.body)
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	if msg == "" {
		msg = "request failed"
	}
	var cause error
	switch r.status {
	case http.StatusUnauthorized:
		cause = errs.ErrUnauthorized
	case http.StatusNotFound:
		cause = errs.ErrNotFound
	case http.StatusConflict:
		cause = errs.ErrAlreadyExists
	case http.StatusTooManyRequests:
		cause = errs.ErrRateLimited
	}
	if cause != nil {
		return errs.Wrap(r.status, code, msg, cause)
	}
	return errs.New(r.status, code, msg)
}

// messageFromBody extracts a human message and application code from an
// error body. JSON bodies are probed for the envelope fields; short text
// bodies are used verbatim.
func messageFromBody(body []byte) (msg, code string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", ""
	}
	var probe struct {
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
		Error        string `json:"error"`
		ErrorCode    string `json:"errorCode"`
	}
	if err := json.Unmarshal(trimmed, &probe); err == nil {
		switch {
		case probe.ErrorMessage != "":
			return probe.ErrorMessage, probe.ErrorCode
		case probe.Message != "":
			return probe.Message, probe.ErrorCode
		case probe.Error != "":
			return probe.Error, probe.ErrorCode
		}
		return "", probe.ErrorCode
	}
	if s := string(trimmed); len(s) <= 200 && !strings.ContainsAny(s, "<>") {
		return s, ""
	}
	return "", ""
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case json.RawMessage:
		return b, contentTypeJSON, nil
	case []byte:
		return b, contentTypeJSON, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", errs.Wrap(0, "", "encode request body", err)
		}
		return data, contentTypeJSON, nil
	}
}
