package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

const DefaultRefreshTimeout = 10 * time.Second

type GatewayConfig struct {
	BaseURL        string
	AuthPrefix     string        // requests whose path contains it never trigger recovery
	RefreshPath    string        // POSTed with no body; the cookie jar carries the credential
	RefreshTimeout time.Duration // bounds the single in-flight refresh
	RequestTimeout time.Duration // per-request timeout of the default http.Client
}

type GatewayOption func(*Gateway)

// WithHTTPClient replaces the default client. It should carry a cookie jar,
// otherwise the refresh credential is lost.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.httpClient = c }
}

func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// WithSessionEndHook registers fn to run once per session teardown with the
// cause (nil for an explicit logout).
func WithSessionEndHook(fn func(cause error)) GatewayOption {
	return func(g *Gateway) { g.onSessionEnd = fn }
}

// Request describes one call relative to the gateway's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	retried bool
	token   string // bearer for a replay, overrides the held token
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

type refreshResult struct {
	token string
	err   error
}

// Gateway attaches the bearer token to outbound requests and recovers from a
// 401 with a single transparent refresh. Concurrent 401s share one refresh:
// the first caller performs it, the rest wait in FIFO order and are released
// together when it settles.
type Gateway struct {
	base           *url.URL
	authPrefix     string
	refreshPath    string
	refreshTimeout time.Duration

	httpClient   *http.Client
	store        DisplayStore
	observer     Observer
	onSessionEnd func(error)

	mu         sync.Mutex
	token      string
	refreshing bool
	waiters    []chan refreshResult
}

func NewGateway(cfg GatewayConfig, store DisplayStore, opts ...GatewayOption) (*Gateway, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, ErrInvalidArgument)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	g := &Gateway{
		base:           base,
		authPrefix:     cfg.AuthPrefix,
		refreshPath:    cfg.RefreshPath,
		refreshTimeout: cfg.RefreshTimeout,
		store:          store,
		observer:       nopObserver{},
	}
	if g.authPrefix == "" {
		g.authPrefix = constraints.AuthPrefix
	}
	if g.refreshPath == "" {
		g.refreshPath = constraints.PathRefreshToken
	}
	if g.refreshTimeout <= 0 {
		g.refreshTimeout = DefaultRefreshTimeout
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		g.httpClient = &http.Client{Jar: jar, Timeout: cfg.RequestTimeout}
	}
	return g, nil
}

// Token returns the in-memory bearer token, "" when none is held.
func (g *Gateway) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Refreshing reports whether a refresh call is currently in flight.
func (g *Gateway) Refreshing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshing
}

func (g *Gateway) Store() DisplayStore {
	return g.store
}

// Do dispatches req and returns the buffered response. Any non-2xx status is
// returned as *APIError. A 401 on a non-auth request that has not already been
// replayed waits for a refreshed token and is replayed exactly once.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	sent := req.token
	if sent == "" {
		sent = g.Token()
	}
	resp, err := g.dispatch(ctx, req, sent)
	if err == nil {
		return resp, nil
	}
	if !g.recoverable(req, err) {
		return nil, err
	}

	token, err := g.awaitToken(ctx, sent)
	if err != nil {
		return nil, err
	}

	replay := *req
	replay.retried = true
	replay.token = token
	g.observer.RecordReplay()
	logger.Debug("replaying request with refreshed token",
		zap.String("method", replay.Method),
		zap.String("path", replay.Path))
	return g.Do(ctx, &replay)
}

func (g *Gateway) recoverable(req *Request, err error) bool {
	if req.retried || !IsUnauthorized(err) {
		return false
	}
	return !strings.Contains(req.Path, g.authPrefix)
}

// awaitToken returns a token to replay with. sent is the token the failed
// request carried; if another refresh already replaced it, the current token
// is used without refreshing again.
func (g *Gateway) awaitToken(ctx context.Context, sent string) (string, error) {
	g.mu.Lock()
	if !g.refreshing && g.token != "" && g.token != sent {
		token := g.token
		g.mu.Unlock()
		return token, nil
	}
	if g.refreshing {
		ch := make(chan refreshResult, 1)
		g.waiters = append(g.waiters, ch)
		g.observer.SetWaiting(len(g.waiters))
		g.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	token, err := g.refresh(ctx)
	g.settle(ctx, token, err)
	return token, err
}

// settle leaves the refreshing state and releases every waiter, in the order
// they queued, with the outcome of the refresh.
func (g *Gateway) settle(ctx context.Context, token string, err error) {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.refreshing = false
	if err == nil {
		g.token = token
	} else {
		g.token = ""
	}
	g.observer.SetWaiting(0)
	g.mu.Unlock()

	if err != nil {
		logger.Warn("token refresh failed, ending session",
			zap.Int("waiters", len(waiters)),
			zap.Error(err))
		g.teardown(ctx, err)
	} else {
		logger.Info("token refreshed", zap.Int("waiters", len(waiters)))
	}

	for _, ch := range waiters {
		ch <- refreshResult{token: token, err: err}
	}
}

func (g *Gateway) refresh(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.refreshTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.dispatch(ctx, &Request{Method: http.MethodPost, Path: g.refreshPath}, "")
	if err != nil {
		g.observer.RecordRefresh(false, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var tr v1.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		g.observer.RecordRefresh(false, time.Since(start))
		return "", fmt.Errorf("%w: decode response: %w", ErrRefreshFailed, err)
	}
	token := tr.BearerToken()
	if token == "" {
		g.observer.RecordRefresh(false, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrEmptyToken)
	}
	g.observer.RecordRefresh(true, time.Since(start))

	g.writeProfile(ctx, tr, g.profileChanged(ctx, tr.Username))
	return token, nil
}

// establish installs the token of a successful login.
func (g *Gateway) establish(ctx context.Context, tr v1.TokenResponse) error {
	token := tr.BearerToken()
	if token == "" {
		return ErrEmptyToken
	}
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	g.writeProfile(ctx, tr, true)
	return nil
}

// EndSession drops the token and the display profile.
func (g *Gateway) EndSession(ctx context.Context) {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
	g.teardown(ctx, nil)
}

func (g *Gateway) teardown(ctx context.Context, cause error) {
	if err := g.store.Delete(context.WithoutCancel(ctx), constraints.DisplayKeys...); err != nil {
		logger.Error("failed to clear display profile", zap.Error(err))
	}
	if g.onSessionEnd != nil {
		g.onSessionEnd(cause)
	}
}

// profileChanged reports whether a refresh answered for a different user than
// the one in the display store.
func (g *Gateway) profileChanged(ctx context.Context, username string) bool {
	if username == "" {
		return false
	}
	current, err := g.store.Get(ctx, constraints.DisplayUsername)
	return err == nil && current != username
}

// writeProfile stores the display fields of tr. With replace set the old
// profile is dropped first, so fields tr leaves empty are cleared; otherwise
// empty fields keep their stored value.
func (g *Gateway) writeProfile(ctx context.Context, tr v1.TokenResponse, replace bool) {
	if replace {
		if err := g.store.Delete(ctx, constraints.DisplayKeys...); err != nil {
			logger.Warn("failed to clear display profile", zap.Error(err))
		}
	}
	fields := map[string]string{
		constraints.DisplayUsername: tr.Username,
		constraints.DisplayName:     tr.Name,
		constraints.DisplayImageURL: tr.ImageURL,
		constraints.DisplayRole:     tr.Role,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := g.store.Set(ctx, k, v); err != nil {
			logger.Warn("failed to persist display field", zap.String("key", k), zap.Error(err))
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, req *Request, token string) (*Response, error) {
	u := *g.base
	u.Path = g.base.Path + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get(constraints.HeaderContentType) == "" {
		httpReq.Header.Set(constraints.HeaderContentType, constraints.ContentTypeJSON)
	}
	if token != "" {
		httpReq.Header.Set(constraints.HeaderAuthorization, constraints.BearerPrefix+token)
	}

	start := time.Now()
	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	g.observer.ObserveRequest(req.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := newAPIError(req.Method, req.Path, httpResp.StatusCode, data)
		logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", httpResp.StatusCode),
			zap.Bool("retried", req.retried))
		return nil, apiErr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// IsRefreshFailure reports whether err ended the session.
func IsRefreshFailure(err error) bool {
	return errors.Is(err, ErrRefreshFailed)
}
