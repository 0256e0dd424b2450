package forumclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garnizeh/campusfeed/internal/config"
)

// package-level logger for pkg/forumclient; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/forumclient. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Client talks to the campusfeed /v1 API. Reads are retried with backoff; mutations are
// sent exactly once. A simple circuit breaker trips after consecutive server failures.
type Client struct {
	cfg    config.ClientConfig
	base   *url.URL
	client *http.Client

	mu    sync.RWMutex
	token string

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

// NewClient creates a client for cfg.BaseURL. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.ClientConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		base:   u,
		client: httpClient,
	}
	logger.Info("forumclient: NewClient created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

func NewDefaultClient(cfg config.ClientConfig) (*Client, error) {
	defaultClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Close releases idle connections on the underlying transport. Close is idempotent.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	// ensure we only run close once
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
			logger.Info("forumclient: client Close() called - CloseIdleConnections invoked")
		}
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if c.cfg.CircuitFailureThreshold <= 0 || atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if c.cfg.CircuitFailureThreshold > 0 && v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// call performs one API request. GETs are retried on transport errors and 5xx responses;
// other methods are attempted once.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return &RequestError{Op: op, Message: ErrClosed.Error(), Err: ErrClosed}
	}
	if c.isCircuitOpen() {
		return &RequestError{Op: op, Message: ErrCircuitOpen.Error(), Err: ErrCircuitOpen}
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Op: op, Message: "encode request", Err: err}
		}
		payload = b
	}

	attempts := 1
	if method == http.MethodGet && c.cfg.Retries > 0 {
		attempts += c.cfg.Retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// backoff
			select {
			case <-ctx.Done():
				return &RequestError{Op: op, Message: ctx.Err().Error(), Err: ctx.Err()}
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			}
			if c.isCircuitOpen() {
				return &RequestError{Op: op, Message: ErrCircuitOpen.Error(), Err: ErrCircuitOpen}
			}
		}

		err := c.once(ctx, op, method, path, payload, out)
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			return nil
		}
		lastErr = err

		var re *RequestError
		if !errors.As(err, &re) || !re.Temporary() {
			return err
		}
		c.recordFailure()
		logger.Warn("forumclient: request failed", slog.String("op", op), slog.Int("attempt", attempt+1), slog.Any("err", err))
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, op, method, path string, payload []byte, out any) error {
	// path arrives escaped; RawPath keeps an escaped slash inside an id intact
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return &RequestError{Op: op, Message: "build request", Err: err}
	}
	u := c.base.ResolveReference(&url.URL{Path: unescaped, RawPath: raw})

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &RequestError{Op: op, Message: "build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var eb errorBody
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); rerr == nil {
			if json.Unmarshal(b, &eb) == nil && eb.Message != "" {
				msg = eb.Message
			} else if s := strings.TrimSpace(string(b)); s != "" {
				msg = s
			}
		}
		return &RequestError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}
