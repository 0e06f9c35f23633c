// Package gateway - типизированный HTTP-клиент к бэкенду аптеки (система учёта).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/metrics"
)

const idempotencyHeader = "Idempotency-Key"

// Config - параметры подключения к бэкенду.
type Config struct {
	BaseURL  string
	Username string
	Password string
	TokenTTL time.Duration
	Timeout  time.Duration
	Breaker  BreakerConfig
}

// Client talks to the backend REST API with a cached bearer token.
type Client struct {
	baseURL  string
	username string
	password string
	ttl      time.Duration

	http    *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	breaker *breaker
	now     func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New создаёт клиента. Метрики могут быть nil.
func New(cfg Config, log *zap.Logger, m *metrics.Metrics) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = constants.DEFAULT_TOKEN_TTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DEFAULT_API_TIMEOUT
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig("backend")
	}
	log = log.Named("gateway")
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		ttl:      cfg.TokenTTL,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
		metrics:  m,
		breaker:  newBreaker(cfg.Breaker, log, m),
		now:      time.Now,
	}
}

// Ready reports whether the breaker currently lets calls through.
func (c *Client) Ready() bool {
	return c.breaker.state() != gobreaker.StateOpen
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// accessToken возвращает кэшированный токен или логинится заново.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExp) {
		return c.token, nil
	}

	payload, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("marshal login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login/access-token", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Op: "login", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Op: "login", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Op: "login", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("login rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return "", &Error{Op: "login", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", &Error{Op: "login", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if lr.AccessToken == "" {
		return "", &Error{Op: "login", StatusCode: resp.StatusCode, Err: errors.New("empty access_token")}
	}
	c.token = lr.AccessToken
	c.tokenExp = c.now().Add(c.ttl)
	c.log.Debug("access token refreshed", zap.Time("expires", c.tokenExp))
	return c.token, nil
}

func (c *Client) invalidateToken(stale string) {
	c.mu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.mu.Unlock()
}

// request - один вызов API.
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	idemKey string
	out     any
}

// do выполняет запрос через breaker; при 401 один раз перелогинивается и повторяет.
func (c *Client) do(ctx context.Context, r request) error {
	started := time.Now()
	err := c.breaker.execute(ctx, r.op, func(ctx context.Context) error {
		status, err := c.send(ctx, r)
		if status == http.StatusUnauthorized {
			c.log.Info("token rejected, logging in again", zap.String("op", r.op))
			_, err = c.send(ctx, r)
		}
		return err
	})
	c.metrics.ObserveGateway(r.op, started, err)
	if err != nil {
		c.log.Warn("backend call failed",
			zap.String("op", r.op),
			zap.String("path", r.path),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
	}
	return err
}

func (c *Client) send(ctx context.Context, r request) (int, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return 0, &Error{Op: r.op, Err: fmt.Errorf("marshal: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return 0, &Error{Op: r.op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.idemKey != "" {
		req.Header.Set(idempotencyHeader, r.idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &Error{Op: r.op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken(token)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &Error{Op: r.op, StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
	}

	if r.out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, r.out); err != nil {
			return resp.StatusCode, &Error{Op: r.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
		}
	}
	return resp.StatusCode, nil
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
