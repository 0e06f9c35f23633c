package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"PharmaBot/internal/media"
	"PharmaBot/internal/metrics"
)

type stubGateway struct{ ready bool }

func (g stubGateway) Ready() bool { return g.ready }

type stubDB struct{ err error }

func (d stubDB) Ping(context.Context) error { return d.err }

func newTestRouter(t *testing.T, mutate func(*Dependencies)) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()
	deps := Dependencies{
		Gateway:        stubGateway{ready: true},
		Media:          media.NewRelay(root, nil, nil, zap.NewNop(), nil),
		Metrics:        metrics.New(prometheus.NewRegistry()),
		AdminToken:     "secret",
		AllowedOrigins: []string{"https://admin.example.com"},
		Log:            zap.NewNop(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps), root
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Readyz(t *testing.T) {
	tests := []struct {
		name   string
		deps   func(*Dependencies)
		code   int
		checks map[string]string
	}{
		{
			name:   "gateway only",
			code:   http.StatusOK,
			checks: map[string]string{"gateway": "ok"},
		},
		{
			name:   "breaker open",
			deps:   func(d *Dependencies) { d.Gateway = stubGateway{ready: false} },
			code:   http.StatusServiceUnavailable,
			checks: map[string]string{"gateway": "circuit open"},
		},
		{
			name:   "db up",
			deps:   func(d *Dependencies) { d.DB = stubDB{} },
			code:   http.StatusOK,
			checks: map[string]string{"gateway": "ok", "db": "ok"},
		},
		{
			name:   "db down",
			deps:   func(d *Dependencies) { d.DB = stubDB{err: errors.New("connection refused")} },
			code:   http.StatusServiceUnavailable,
			checks: map[string]string{"gateway": "ok", "db": "unavailable"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, tt.deps)

			rec := do(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.code, rec.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.checks, got)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.OrderCreated()
	h, _ := newTestRouter(t, func(d *Dependencies) { d.Metrics = m })

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pharmabot_orders_created_total 1")
}

func TestMediaProxy(t *testing.T) {
	h, root := newTestRouter(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "1001"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1001", "1001_17_receipt.jpg"), []byte("jpeg-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1001", "2002_17_receipt.jpg"), []byte("other"), 0o644))

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set(adminTokenHeader, token)
		}
		return do(t, h, req)
	}

	t.Run("serves owner file", func(t *testing.T) {
		rec := get("/media/1001/1001_17_receipt.jpg", "secret")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "jpeg-bytes", rec.Body.String())
	})
	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("/media/1001/1001_17_receipt.jpg", "").Code)
	})
	t.Run("wrong token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("/media/1001/1001_17_receipt.jpg", "guess").Code)
	})
	t.Run("foreign file in owner dir", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/media/1001/2002_17_receipt.jpg", "secret").Code)
	})
	t.Run("unknown file", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/media/1001/1001_99_receipt.jpg", "secret").Code)
	})
	t.Run("bad owner", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/media/abc/abc_1.jpg", "secret").Code)
	})
}

func TestMediaProxy_DisabledWithoutToken(t *testing.T) {
	h, _ := newTestRouter(t, func(d *Dependencies) { d.AdminToken = "" })

	req := httptest.NewRequest(http.MethodGet, "/media/1001/1001_17_receipt.jpg", nil)
	req.Header.Set(adminTokenHeader, "")
	rec := do(t, h, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/readyz", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := do(t, h, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
