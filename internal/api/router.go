package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"PharmaBot/internal/metrics"
)

// ReadinessChecker - шлюз бэкенда; false, пока размыкатель открыт.
type ReadinessChecker interface {
	Ready() bool
}

// Pinger - локальная база бота.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MediaResolver проверяет путь к сохранённому вложению.
type MediaResolver interface {
	Resolve(owner, file string) (string, error)
}

// Dependencies содержит зависимости служебного HTTP API.
type Dependencies struct {
	Gateway        ReadinessChecker
	DB             Pinger // nil - база не используется
	Media          MediaResolver
	Metrics        *metrics.Metrics
	AdminToken     string
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter собирает служебные маршруты: пробы, метрики и раздачу медиафайлов.
func NewRouter(deps Dependencies) *chi.Mux {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	log := deps.Log.Named("api")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", adminTokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(deps, log))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AdminTokenMiddleware(deps.AdminToken, log))
		r.Get("/media/{owner}/{file}", MediaProxyHandler(deps.Media, log))
	})

	// Обработка запроса иконки, чтобы избежать ошибки 404 в логах
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func readinessHandler(deps Dependencies, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"gateway": "ok"}
		status := http.StatusOK

		if deps.Gateway != nil && !deps.Gateway.Ready() {
			checks["gateway"] = "circuit open"
			status = http.StatusServiceUnavailable
		}
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				log.Warn("база не отвечает на ping", zap.Error(err))
				checks["db"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				checks["db"] = "ok"
			}
		}
		writeJSON(w, status, checks)
	}
}
