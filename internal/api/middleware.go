package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const adminTokenHeader = "X-Admin-Token"

// AdminTokenMiddleware пропускает только запросы с верным X-Admin-Token.
// Пустой token закрывает маршрут полностью.
func AdminTokenMiddleware(token string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "Forbidden: admin API disabled", http.StatusForbidden)
				return
			}
			got := r.Header.Get(adminTokenHeader)
			if got == "" {
				http.Error(w, "Unauthorized: Missing X-Admin-Token header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Warn("неверный admin token", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
