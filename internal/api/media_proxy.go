package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PharmaBot/internal/media"
)

// MediaProxyHandler отдаёт сохранённое вложение владельца: фото профиля, квитанции, голосовые.
func MediaProxyHandler(resolver MediaResolver, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "owner")
		file := chi.URLParam(r, "file")

		if resolver == nil {
			http.Error(w, "Media storage is not configured", http.StatusServiceUnavailable)
			return
		}
		path, err := resolver.Resolve(owner, file)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) {
				http.Error(w, "File not found", http.StatusNotFound)
				return
			}
			log.Error("ошибка поиска медиафайла", zap.String("owner", owner), zap.String("file", file), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", getContentType(filepath.Ext(path)))
		// Медицинские документы не кэшируются промежуточными прокси.
		w.Header().Set("Cache-Control", "private, no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, path)
	}
}

// getContentType возвращает MIME-тип на основе расширения файла
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
