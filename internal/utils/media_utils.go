package utils

import (
	"mime"
	"path"
	"strings"
)

// ExtensionFor подбирает расширение файла: сначала из пути Telegram,
// затем из MIME-типа, иначе значение по умолчанию для вида вложения.
func ExtensionFor(remotePath, mimeType, kind string) string {
	if ext := strings.ToLower(path.Ext(remotePath)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if mimeType != "" {
		switch strings.ToLower(mimeType) {
		case "image/jpeg":
			return ".jpg"
		case "audio/ogg":
			return ".ogg"
		}
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	switch kind {
	case "photo":
		return ".jpg"
	case "voice":
		return ".ogg"
	}
	return ".bin"
}

// ContentTypeFor возвращает MIME-тип по расширению для раздачи файлов.
func ContentTypeFor(ext string) string {
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
