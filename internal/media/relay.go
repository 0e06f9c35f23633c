// Package media сохраняет вложения из чата на диск и отправляет их обратно.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"PharmaBot/internal/metrics"
	"PharmaBot/internal/models"
	"PharmaBot/internal/utils"
)

// ErrDownload - вложение не удалось получить из чата. Шаг диалога не продвигается.
var ErrDownload = errors.New("media: download failed")

// ErrNotFound - запрошенного файла нет в хранилище.
var ErrNotFound = errors.New("media: file not found")

// Attachment - одно вложение входящего сообщения.
type Attachment struct {
	Kind         string // models.MessageKindPhoto / Voice / File
	FileID       string
	FileUniqueID string
	MimeType     string
	FileName     string
}

// Downloader получает содержимое файла по file_id.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

// Sender - исходящая часть транспорта, нужная для доставки файлов.
type Sender interface {
	SendPhoto(ctx context.Context, chatID int64, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error)
	SendMediaGroup(ctx context.Context, chatID int64, paths []string) error
}

// Transport - то, что Relay требует от чата.
type Transport interface {
	Downloader
	Sender
}

// Index запоминает, куда уже сохранён файл с данным file_unique_id. Может быть nil.
type Index interface {
	Lookup(ctx context.Context, uniqueID string, ownerID int64, purpose string) (string, error)
	Remember(ctx context.Context, uniqueID string, ownerID int64, purpose, path string) error
}

type seenKey struct {
	uniqueID string
	ownerID  int64
	purpose  string
}

// Relay хранит файлы в <root>/<owner>/<owner>_<unixnano>_<purpose><ext>.
type Relay struct {
	root      string
	transport Transport
	index     Index
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu   sync.Mutex
	seen map[seenKey]string
}

func NewRelay(root string, transport Transport, index Index, log *zap.Logger, m *metrics.Metrics) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{
		root:      root,
		transport: transport,
		index:     index,
		log:       log.Named("media"),
		metrics:   m,
		now:       time.Now,
		seen:      make(map[seenKey]string),
	}
}

// Root - корневой каталог хранилища.
func (r *Relay) Root() string { return r.root }

// Store скачивает вложение один раз и возвращает локальный путь.
// Повторная отправка того же файла (тот же file_unique_id) возвращает прежний путь.
func (r *Relay) Store(ctx context.Context, att Attachment, ownerID int64, purpose string) (string, error) {
	if att.FileID == "" {
		return "", fmt.Errorf("%w: empty file id", ErrDownload)
	}
	key := seenKey{uniqueID: att.FileUniqueID, ownerID: ownerID, purpose: purpose}
	if p, ok := r.known(ctx, key); ok {
		r.log.Debug("вложение уже сохранено", zap.String("unique_id", att.FileUniqueID), zap.String("path", p))
		return p, nil
	}

	data, remotePath, err := r.transport.DownloadFile(ctx, att.FileID)
	if err != nil {
		r.log.Warn("не удалось скачать вложение", zap.Int64("owner", ownerID), zap.String("file_id", att.FileID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}

	dir := filepath.Join(r.root, strconv.FormatInt(ownerID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	ext := utils.ExtensionFor(remotePath, att.MimeType, att.Kind)
	name := fmt.Sprintf("%d_%d_%s%s", ownerID, r.now().UnixNano(), purpose, ext)
	path := filepath.Join(dir, name)
	if err := writeAtomic(dir, path, data); err != nil {
		return "", err
	}

	r.remember(ctx, key, path)
	r.metrics.MediaSaved(purpose)
	r.log.Info("вложение сохранено",
		zap.Int64("owner", ownerID),
		zap.String("purpose", purpose),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}

func (r *Relay) known(ctx context.Context, key seenKey) (string, bool) {
	if key.uniqueID == "" {
		return "", false
	}
	r.mu.Lock()
	p, ok := r.seen[key]
	r.mu.Unlock()
	if ok && fileExists(p) {
		return p, true
	}
	if r.index == nil {
		return "", false
	}
	p, err := r.index.Lookup(ctx, key.uniqueID, key.ownerID, key.purpose)
	if err != nil {
		r.log.Warn("индекс медиа недоступен", zap.Error(err))
		return "", false
	}
	if p == "" || !fileExists(p) {
		return "", false
	}
	r.mu.Lock()
	r.seen[key] = p
	r.mu.Unlock()
	return p, true
}

func (r *Relay) remember(ctx context.Context, key seenKey, path string) {
	if key.uniqueID == "" {
		return
	}
	r.mu.Lock()
	r.seen[key] = path
	r.mu.Unlock()
	if r.index != nil {
		if err := r.index.Remember(ctx, key.uniqueID, key.ownerID, key.purpose, path); err != nil {
			r.log.Warn("не удалось записать индекс медиа", zap.Error(err))
		}
	}
}

// writeAtomic пишет во временный файл того же каталога и переименовывает.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close media: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename media: %w", err)
	}
	return nil
}

// Deliver отправляет сохранённый файл: фото как фото, остальное документом.
func (r *Relay) Deliver(ctx context.Context, path string, dest int64, kind, caption string) error {
	if !fileExists(path) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if kind == models.MessageKindPhoto {
		_, err := r.transport.SendPhoto(ctx, dest, path, caption, nil)
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read media: %w", err)
	}
	_, err = r.transport.SendDocument(ctx, dest, filepath.Base(path), data, caption)
	return err
}

// DeliverAlbum отправляет фото группой. Отсутствующие файлы пропускаются.
func (r *Relay) DeliverAlbum(ctx context.Context, paths []string, dest int64) (int, error) {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if fileExists(p) {
			existing = append(existing, p)
		} else {
			r.log.Warn("файл альбома не найден", zap.String("path", p))
		}
	}
	switch len(existing) {
	case 0:
		return 0, nil
	case 1:
		_, err := r.transport.SendPhoto(ctx, dest, existing[0], "", nil)
		if err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err := r.transport.SendMediaGroup(ctx, dest, existing); err != nil {
		return 0, err
	}
	return len(existing), nil
}

// Resolve проверяет имя файла владельца и возвращает путь внутри хранилища.
func (r *Relay) Resolve(owner, file string) (string, error) {
	if _, err := strconv.ParseInt(owner, 10, 64); err != nil {
		return "", fmt.Errorf("%w: bad owner %q", ErrNotFound, owner)
	}
	if file == "" || filepath.Base(file) != file || strings.HasPrefix(file, ".") {
		return "", fmt.Errorf("%w: bad name %q", ErrNotFound, file)
	}
	if !strings.HasPrefix(file, owner+"_") {
		return "", fmt.Errorf("%w: %s does not belong to %s", ErrNotFound, file, owner)
	}
	path := filepath.Join(r.root, owner, file)
	if !fileExists(path) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return path, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
