package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MediaRepo - индекс сохранённых вложений по file_unique_id.
// Позволяет не скачивать один и тот же файл повторно после перезапуска.
type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

// Lookup возвращает путь ранее сохранённого файла или "".
func (r *MediaRepo) Lookup(ctx context.Context, uniqueID string, ownerID int64, purpose string) (string, error) {
	var path string
	err := r.db.QueryRowContext(ctx, `
        SELECT path FROM media_files
        WHERE file_unique_id = $1 AND owner_id = $2 AND purpose = $3`, uniqueID, ownerID, purpose).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup media %s: %w", uniqueID, err)
	}
	return path, nil
}

// Remember записывает путь. Повторная запись того же ключа ничего не меняет.
func (r *MediaRepo) Remember(ctx context.Context, uniqueID string, ownerID int64, purpose, path string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO media_files (file_unique_id, owner_id, purpose, path)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (file_unique_id, owner_id, purpose) DO NOTHING`, uniqueID, ownerID, purpose, path)
	if err != nil {
		return fmt.Errorf("remember media %s: %w", uniqueID, err)
	}
	return nil
}
