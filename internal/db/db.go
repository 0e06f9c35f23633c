// Файл: internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DB - общее подключение к локальной базе бота (сессии и индекс медиафайлов).
// Система учёта живёт на бэкенде; здесь только служебные данные бота.
var DB *sql.DB

// InitDB открывает соединение и создаёт таблицы, если их нет.
func InitDB(dbURL string, log *zap.Logger) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL не установлена")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %w", err)
	}
	query := parsedURL.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	parsedURL.RawQuery = query.Encode()

	conn, err := sql.Open("postgres", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}
	log.Info("Успешное подключение к базе данных.")

	if err := migrate(conn, log); err != nil {
		conn.Close()
		return nil, err
	}

	DB = conn
	log.Info("Инициализация базы данных успешно завершена.")
	return conn, nil
}

// migrate создаёт таблицы в транзакции, затем индексы по одному.
func migrate(conn *sql.DB, log *zap.Logger) (err error) {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции для создания таблиц: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warn("Откат транзакции из-за ошибки", zap.Error(err))
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS bot_sessions (
            actor_id BIGINT PRIMARY KEY,
            role TEXT NOT NULL DEFAULT '',
            stage TEXT NOT NULL DEFAULT 'idle',
            payload JSONB NOT NULL DEFAULT '{}'::jsonb,
            version BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS media_files (
            file_unique_id TEXT NOT NULL,
            owner_id BIGINT NOT NULL,
            purpose TEXT NOT NULL,
            path TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (file_unique_id, owner_id, purpose)
        );
    `
	if _, err = tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции создания таблиц: %w", err)
	}
	log.Info("Создание таблиц (если не существуют) завершено.")

	createIndexesSQL := `
        CREATE INDEX IF NOT EXISTS idx_bot_sessions_role_stage ON bot_sessions(role, stage);
        CREATE INDEX IF NOT EXISTS idx_bot_sessions_updated_at ON bot_sessions(updated_at);
        CREATE INDEX IF NOT EXISTS idx_media_files_owner ON media_files(owner_id);
    `
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, errIdx := conn.Exec(stmt); errIdx != nil {
			log.Warn("Предупреждение: ошибка при создании индекса", zap.String("stmt", stmt), zap.Error(errIdx))
		}
	}
	return nil
}

// CloseDB закрывает соединение с базой данных.
func CloseDB(log *zap.Logger) {
	if DB != nil {
		DB.Close()
		log.Info("Соединение с базой данных закрыто.")
	}
}
