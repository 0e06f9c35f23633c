// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"PharmaBot/internal/constants"
)

// SellerProfile - реквизиты аптеки, печатаемые в счёте.
type SellerProfile struct {
	Name    string `yaml:"name"`
	Phone   string `yaml:"phone"`
	Address string `yaml:"address"`
	City    string `yaml:"city"`
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramToken string
	AppEnv        string
	BotUsername   string
	DatabaseURL   string // пусто - сессии только в памяти

	APIBaseURL     string
	APIBotUsername string
	APIBotPassword string
	TokenTTL       time.Duration
	APITimeout     time.Duration

	MediaRoot        string
	HTTPPort         string
	AdminToken       string
	AllowedOrigins   []string
	CallbackThrottle time.Duration
	QueueSize        int

	SellerProfilePath string
	Seller            SellerProfile
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Отсутствие TELEGRAM_APITOKEN или API_BASE_URL - ошибка; прочие значения получают умолчания.
func LoadConfig(log *zap.Logger) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_APITOKEN"),
		AppEnv:            os.Getenv("ENV"),
		BotUsername:       os.Getenv("BOT_USERNAME"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		APIBaseURL:        strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		APIBotUsername:    os.Getenv("API_BOT_USERNAME"),
		APIBotPassword:    os.Getenv("API_BOT_PASSWORD"),
		MediaRoot:         envOr("MEDIA_ROOT", "./media_storage"),
		HTTPPort:          envOr("PORT", "8080"),
		AdminToken:        os.Getenv("ADMIN_API_TOKEN"),
		SellerProfilePath: envOr("SELLER_PROFILE", "seller.yaml"),
	}

	cfg.TokenTTL = time.Duration(intEnv(log, "ACCESS_TOKEN_EXPIRE_MINUTES", int(constants.DEFAULT_TOKEN_TTL/time.Minute))) * time.Minute
	cfg.APITimeout = time.Duration(intEnv(log, "API_TIMEOUT_SECONDS", int(constants.DEFAULT_API_TIMEOUT/time.Second))) * time.Second
	cfg.CallbackThrottle = time.Duration(intEnv(log, "CALLBACK_THROTTLE_MS", int(constants.DEFAULT_CALLBACK_GAP/time.Millisecond))) * time.Millisecond
	cfg.QueueSize = intEnv(log, "EVENT_QUEUE_SIZE", 64)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_APITOKEN не установлен")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL не установлен")
	}
	if cfg.APIBotUsername == "" || cfg.APIBotPassword == "" {
		log.Warn("API_BOT_USERNAME/API_BOT_PASSWORD не заданы, вход в API бэкенда будет отклонён")
	}
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL не установлен, сессии хранятся только в памяти")
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN не установлен, раздача медиафайлов через HTTP отключена")
	}

	seller, err := LoadSellerProfile(cfg.SellerProfilePath)
	if err != nil {
		log.Warn("Профиль продавца не загружен, в счетах будут пустые реквизиты",
			zap.String("path", cfg.SellerProfilePath), zap.Error(err))
	} else {
		cfg.Seller = seller
	}

	log.Info("Конфигурация загружена.", zap.String("env", cfg.AppEnv), zap.String("api", cfg.APIBaseURL))
	return cfg, nil
}

// LoadSellerProfile читает YAML с реквизитами аптеки.
func LoadSellerProfile(path string) (SellerProfile, error) {
	var p SellerProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("чтение профиля продавца: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("разбор профиля продавца: %w", err)
	}
	if p.Name == "" {
		return p, fmt.Errorf("в профиле продавца не указано name")
	}
	return p, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(log *zap.Logger, key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Warn("Некорректное значение, используется значение по умолчанию",
			zap.String("key", key), zap.String("value", raw), zap.Int("default", def))
		return def
	}
	return v
}
