package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"PharmaBot/internal/api"
	"PharmaBot/internal/config"
	"PharmaBot/internal/db"
	"PharmaBot/internal/gateway"
	"PharmaBot/internal/handlers"
	"PharmaBot/internal/logger"
	"PharmaBot/internal/media"
	"PharmaBot/internal/metrics"
	"PharmaBot/internal/session"
	"PharmaBot/internal/telegram_api"
	"PharmaBot/internal/workerpool"
)

const msgBusy = "⏳ درخواست‌های قبلی شما در حال پردازش است. لطفاً چند لحظه صبر کنید."

func main() {
	// --- Блок инициализации ---
	envErr := godotenv.Load()

	zlog, err := logger.New(os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось создать логгер: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck
	if envErr != nil {
		zlog.Warn("Не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig(zlog)
	if err != nil {
		zlog.Fatal("Критическая ошибка: не удалось загрузить конфигурацию", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Локальная база необязательна: без неё сессии живут только в памяти.
	var (
		sessionBackend session.Backend
		mediaIndex     media.Index
		dbPinger       api.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.InitDB(cfg.DatabaseURL, zlog)
		if err != nil {
			zlog.Fatal("Критическая ошибка: не удалось инициализировать базу данных", zap.Error(err))
		}
		defer db.CloseDB(zlog)
		repo := db.NewSessionRepo(conn, zlog)
		sessionBackend = repo
		mediaIndex = db.NewMediaRepo(conn)
		dbPinger = repo
	}

	gw := gateway.New(gateway.Config{
		BaseURL:  cfg.APIBaseURL,
		Username: cfg.APIBotUsername,
		Password: cfg.APIBotPassword,
		TokenTTL: cfg.TokenTTL,
		Timeout:  cfg.APITimeout,
		Breaker:  gateway.DefaultBreakerConfig("backend"),
	}, zlog, m)

	bot, err := telegram_api.InitBot(cfg.TelegramToken, cfg.AppEnv == "dev", zlog)
	if err != nil {
		zlog.Fatal("Критическая ошибка: не удалось инициализировать Telegram бота", zap.Error(err))
	}

	sessions := session.NewManager(sessionBackend, zlog, m)
	relay := media.NewRelay(cfg.MediaRoot, bot, mediaIndex, zlog, m)

	botHandler := handlers.NewBotHandler(handlers.HandlerDependencies{
		Config:    cfg,
		Transport: bot,
		Sessions:  sessions,
		Gateway:   gw,
		Media:     relay,
		Metrics:   m,
		Logger:    zlog,
	})

	pool := workerpool.New(workerpool.Config{MaxPendingPerKey: cfg.QueueSize}, zlog)

	// --- Служебный HTTP: пробы, метрики, медиафайлы ---
	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.Dependencies{
			Gateway:        gw,
			DB:             dbPinger,
			Media:          relay,
			Metrics:        m,
			AdminToken:     cfg.AdminToken,
			AllowedOrigins: cfg.AllowedOrigins,
			Log:            zlog,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("Запуск HTTP-сервера", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("КРИТИЧЕСКАЯ ОШИБКА: не удалось запустить HTTP-сервер", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запуск самого бота
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	zlog.Info("Бот и HTTP-сервер запущены и готовы к работе", zap.String("bot", bot.Username()))

	runUpdates(ctx, updates, pool, botHandler, bot, zlog)

	// --- Остановка ---
	zlog.Info("Получен сигнал остановки")
	bot.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pool.Close(shutdownCtx); err != nil {
		zlog.Warn("Не все события обработаны до остановки", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Ошибка остановки HTTP-сервера", zap.Error(err))
	}
	zlog.Info("Бот остановлен")
}

// runUpdates раскладывает обновления по очередям акторов до отмены ctx.
func runUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel, pool *workerpool.Pool,
	bh *handlers.BotHandler, transport telegram_api.Transport, zlog *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			ev, ok := handlers.EventFromUpdate(update)
			if !ok {
				continue
			}
			zlog.Debug("Входящее событие",
				zap.Int64("actor", ev.ActorID),
				zap.String("kind", ev.Kind()),
				zap.String("command", ev.Command))

			err := pool.Submit(ev.ActorID, func(taskCtx context.Context) {
				bh.HandleEvent(taskCtx, ev)
			})
			switch {
			case errors.Is(err, workerpool.ErrQueueFull):
				zlog.Warn("Очередь актора переполнена, событие отброшено", zap.Int64("actor", ev.ActorID))
				if ev.IsCallback() {
					_ = transport.AnswerCallback(ctx, ev.CallbackID, msgBusy)
				} else if _, err := transport.SendText(ctx, ev.ChatID, msgBusy, nil); err != nil {
					zlog.Debug("Не удалось уведомить актора", zap.Error(err))
				}
			case err != nil:
				zlog.Warn("Событие не принято пулом", zap.Int64("actor", ev.ActorID), zap.Error(err))
			}
		}
	}
}
