package telegram_api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"
)

// BotClient - обёртка над Telegram Bot API. Реализует Transport.
type BotClient struct {
	api   *tgbotapi.BotAPI
	log   *zap.Logger
	http  *http.Client
	Debug bool
}

// InitBot авторизует бота и отключает вебхук (нужно для getUpdates).
func InitBot(token string, debug bool, log *zap.Logger) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug
	log = log.Named("telegram")
	log.Info("Авторизован как аккаунт", zap.String("username", api.Self.UserName))

	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		// Вебхука могло и не быть.
		log.Warn("Предупреждение при отключении вебхука", zap.Error(err))
	}

	return &BotClient{
		api:   api,
		log:   log,
		http:  &http.Client{Timeout: 60 * time.Second},
		Debug: debug,
	}, nil
}

// GetUpdatesChan возвращает канал обновлений long polling.
func (bc *BotClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if bc.Debug {
		bc.log.Debug("Запрос канала обновлений", zap.Int("timeout", config.Timeout))
	}
	return bc.api.GetUpdatesChan(config)
}

// StopReceivingUpdates останавливает long polling.
func (bc *BotClient) StopReceivingUpdates() {
	bc.api.StopReceivingUpdates()
}

// Username - имя бота, как его вернул getMe.
func (bc *BotClient) Username() string {
	return bc.api.Self.UserName
}

func (bc *BotClient) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := ctx.Err(); err != nil {
		return tgbotapi.Message{}, err
	}
	if bc.Debug {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			bc.log.Debug("Отправка сообщения", zap.Int64("chat_id", m.ChatID), zap.String("text", truncate(m.Text, 50)))
		case tgbotapi.PhotoConfig:
			bc.log.Debug("Отправка фото", zap.Int64("chat_id", m.ChatID), zap.String("caption", truncate(m.Caption, 50)))
		default:
			bc.log.Debug("Отправка", zap.String("type", fmt.Sprintf("%T", c)))
		}
	}
	return bc.api.Send(c)
}

func (bc *BotClient) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bc.api.Request(c)
}

// DownloadFile скачивает файл по file_id. Возвращает содержимое и путь файла на серверах Telegram.
func (bc *BotClient) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	fileURL, err := bc.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("getFile %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := bc.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: status %d", fileID, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", fileID, err)
	}
	return data, fileURL, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
