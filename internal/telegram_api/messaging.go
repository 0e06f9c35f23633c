package telegram_api

import (
	"context"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"
)

// Transport - исходящие примитивы чата, которыми пользуются обработчики и Media Relay.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	SendPhoto(ctx context.Context, chatID int64, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error)
	SendMediaGroup(ctx context.Context, chatID int64, paths []string) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

var _ Transport = (*BotClient)(nil)

func (bc *BotClient) SendText(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	sent, err := bc.send(ctx, msg)
	if err != nil {
		bc.log.Error("ошибка отправки сообщения", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0, err
	}
	return sent.MessageID, nil
}

// SendPhoto отправляет локальный файл как фото.
func (bc *BotClient) SendPhoto(ctx context.Context, chatID int64, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	if kb != nil {
		photo.ReplyMarkup = kb
	}
	sent, err := bc.send(ctx, photo)
	if err != nil {
		bc.log.Error("ошибка отправки фото", zap.Int64("chat_id", chatID), zap.String("path", path), zap.Error(err))
		return 0, err
	}
	return sent.MessageID, nil
}

func (bc *BotClient) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (int, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	sent, err := bc.send(ctx, doc)
	if err != nil {
		bc.log.Error("ошибка отправки документа", zap.Int64("chat_id", chatID), zap.String("name", name), zap.Error(err))
		return 0, err
	}
	return sent.MessageID, nil
}

// mediaGroupLimit - максимум фото в одном альбоме Telegram.
const mediaGroupLimit = 10

// mediaGroups режет пути на альбомы по mediaGroupLimit без подписей.
// Альбом из одного фото Telegram не принимает, такой хвост уходит обычным фото.
func mediaGroups(chatID int64, paths []string) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable
	for start := 0; start < len(paths); start += mediaGroupLimit {
		end := min(start+mediaGroupLimit, len(paths))
		chunk := paths[start:end]
		if len(chunk) == 1 {
			out = append(out, tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(chunk[0])))
			continue
		}
		media := make([]tgbotapi.InputMedia, 0, len(chunk))
		for _, p := range chunk {
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(p))
			media = append(media, &photo)
		}
		out = append(out, tgbotapi.NewMediaGroup(chatID, media))
	}
	return out
}

// SendMediaGroup отправляет фото альбомами в исходном порядке.
func (bc *BotClient) SendMediaGroup(ctx context.Context, chatID int64, paths []string) error {
	sent := 0
	for _, c := range mediaGroups(chatID, paths) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch cfg := c.(type) {
		case tgbotapi.MediaGroupConfig:
			_, err = bc.api.SendMediaGroup(cfg)
			if err == nil {
				sent += len(cfg.Media)
			}
		default:
			_, err = bc.send(ctx, cfg)
			if err == nil {
				sent++
			}
		}
		if err != nil {
			bc.log.Warn("альбом отправлен не полностью",
				zap.Int64("chat_id", chatID), zap.Int("sent", sent), zap.Int("total", len(paths)), zap.Error(err))
			return err
		}
	}
	return nil
}

// EditText редактирует сообщение. "message is not modified" ошибкой не считается.
func (bc *BotClient) EditText(ctx context.Context, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if kb != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *kb)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	_, err := bc.request(ctx, edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// DeleteMessage удаляет сообщение. Уже удалённое сообщение ошибкой не считается.
func (bc *BotClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if messageID == 0 {
		return nil
	}
	_, err := bc.request(ctx, tgbotapi.NewDeleteMessage(chatID, messageID))
	if err != nil {
		if strings.Contains(err.Error(), "message to delete not found") ||
			strings.Contains(err.Error(), "message can't be deleted") {
			return nil
		}
		bc.log.Warn("DeleteMessage: не удалось удалить сообщение", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
		return err
	}
	return nil
}

func (bc *BotClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := bc.request(ctx, tgbotapi.NewCallback(callbackID, text))
	return err
}
