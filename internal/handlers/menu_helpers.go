package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

// --- Вспомогательные функции для отправки сообщений ---
// Все отправки идут через outbox текущего перехода. Вне перехода (нет outbox в ctx)
// сообщение отправляется сразу.

func (bh *BotHandler) enqueue(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if box := outboxFrom(ctx); box != nil {
		box.add(name, fn)
		return
	}
	if err := fn(ctx); err != nil {
		bh.log.Warnf("[SEND] Ошибка отправки %s: %v", name, err)
	}
}

// sendMessage - простой текст без клавиатуры.
func (bh *BotHandler) sendMessage(ctx context.Context, chatID int64, text string) {
	bh.sendMessageWithKeyboard(ctx, chatID, text, nil)
}

func (bh *BotHandler) sendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	bh.enqueue(ctx, "text", func(ctx context.Context) error {
		_, err := bh.Deps.Transport.SendText(ctx, chatID, text, kb)
		return err
	})
}

// sendOrEditMessageHelper редактирует сообщение с кнопками, если оно известно, иначе шлёт новое.
func (bh *BotHandler) sendOrEditMessageHelper(ctx context.Context, ev Event, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if !ev.IsCallback() || ev.MessageID == 0 {
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, kb)
		return
	}
	chatID, messageID := ev.ChatID, ev.MessageID
	bh.enqueue(ctx, "edit", func(ctx context.Context) error {
		if err := bh.Deps.Transport.EditText(ctx, chatID, messageID, text, kb); err != nil {
			// Сообщение могло быть удалено или слишком старое - отправляем новое.
			bh.log.Debugf("[SEND] Не удалось отредактировать сообщение %d: %v", messageID, err)
			_, err = bh.Deps.Transport.SendText(ctx, chatID, text, kb)
			return err
		}
		return nil
	})
}

func (bh *BotHandler) sendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) {
	bh.enqueue(ctx, "document", func(ctx context.Context) error {
		_, err := bh.Deps.Transport.SendDocument(ctx, chatID, name, data, caption)
		return err
	})
}

// deliverFile пересылает сохранённый файл (фото, голос, документ).
func (bh *BotHandler) deliverFile(ctx context.Context, chatID int64, path, kind, caption string) {
	bh.enqueue(ctx, "media", func(ctx context.Context) error {
		return bh.Deps.Media.Deliver(ctx, path, chatID, kind, caption)
	})
}

func (bh *BotHandler) deliverAlbum(ctx context.Context, chatID int64, paths []string) {
	if len(paths) == 0 {
		return
	}
	bh.enqueue(ctx, "album", func(ctx context.Context) error {
		sent, err := bh.Deps.Media.DeliverAlbum(ctx, paths, chatID)
		if err != nil {
			return fmt.Errorf("отправлено %d из %d: %w", sent, len(paths), err)
		}
		return nil
	})
}

// sendErrorMessageHelper отправляет текст ошибки немедленно, мимо outbox.
func (bh *BotHandler) sendErrorMessageHelper(ctx context.Context, chatID int64, text string) {
	if _, err := bh.Deps.Transport.SendText(ctx, chatID, text, nil); err != nil {
		bh.log.Errorf("[SEND] Не удалось отправить сообщение об ошибке в чат %d: %v", chatID, err)
	}
}

// showMenu - главное меню роли после отмены или завершения.
func (bh *BotHandler) showMenu(ctx context.Context, ev Event, s session.Session, prefix string) {
	text := prefix
	if text != "" {
		text += "\n\n"
	}
	switch s.Role {
	case constants.ROLE_PATIENT:
		text += "برای ثبت پرونده یا پیگیری درخواست خود از دکمه زیر استفاده کنید."
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, patientStartKeyboard())
	case constants.ROLE_CONSULTANT:
		text += "برای مشاهده بیماران در انتظار مشاوره از دکمه زیر استفاده کنید."
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, consultantMenuKeyboard())
	case constants.ROLE_CASHIER:
		text += "برای بررسی پرداخت‌ها از دکمه زیر استفاده کنید."
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, cashierStartKeyboard())
	default:
		text += fmt.Sprintf("نقش شما: %s", utils.GetRoleDisplayName(s.Role))
		bh.sendMessage(ctx, ev.ChatID, text)
	}
}
