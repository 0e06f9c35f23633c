package handlers

import (
	"context"
	"strings"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
)

// recordChatMessage сохраняет вложение и пишет запись в журнал переписки.
// Журнал на бэкенде пишется до пересылки: если запись не удалась, собеседник сообщение не получит.
func (bh *BotHandler) recordChatMessage(ctx context.Context, ev Event, patientID int64, role constants.Role) (models.ChatMessage, error) {
	entry := models.ChatMessage{
		PatientID:        patientID,
		SenderTelegramID: ev.ActorID,
		SenderRole:       string(role),
		Kind:             models.MessageKindText,
		Content:          ev.Text,
	}
	if ev.Attachment != nil {
		path, err := bh.Deps.Media.Store(ctx, *ev.Attachment, ev.ActorID, constants.MEDIA_PURPOSE_CHAT)
		if err != nil {
			return entry, err
		}
		entry.Kind = ev.Attachment.Kind
		entry.FilePath = path
	}
	if err := bh.Deps.Gateway.AppendMessage(ctx, entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// forwardChatMessage доставляет запись собеседнику. Ошибка доставки не откатывает переход.
func (bh *BotHandler) forwardChatMessage(ctx context.Context, dest int64, header string, entry models.ChatMessage) {
	if entry.FilePath == "" {
		bh.sendMessage(ctx, dest, header+"\n"+entry.Content)
		return
	}
	caption := strings.TrimSpace(header + "\n" + entry.Content)
	bh.deliverFile(ctx, dest, entry.FilePath, entry.Kind, caption)
}
