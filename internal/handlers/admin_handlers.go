package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

// adminIdle: приветствие на /start, на остальной текст - эхо.
func (bh *BotHandler) adminIdle(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if ev.Command == "start" || ev.IsCallback() || ev.Text == "" {
		bh.sendMessage(ctx, ev.ChatID, fmt.Sprintf(
			"سلام %s!\nشما به عنوان «%s» وارد شده‌اید.\nبه پنل مدیریت ربات خوش آمدید.",
			ev.ActorName, utils.GetRoleDisplayName(s.Role)))
		return s, nil
	}
	bh.sendMessage(ctx, ev.ChatID, "ادمین گرامی، پیام شما دریافت شد:\n"+ev.Text)
	return s, nil
}
