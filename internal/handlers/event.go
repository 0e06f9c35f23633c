package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/media"
	"PharmaBot/internal/models"
)

// Action - разобранные данные кнопки: "<verb>" или "<verb>_<id>".
type Action struct {
	Verb string
	ID   string
}

// Int64 возвращает ID как число (id пациента, препарата, платежа).
func (a Action) Int64() (int64, error) {
	id, err := strconv.ParseInt(a.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный id в действии %s: %q", a.Verb, a.ID)
	}
	return id, nil
}

// ParseAction ищет самый длинный известный глагол, являющийся префиксом data.
// "invoice_edit_confirm" даёт {invoice_edit_confirm, ""}, а не {invoice_edit, "confirm"}.
// Неизвестные данные возвращаются целиком как глагол.
func ParseAction(data string) Action {
	best := ""
	for _, verb := range constants.CallbackVerbs {
		if len(verb) <= len(best) {
			continue
		}
		if data == verb || strings.HasPrefix(data, verb+"_") {
			best = verb
		}
	}
	if best == "" {
		return Action{Verb: data}
	}
	return Action{Verb: best, ID: strings.TrimPrefix(strings.TrimPrefix(data, best), "_")}
}

// Event - входящее обновление, приведённое к одному виду для машины состояний.
type Event struct {
	ActorID    int64
	ChatID     int64
	MessageID  int
	ActorName  string
	CallbackID string
	Text       string
	Command    string
	Attachment *media.Attachment
	Action     *Action
}

// IsCallback - событие пришло от нажатия кнопки.
func (e Event) IsCallback() bool { return e.CallbackID != "" }

// Is проверяет глагол действия.
func (e Event) Is(verb string) bool { return e.Action != nil && e.Action.Verb == verb }

// Kind - вид события для метрик и логов.
func (e Event) Kind() string {
	switch {
	case e.IsCallback():
		return "callback"
	case e.Command != "":
		return "command"
	case e.Attachment != nil:
		return e.Attachment.Kind
	default:
		return models.MessageKindText
	}
}

// EventFromUpdate преобразует обновление Telegram. false - обновление не интересно боту.
func EventFromUpdate(update tgbotapi.Update) (Event, bool) {
	if query := update.CallbackQuery; query != nil {
		if query.From == nil {
			return Event{}, false
		}
		ev := Event{
			ActorID:    query.From.ID,
			ChatID:     query.From.ID,
			ActorName:  displayName(query.From),
			CallbackID: query.ID,
		}
		if query.Message != nil {
			ev.ChatID = query.Message.Chat.ID
			ev.MessageID = query.Message.MessageID
		}
		action := ParseAction(query.Data)
		ev.Action = &action
		return ev, true
	}

	message := update.Message
	if message == nil {
		return Event{}, false
	}
	ev := Event{
		ActorID:   message.Chat.ID,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      strings.TrimSpace(message.Text),
	}
	if message.From != nil {
		ev.ActorID = message.From.ID
		ev.ActorName = displayName(message.From)
	}
	if message.IsCommand() {
		ev.Command = message.Command()
		ev.Text = strings.TrimSpace(message.CommandArguments())
	}

	switch {
	case len(message.Photo) > 0:
		// Последний размер - самый большой.
		photo := message.Photo[len(message.Photo)-1]
		ev.Attachment = &media.Attachment{Kind: models.MessageKindPhoto, FileID: photo.FileID, FileUniqueID: photo.FileUniqueID}
		ev.Text = strings.TrimSpace(message.Caption)
	case message.Voice != nil:
		ev.Attachment = &media.Attachment{
			Kind:         models.MessageKindVoice,
			FileID:       message.Voice.FileID,
			FileUniqueID: message.Voice.FileUniqueID,
			MimeType:     message.Voice.MimeType,
		}
	case message.Document != nil:
		ev.Attachment = &media.Attachment{
			Kind:         models.MessageKindFile,
			FileID:       message.Document.FileID,
			FileUniqueID: message.Document.FileUniqueID,
			MimeType:     message.Document.MimeType,
			FileName:     message.Document.FileName,
		}
		ev.Text = strings.TrimSpace(message.Caption)
	}

	if ev.Text == "" && ev.Command == "" && ev.Attachment == nil {
		return Event{}, false
	}
	return ev, true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
