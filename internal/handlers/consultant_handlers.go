package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/formatters"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
)

const (
	msgNoWaitingPatients = "✅ در حال حاضر بیماری در انتظار مشاوره نیست."
	msgChooseDate        = "📅 تاریخ‌های دارای بیمار در انتظار مشاوره:"
	msgNoPatientsOnDate  = "برای این تاریخ بیماری در انتظار مشاوره یافت نشد."
	msgChatMode          = "💬 حالت گفتگو فعال است. پیام‌ها، عکس‌ها و پیام‌های صوتی شما برای بیمار ارسال می‌شود.\n" +
		"برای صدور فاکتور دکمه «صدور فاکتور» را بزنید."
	msgChatNoPatient = "ابتدا یک بیمار را انتخاب کنید."
)

// consultantIdle показывает даты с неназначенными пациентами.
func (bh *BotHandler) consultantIdle(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if ev.Is(constants.CB_CONSULTANT_DATE) {
		return bh.consultantListingDates(ctx, ev, s)
	}
	return bh.showConsultantDates(ctx, ev, s)
}

func (bh *BotHandler) showConsultantDates(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	dates, err := bh.Deps.Gateway.UnassignedDates(ctx)
	if err != nil {
		return s, err
	}
	if len(dates) == 0 {
		bh.sendOrEditMessageHelper(ctx, ev, msgNoWaitingPatients, consultantMenuKeyboard())
		return s.WithStage(constants.STATE_IDLE), nil
	}
	bh.sendOrEditMessageHelper(ctx, ev, msgChooseDate, consultantDatesKeyboard(dates))
	return s.WithStage(constants.STATE_CONSULTANT_DATES), nil
}

func (bh *BotHandler) consultantListingDates(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if !ev.Is(constants.CB_CONSULTANT_DATE) || ev.Action.ID == "" {
		return bh.showConsultantDates(ctx, ev, s)
	}
	date := ev.Action.ID
	patients, err := bh.Deps.Gateway.PatientsByDate(ctx, date)
	if err != nil {
		return s, err
	}
	c := s.ConsultantData()
	c.SelectedDate = date
	if len(patients) == 0 {
		bh.sendOrEditMessageHelper(ctx, ev, msgNoPatientsOnDate, consultantPatientsKeyboard(nil))
		return s.WithStage(constants.STATE_CONSULTANT_PATIENTS), nil
	}
	bh.sendOrEditMessageHelper(ctx, ev, fmt.Sprintf("👥 بیماران تاریخ %s:", date), consultantPatientsKeyboard(patients))
	return s.WithStage(constants.STATE_CONSULTANT_PATIENTS), nil
}

func (bh *BotHandler) consultantListingPatients(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	switch {
	case ev.Is(constants.CB_CONSULTANT_PATIENT):
		patientID, err := ev.Action.Int64()
		if err != nil {
			bh.log.Warnf("[CONSULTANT] %v", err)
			return bh.showConsultantDates(ctx, ev, s)
		}
		return bh.openPatient(ctx, ev, s, patientID)
	case ev.Is(constants.CB_CONSULTANT_DATE):
		return bh.consultantListingDates(ctx, ev, s)
	default:
		return bh.showConsultantDates(ctx, ev, s)
	}
}

// openPatient назначает консультанта и открывает чат: карточка, фото, последние сообщения.
func (bh *BotHandler) openPatient(ctx context.Context, ev Event, s session.Session, patientID int64) (session.Session, error) {
	patient, err := bh.Deps.Gateway.GetPatient(ctx, patientID)
	if err != nil {
		return s, err
	}
	c := s.ConsultantData()
	consultantID := c.UserID
	if _, err := bh.Deps.Gateway.UpdatePatient(ctx, patientID, models.PatientUpdate{ConsultantID: &consultantID}); err != nil {
		return s, err
	}
	transcript, err := bh.Deps.Gateway.Transcript(ctx, patientID)
	if err != nil {
		// Журнал не обязателен для открытия чата.
		bh.log.Warnf("[CONSULTANT] Не удалось получить журнал пациента %d: %v", patientID, err)
		transcript = nil
	}
	bh.log.Infof("[CONSULTANT] Консультант %d (user %d) взял пациента %d", ev.ActorID, consultantID, patientID)

	if c.PatientID != patientID {
		c.Cart = cart.Cart{}
		c.SubmissionKey = ""
		c.CategoryID = 0
		c.CategoryDrugs = nil
	}
	c.PatientID = patient.PatientID
	c.PatientTelegramID = patient.TelegramID()
	c.PatientName = patient.FullName
	c.PendingOrderID = 0

	bh.sendOrEditMessageHelper(ctx, ev, formatters.FormatPatientCard(*patient), nil)
	bh.deliverAlbum(ctx, ev.ChatID, patient.PhotoPaths)
	bh.sendMessage(ctx, ev.ChatID, formatters.FormatTranscript(transcript, constants.TRANSCRIPT_PREVIEW_LIMIT))
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgChatMode, consultantChatKeyboard())
	return s.WithStage(constants.STATE_CONSULTANT_CHAT), nil
}

// consultantChat: сообщения консультанта идут в журнал, затем пациенту.
func (bh *BotHandler) consultantChat(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	switch {
	case ev.Is(constants.CB_CONSULTANT_INVOICE_REQ):
		return bh.showCategories(ctx, ev, s)
	case ev.Is(constants.CB_CONSULTANT_BACK_DATES):
		return bh.showConsultantDates(ctx, ev, s)
	case ev.IsCallback():
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgChatMode, consultantChatKeyboard())
		return s, nil
	}
	if c.PatientID == 0 {
		bh.sendMessage(ctx, ev.ChatID, msgChatNoPatient)
		return bh.showConsultantDates(ctx, ev, s)
	}

	entry, err := bh.recordChatMessage(ctx, ev, c.PatientID, constants.ROLE_CONSULTANT)
	if err != nil {
		return s, err
	}
	if c.PatientTelegramID != 0 {
		bh.forwardChatMessage(ctx, c.PatientTelegramID, "🩺 پیام از مشاور:", entry)
	} else {
		bh.log.Warnf("[CONSULTANT] У пациента %d нет telegram_id, сообщение только в журнале", c.PatientID)
	}
	return s, nil
}
