package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

const (
	promptReceipt      = "🧾 لطفاً تصویر رسید پرداخت خود را ارسال کنید."
	promptReceiptOnly  = "در این مرحله فقط تصویر رسید پرداخت پذیرفته می‌شود. لطفاً عکس رسید را ارسال کنید."
	promptAmount       = "💰 لطفاً مبلغ پرداختی را به ریال وارد کنید (مثال: 250,000):"
	promptTrackingCode = "🔢 لطفاً کد پیگیری پرداخت را وارد کنید:"
)

// patientPaymentReceipt принимает только фото.
func (bh *BotHandler) patientPaymentReceipt(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if ev.Attachment == nil || ev.Attachment.Kind != models.MessageKindPhoto {
		return bh.reprompt(ctx, ev, s, promptReceiptOnly)
	}
	path, err := bh.Deps.Media.Store(ctx, *ev.Attachment, ev.ActorID, constants.MEDIA_PURPOSE_RECEIPT)
	if err != nil {
		return s, err
	}
	p := s.PatientData()
	p.Payment.ReceiptPath = path
	if p.Payment.Key == "" {
		p.Payment.Key = bh.Deps.NewKey()
	}
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_PAYMENT_AMOUNT, promptAmount)
}

func (bh *BotHandler) patientPaymentAmount(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	amount, err := utils.ValidateAmount(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Payment.Amount = amount
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_PAYMENT_TRACKING, promptTrackingCode)
}

// patientPaymentTracking завершает платёж: POST /payments/ и статус payment_submitted.
// Ключ идемпотентности живёт в черновике, поэтому повтор после сбоя не создаст второй платёж.
// Если платёж создан, а статус не обновился, id платежа фиксируется и предлагается повтор только статуса.
func (bh *BotHandler) patientPaymentTracking(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	code, err := utils.ValidateTrackingCode(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	p := s.PatientData()
	p.Payment.TrackingCode = code
	if p.Payment.Key == "" {
		p.Payment.Key = bh.Deps.NewKey()
	}
	if err := bh.rememberApprovedOrder(ctx, p); err != nil {
		return s, err
	}

	payment, err := bh.Deps.Gateway.CreatePayment(ctx, models.PaymentCreate{
		OrderID:      p.OrderID,
		PatientID:    p.PatientID,
		Amount:       p.Payment.Amount,
		TrackingCode: p.Payment.TrackingCode,
		ReceiptPath:  p.Payment.ReceiptPath,
	}, p.Payment.Key)
	if err != nil {
		return s, err
	}
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, p.PatientID, constants.PATIENT_STATUS_PAYMENT_SUBMITTED); err != nil {
		bh.log.Warnf("[PAYMENT] Платёж %d создан, но статус пациента %d не обновлён: %v", payment.PaymentID, p.PatientID, err)
		p.Payment.PaymentID = payment.PaymentID
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ پرداخت #%d ثبت شد اما وضعیت شما به‌روزرسانی نشد. لطفاً دوباره تلاش کنید.", payment.PaymentID),
			paymentRetryKeyboard(payment.PaymentID))
		return s.WithStage(constants.STATE_PATIENT_PAYMENT_RETRY), nil
	}
	bh.log.Infof("[PAYMENT] Пациент %d отправил платёж %d на сумму %d", p.PatientID, payment.PaymentID, p.Payment.Amount)
	return bh.finishPayment(ctx, ev, s)
}

// patientPaymentStatusRetry повторяет только смену статуса; платёж уже создан.
func (bh *BotHandler) patientPaymentStatusRetry(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	p := s.PatientData()
	if !ev.Is(constants.CB_PAYMENT_RETRY_STATUS) {
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ وضعیت پرداخت #%d هنوز به‌روزرسانی نشده است.", p.Payment.PaymentID),
			paymentRetryKeyboard(p.Payment.PaymentID))
		return s, nil
	}
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, p.PatientID, constants.PATIENT_STATUS_PAYMENT_SUBMITTED); err != nil {
		return s, err
	}
	bh.log.Infof("[PAYMENT] Статус пациента %d обновлён повторно для платежа %d", p.PatientID, p.Payment.PaymentID)
	return bh.finishPayment(ctx, ev, s)
}

func (bh *BotHandler) finishPayment(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	s.PatientData().Payment = session.PaymentDraft{}
	bh.sendMessage(ctx, ev.ChatID, msgPaymentSubmitted)
	return s.WithStage(constants.STATE_PATIENT_PAYMENT_SENT), nil
}

func (bh *BotHandler) patientPaymentSubmitted(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	_, s, done, err := bh.refreshPatient(ctx, ev, s, constants.PATIENT_STATUS_PAYMENT_SUBMITTED)
	if done || err != nil {
		return s, err
	}
	bh.sendMessage(ctx, ev.ChatID, msgPaymentSubmitted)
	return s, nil
}
