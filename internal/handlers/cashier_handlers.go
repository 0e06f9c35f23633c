package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/formatters"
	"PharmaBot/internal/invoice"
	"PharmaBot/internal/models"
	"PharmaBot/internal/reports"
	"PharmaBot/internal/session"
)

const (
	msgCashierWelcome     = "💳 پنل صندوق‌دار\nبرای مشاهده پرداخت‌های در انتظار بررسی دکمه زیر را بزنید."
	msgNoPendingPayments  = "✅ در حال حاضر هیچ پرداخت جدیدی برای بررسی وجود ندارد."
	msgChoosePaymentDate  = "📅 تاریخ‌های دارای پرداخت در انتظار بررسی:"
	msgReceiptMissing     = "⚠️ این پرداخت فاقد تصویر رسید است!"
	msgRejectionPrompt    = "✍️ لطفاً دلیل رد پرداخت را بنویسید. این متن برای بیمار ارسال می‌شود."
	msgPaymentNotSelected = "ابتدا یک پرداخت را از لیست انتخاب کنید."
)

func (bh *BotHandler) cashierIdle(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	switch {
	case ev.Is(constants.CB_CASHIER_START), ev.Is(constants.CB_CASHIER_BACK_DATES):
		return bh.showPaymentDates(ctx, ev, s)
	case ev.Is(constants.CB_CASHIER_DATE):
		return bh.cashierListingDates(ctx, ev, s)
	default:
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgCashierWelcome, cashierStartKeyboard())
		return s, nil
	}
}

func (bh *BotHandler) showPaymentDates(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	dates, err := bh.Deps.Gateway.PendingPaymentDates(ctx)
	if err != nil {
		return s, err
	}
	if len(dates) == 0 {
		bh.sendOrEditMessageHelper(ctx, ev, msgNoPendingPayments, cashierStartKeyboard())
		return s.WithStage(constants.STATE_IDLE), nil
	}
	bh.sendOrEditMessageHelper(ctx, ev, msgChoosePaymentDate, cashierDatesKeyboard(dates))
	return s.WithStage(constants.STATE_CASHIER_DATES), nil
}

func (bh *BotHandler) cashierListingDates(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if ev.Is(constants.CB_CASHIER_DATE) && ev.Action.ID != "" {
		s.CashierData().SelectedDate = ev.Action.ID
		return bh.showPayments(ctx, ev, s)
	}
	return bh.showPaymentDates(ctx, ev, s)
}

// showPayments - платежи выбранной даты.
func (bh *BotHandler) showPayments(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.CashierData()
	if c.SelectedDate == "" {
		return bh.showPaymentDates(ctx, ev, s)
	}
	payments, err := bh.Deps.Gateway.PendingPayments(ctx, c.SelectedDate)
	if err != nil {
		return s, err
	}
	c.CurrentPayment = nil
	c.RejectPaymentID = 0
	if len(payments) == 0 {
		bh.sendOrEditMessageHelper(ctx, ev, fmt.Sprintf("برای تاریخ %s پرداخت در انتظار بررسی یافت نشد.", c.SelectedDate), cashierStartKeyboard())
		return s.WithStage(constants.STATE_IDLE), nil
	}
	bh.sendOrEditMessageHelper(ctx, ev, fmt.Sprintf("💳 پرداخت‌های تاریخ %s (%d مورد):", c.SelectedDate, len(payments)),
		cashierPaymentsKeyboard(c.SelectedDate, payments))
	return s.WithStage(constants.STATE_CASHIER_PAYMENTS), nil
}

func (bh *BotHandler) cashierListingPayments(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	switch {
	case ev.Is(constants.CB_CASHIER_PAYMENT):
		paymentID, err := ev.Action.Int64()
		if err != nil {
			bh.log.Warnf("[CASHIER] %v", err)
			return bh.showPayments(ctx, ev, s)
		}
		return bh.showPayment(ctx, ev, s, paymentID)
	case ev.Is(constants.CB_CASHIER_REPORT):
		return bh.sendPaymentsReport(ctx, ev, s)
	case ev.Is(constants.CB_CASHIER_BACK_DATES), ev.Is(constants.CB_CASHIER_START):
		return bh.showPaymentDates(ctx, ev, s)
	case ev.Is(constants.CB_CASHIER_DATE):
		return bh.cashierListingDates(ctx, ev, s)
	default:
		return bh.showPayments(ctx, ev, s)
	}
}

// showPayment отправляет фото квитанции и детали с кнопками решения.
func (bh *BotHandler) showPayment(ctx context.Context, ev Event, s session.Session, paymentID int64) (session.Session, error) {
	payment, err := bh.Deps.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return s, err
	}
	c := s.CashierData()
	c.CurrentPayment = payment

	details := formatters.FormatPaymentDetails(*payment)
	if payment.ReceiptPath == "" {
		details += "\n\n" + msgReceiptMissing
	} else {
		bh.deliverFile(ctx, ev.ChatID, payment.ReceiptPath, models.MessageKindPhoto, fmt.Sprintf("🧾 رسید پرداخت #%d", payment.PaymentID))
	}
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, details, cashierVerifyKeyboard(payment.PaymentID))
	return s.WithStage(constants.STATE_CASHIER_VERIFYING), nil
}

// sendPaymentsReport - XLSX со всеми ожидающими платежами даты.
func (bh *BotHandler) sendPaymentsReport(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	date := ev.Action.ID
	if date == "" {
		date = s.CashierData().SelectedDate
	}
	payments, err := bh.Deps.Gateway.PendingPayments(ctx, date)
	if err != nil {
		return s, err
	}
	data, err := reports.PendingPayments(date, payments)
	if err != nil {
		return s, fmt.Errorf("отчёт по платежам за %s: %w", date, err)
	}
	bh.sendDocument(ctx, ev.ChatID, reports.PendingPaymentsFileName(date), data, fmt.Sprintf("📊 گزارش پرداخت‌های %s", date))
	return s, nil
}

func (bh *BotHandler) cashierVerifying(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.CashierData()
	switch {
	case ev.Is(constants.CB_CASHIER_APPROVE):
		paymentID, err := ev.Action.Int64()
		if err != nil {
			return bh.showPayments(ctx, ev, s)
		}
		return bh.approvePayment(ctx, ev, s, paymentID)

	case ev.Is(constants.CB_CASHIER_REJECT):
		paymentID, err := ev.Action.Int64()
		if err != nil {
			return bh.showPayments(ctx, ev, s)
		}
		c.RejectPaymentID = paymentID
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgRejectionPrompt, cashierRejectKeyboard())
		return s.WithStage(constants.STATE_CASHIER_REJECTION), nil

	case ev.Is(constants.CB_CASHIER_BACK_LIST):
		return bh.showPayments(ctx, ev, s)

	case ev.Is(constants.CB_CASHIER_BACK_DATES):
		return bh.showPaymentDates(ctx, ev, s)

	default:
		if c.CurrentPayment == nil {
			bh.sendMessage(ctx, ev.ChatID, msgPaymentNotSelected)
			return bh.showPayments(ctx, ev, s)
		}
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, formatters.FormatPaymentDetails(*c.CurrentPayment), cashierVerifyKeyboard(c.CurrentPayment.PaymentID))
		return s, nil
	}
}

// approvePayment: платёж ACCEPTED, затем выпуск счёта.
// Сбой выпуска после принятия оставляет кассира на шаге issue_retry.
func (bh *BotHandler) approvePayment(ctx context.Context, ev Event, s session.Session, paymentID int64) (session.Session, error) {
	c := s.CashierData()
	payment, err := bh.Deps.Gateway.ReviewPayment(ctx, paymentID, models.PaymentReview{
		Status: constants.PAYMENT_STATUS_ACCEPTED,
		UserID: c.UserID,
	})
	if err != nil {
		return s, err
	}
	bh.log.Infof("[CASHIER] Кассир %d принял платёж %d", ev.ActorID, paymentID)
	payment = bh.mergePayment(c, payment)
	if payment.OrderID == 0 || payment.PatientID == 0 {
		if full, err := bh.Deps.Gateway.GetPayment(ctx, paymentID); err == nil {
			payment = full
		}
	}

	if err := bh.issueInvoice(ctx, ev, payment); err != nil {
		bh.log.Warnf("[CASHIER] Платёж %d принят, но счёт не выпущен: %v", paymentID, err)
		c.PendingPaymentID = paymentID
		c.CurrentPayment = payment
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ پرداخت #%d تایید شد اما صدور فاکتور ناموفق بود. لطفاً دوباره تلاش کنید.", paymentID),
			issueRetryKeyboard(paymentID))
		return s.WithStage(constants.STATE_CASHIER_ISSUE_RETRY), nil
	}
	bh.sendMessage(ctx, ev.ChatID, fmt.Sprintf("✅ پرداخت بیمار %s با موفقیت تایید شد.", payment.FullName))
	return bh.backToPayments(ctx, ev, s)
}

// mergePayment дополняет ответ PATCH данными из списка: бэкенд может вернуть укороченную запись.
func (bh *BotHandler) mergePayment(c *session.CashierPayload, reviewed *models.Payment) *models.Payment {
	if reviewed == nil {
		reviewed = &models.Payment{}
	}
	cur := c.CurrentPayment
	if cur == nil || (reviewed.PaymentID != 0 && cur.PaymentID != reviewed.PaymentID) {
		return reviewed
	}
	merged := *cur
	if reviewed.Status != "" {
		merged.Status = reviewed.Status
	}
	if reviewed.OrderID != 0 {
		merged.OrderID = reviewed.OrderID
	}
	if reviewed.PatientID != 0 {
		merged.PatientID = reviewed.PatientID
	}
	return &merged
}

// issueInvoice загружает заказ, рендерит XLSX, помечает заказ paid и пациента payment_accepted,
// затем отправляет документ пациенту и кассиру.
func (bh *BotHandler) issueInvoice(ctx context.Context, ev Event, payment *models.Payment) error {
	order, err := bh.Deps.Gateway.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return fmt.Errorf("загрузка заказа %d: %w", payment.OrderID, err)
	}
	patient, err := bh.Deps.Gateway.GetPatient(ctx, payment.PatientID)
	if err != nil {
		return fmt.Errorf("загрузка пациента %d: %w", payment.PatientID, err)
	}

	seller := bh.Deps.Config.Seller
	ic := invoice.NewContext(
		invoice.Party{Name: seller.Name, Phone: seller.Phone, Address: seller.Address},
		invoice.Party{Name: patient.FullName, Phone: patient.PhoneNumber},
		cart.OrderLines(order.Items),
		order.OrderID,
		bh.Deps.Now(),
	)
	ic.CashierName = ev.ActorName
	if order.ConsultantID != 0 {
		if consultant, err := bh.Deps.Gateway.GetUser(ctx, order.ConsultantID); err == nil {
			ic.ConsultantName = consultant.FullName
		} else {
			bh.log.Debugf("[CASHIER] Имя консультанта %d недоступно: %v", order.ConsultantID, err)
		}
	}
	data, err := invoice.Render(ic)
	if err != nil {
		return fmt.Errorf("рендер счёта для заказа %d: %w", order.OrderID, err)
	}

	if _, err := bh.Deps.Gateway.PatchOrder(ctx, order.OrderID, models.OrderPatch{Status: constants.ORDER_STATUS_PAID}); err != nil {
		return fmt.Errorf("статус заказа %d: %w", order.OrderID, err)
	}
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, patient.PatientID, constants.PATIENT_STATUS_PAYMENT_ACCEPTED); err != nil {
		return fmt.Errorf("статус пациента %d: %w", patient.PatientID, err)
	}

	name := invoice.FileName(ic)
	caption := fmt.Sprintf("🧾 فاکتور نهایی سفارش #%d", order.OrderID)
	patientChat := patient.TelegramID()
	if patientChat == 0 {
		patientChat = payment.TelegramID
	}
	if patientChat != 0 {
		bh.sendDocument(ctx, patientChat, name, data, caption+"\n"+msgPaymentAccepted)
	}
	bh.sendDocument(ctx, ev.ChatID, name, data, caption)
	return nil
}

func (bh *BotHandler) cashierRejectionReason(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.CashierData()
	if ev.Is(constants.CB_CASHIER_CANCEL_REJ) {
		c.RejectPaymentID = 0
		if c.CurrentPayment != nil {
			bh.sendMessageWithKeyboard(ctx, ev.ChatID, formatters.FormatPaymentDetails(*c.CurrentPayment), cashierVerifyKeyboard(c.CurrentPayment.PaymentID))
			return s.WithStage(constants.STATE_CASHIER_VERIFYING), nil
		}
		return bh.showPayments(ctx, ev, s)
	}
	if ev.IsCallback() || len([]rune(ev.Text)) < 3 {
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgRejectionPrompt, cashierRejectKeyboard())
		return s, nil
	}

	paymentID := c.RejectPaymentID
	reviewed, err := bh.Deps.Gateway.ReviewPayment(ctx, paymentID, models.PaymentReview{
		Status:  constants.PAYMENT_STATUS_REJECTED,
		Explain: ev.Text,
		UserID:  c.UserID,
	})
	if err != nil {
		return s, err
	}
	payment := bh.mergePayment(c, reviewed)
	if payment.PatientID == 0 {
		if payment, err = bh.Deps.Gateway.GetPayment(ctx, paymentID); err != nil {
			return s, err
		}
	}
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, payment.PatientID, constants.PATIENT_STATUS_PAYMENT_REJECTED); err != nil {
		return s, err
	}
	bh.log.Infof("[CASHIER] Кассир %d отклонил платёж %d", ev.ActorID, paymentID)

	if payment.TelegramID != 0 {
		bh.sendMessage(ctx, payment.TelegramID, fmt.Sprintf(
			"❌ پرداخت شما تایید نشد.\nدلیل: %s\n\nبرای ارسال مجدد رسید، یک پیام در همین گفتگو بفرستید.", ev.Text))
	} else {
		bh.log.Warnf("[CASHIER] У платежа %d нет telegram_id пациента, уведомление не отправлено", paymentID)
	}
	bh.sendMessage(ctx, ev.ChatID, fmt.Sprintf("✅ پرداخت #%d رد شد و دلیل برای بیمار ارسال گردید.", paymentID))
	c.RejectPaymentID = 0
	return bh.backToPayments(ctx, ev, s)
}

// cashierIssueRetry повторяет только выпуск счёта для уже принятого платежа.
func (bh *BotHandler) cashierIssueRetry(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.CashierData()
	if !ev.Is(constants.CB_CASHIER_ISSUE_RETRY) {
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ فاکتور پرداخت #%d هنوز صادر نشده است.", c.PendingPaymentID), issueRetryKeyboard(c.PendingPaymentID))
		return s, nil
	}
	paymentID, err := ev.Action.Int64()
	if err != nil {
		paymentID = c.PendingPaymentID
	}
	payment := c.CurrentPayment
	if payment == nil || payment.PaymentID != paymentID || payment.OrderID == 0 {
		if payment, err = bh.Deps.Gateway.GetPayment(ctx, paymentID); err != nil {
			return s, err
		}
	}
	if err := bh.issueInvoice(ctx, ev, payment); err != nil {
		return s, err
	}
	bh.log.Infof("[CASHIER] Счёт по платежу %d выпущен повторно", paymentID)
	c.PendingPaymentID = 0
	bh.sendMessage(ctx, ev.ChatID, fmt.Sprintf("✅ فاکتور پرداخت #%d صادر و ارسال شد.", paymentID))
	return bh.backToPayments(ctx, ev, s)
}

// backToPayments - возврат к списку после уже выполненного на бэкенде действия.
// Ошибка списка не должна откатывать переход: уведомления этого перехода ещё не отправлены.
func (bh *BotHandler) backToPayments(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	next, err := bh.showPayments(ctx, ev, s)
	if err != nil {
		bh.log.Warnf("[CASHIER] Не удалось обновить список платежей: %v", err)
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, msgCashierWelcome, cashierStartKeyboard())
		return s.WithStage(constants.STATE_IDLE), nil
	}
	return next, nil
}
