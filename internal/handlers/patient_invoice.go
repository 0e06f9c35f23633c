package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/formatters"
	"PharmaBot/internal/gateway"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

const (
	msgAwaitingConsultation = "⏳ پرونده شما در صف بررسی مشاور است. هر پیام، عکس یا پیام صوتی که اینجا بفرستید برای مشاور ارسال می‌شود."
	msgMessageSaved         = "✅ پیام شما ثبت شد."
	msgPaymentSubmitted     = "⏳ رسید پرداخت شما ثبت شد و در انتظار بررسی صندوق‌دار است."
	msgPaymentAccepted      = "✅ پرداخت شما تایید شد و فاکتور نهایی برایتان ارسال شده است. از اعتماد شما سپاسگزاریم."
	msgPaymentRejected      = "❌ پرداخت قبلی شما تایید نشد. لطفاً رسید صحیح را دوباره ارسال کنید."
	msgEditNeedsOneLine     = "⚠️ حداقل یک قلم دارو باید در فاکتور باقی بماند."
	msgEditPrompt           = "✏️ اقلامی را که نمی‌خواهید با لمس غیرفعال کنید، سپس «ثبت تغییرات» را بزنید."
)

// syncPatientStatus перечитанный статус бэкенда определяет шаг пациента.
func (bh *BotHandler) syncPatientStatus(ctx context.Context, ev Event, s session.Session, patient *models.Patient) (session.Session, error) {
	p := s.PatientData()
	p.PatientID = patient.PatientID

	switch patient.Status {
	case constants.PATIENT_STATUS_AWAITING_APPROVAL:
		return bh.renderInvoice(ctx, ev, s)

	case constants.PATIENT_STATUS_AWAITING_PAYMENT, constants.PATIENT_STATUS_PAYMENT_REJECTED:
		if err := bh.rememberApprovedOrder(ctx, p); err != nil {
			return s, err
		}
		p.Payment = session.PaymentDraft{Key: bh.Deps.NewKey()}
		text := promptReceipt
		if patient.Status == constants.PATIENT_STATUS_PAYMENT_REJECTED {
			text = msgPaymentRejected + "\n\n" + promptReceipt
		}
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, keyboard(cancelRow()))
		return s.WithStage(constants.STATE_PATIENT_PAYMENT_RECEIPT), nil

	case constants.PATIENT_STATUS_PAYMENT_SUBMITTED:
		bh.sendMessage(ctx, ev.ChatID, msgPaymentSubmitted)
		return s.WithStage(constants.STATE_PATIENT_PAYMENT_SENT), nil

	case constants.PATIENT_STATUS_PAYMENT_ACCEPTED:
		bh.sendMessage(ctx, ev.ChatID, msgPaymentAccepted)
		return s.Reset(), nil

	default:
		bh.sendMessage(ctx, ev.ChatID, msgAwaitingConsultation)
		return s.WithStage(constants.STATE_PATIENT_AWAITING_CONSULTATION), nil
	}
}

// refreshPatient перечитывает карточку; если статус уже не тот, уходит на нужный шаг.
// done=true - событие уже обработано синхронизацией.
func (bh *BotHandler) refreshPatient(ctx context.Context, ev Event, s session.Session, want string) (*models.Patient, session.Session, bool, error) {
	p := s.PatientData()
	var (
		patient *models.Patient
		err     error
	)
	if p.PatientID != 0 {
		patient, err = bh.Deps.Gateway.GetPatient(ctx, p.PatientID)
	} else {
		patient, err = bh.Deps.Gateway.GetPatientByTelegramID(ctx, ev.ActorID)
	}
	if gateway.IsNotFound(err) {
		// Карточка исчезла на бэкенде - начинаем заново.
		bh.log.Warnf("[PATIENT] Карточка пациента актора %d не найдена, сброс", ev.ActorID)
		s = s.Reset()
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptWelcome, patientStartKeyboard())
		// Анкета и черновики больше не нужны: после коммита удаляем сессию целиком.
		actorID := ev.ActorID
		bh.enqueue(ctx, "forget session", func(ctx context.Context) error {
			return bh.Deps.Sessions.Forget(ctx, actorID)
		})
		return nil, s, true, nil
	}
	if err != nil {
		return nil, s, true, err
	}
	if patient.Status != want {
		next, err := bh.syncPatientStatus(ctx, ev, s, patient)
		return patient, next, true, err
	}
	return patient, s, false, nil
}

// patientAwaitingConsultation: сообщения пациента сначала пишутся в журнал, затем пересылаются консультанту.
func (bh *BotHandler) patientAwaitingConsultation(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	patient, s, done, err := bh.refreshPatient(ctx, ev, s, constants.PATIENT_STATUS_AWAITING_CONSULTATION)
	if done || err != nil {
		return s, err
	}
	if ev.IsCallback() || (ev.Text == "" && ev.Attachment == nil) {
		bh.sendMessage(ctx, ev.ChatID, msgAwaitingConsultation)
		return s, nil
	}

	entry, err := bh.recordChatMessage(ctx, ev, patient.PatientID, constants.ROLE_PATIENT)
	if err != nil {
		return s, err
	}
	if patient.Consultant != nil && patient.Consultant.TelegramID != 0 {
		bh.forwardChatMessage(ctx, patient.Consultant.TelegramID, fmt.Sprintf("💬 پیام از بیمار %s:", patient.FullName), entry)
	}
	bh.sendMessage(ctx, ev.ChatID, msgMessageSaved)
	return s, nil
}

// rememberApprovedOrder находит одобренный заказ для платежа, если id ещё не известен.
func (bh *BotHandler) rememberApprovedOrder(ctx context.Context, p *session.PatientPayload) error {
	if p.OrderID != 0 {
		return nil
	}
	order, err := bh.Deps.Gateway.LatestOrder(ctx, p.PatientID, constants.ORDER_STATUS_APPROVED)
	if gateway.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	p.OrderID = order.OrderID
	return nil
}

// renderInvoice показывает последний заказ в статусе awaiting_approval.
// Итог считается заново по ценам позиций, локально не хранится.
func (bh *BotHandler) renderInvoice(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	p := s.PatientData()
	order, err := bh.Deps.Gateway.LatestOrder(ctx, p.PatientID, constants.ORDER_STATUS_AWAITING_APPROVAL)
	if gateway.IsNotFound(err) {
		bh.log.Warnf("[PATIENT] Пациент %d ждёт фактуру, но заказа awaiting_approval нет", p.PatientID)
		bh.sendMessage(ctx, ev.ChatID, msgAwaitingConsultation)
		return s.WithStage(constants.STATE_PATIENT_AWAITING_CONSULTATION), nil
	}
	if err != nil {
		return s, err
	}
	p.OrderID = order.OrderID
	p.Edit = nil

	text, _ := formatters.FormatInvoice(order.OrderID, cart.OrderLines(order.Items))
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, text+"\n\nلطفاً فاکتور را بررسی و تایید کنید.", invoiceApprovalKeyboard())
	return s.WithStage(constants.STATE_PATIENT_AWAITING_APPROVAL), nil
}

func (bh *BotHandler) patientAwaitingApproval(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	_, s, done, err := bh.refreshPatient(ctx, ev, s, constants.PATIENT_STATUS_AWAITING_APPROVAL)
	if done || err != nil {
		return s, err
	}
	p := s.PatientData()

	switch {
	case ev.Is(constants.CB_INVOICE_APPROVE) && p.OrderID != 0:
		order, err := bh.Deps.Gateway.PatchOrder(ctx, p.OrderID, models.OrderPatch{Status: constants.ORDER_STATUS_APPROVED})
		if err != nil {
			return s, err
		}
		if len(order.Items) == 0 {
			if full, err := bh.Deps.Gateway.GetOrder(ctx, order.OrderID); err == nil {
				order = full
			}
		}
		return bh.afterApproval(ctx, ev, s, order, false)

	case ev.Is(constants.CB_INVOICE_EDIT) && p.OrderID != 0:
		order, err := bh.Deps.Gateway.GetOrder(ctx, p.OrderID)
		if err != nil {
			return s, err
		}
		p.Edit = cart.NewPendingInvoiceEdit(*order)
		bh.sendOrEditMessageHelper(ctx, ev, editText(p.Edit), invoiceEditKeyboard(p.Edit))
		return s.WithStage(constants.STATE_PATIENT_EDITING_INVOICE), nil

	default:
		return bh.renderInvoice(ctx, ev, s)
	}
}

// afterApproval: статус пациента -> awaiting_payment, затем запрос квитанции.
func (bh *BotHandler) afterApproval(ctx context.Context, ev Event, s session.Session, order *models.Order, showInvoice bool) (session.Session, error) {
	p := s.PatientData()
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, p.PatientID, constants.PATIENT_STATUS_AWAITING_PAYMENT); err != nil {
		return s, err
	}
	bh.log.Infof("[PATIENT] Пациент %d одобрил заказ %d", p.PatientID, order.OrderID)

	p.OrderID = order.OrderID
	p.Edit = nil
	p.Payment = session.PaymentDraft{Key: bh.Deps.NewKey()}

	text, total := formatters.FormatInvoice(order.OrderID, cart.OrderLines(order.Items))
	if !showInvoice {
		text = fmt.Sprintf("✅ فاکتور #%d تایید شد.\n💰 مبلغ قابل پرداخت: %s", order.OrderID, utils.FormatAmount(total))
	}
	bh.sendOrEditMessageHelper(ctx, ev, text, nil)
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptReceipt, keyboard(cancelRow()))
	return s.WithStage(constants.STATE_PATIENT_PAYMENT_RECEIPT), nil
}

func (bh *BotHandler) patientEditingInvoice(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	p := s.PatientData()
	if p.Edit == nil {
		return bh.renderInvoice(ctx, ev, s)
	}

	switch {
	case ev.Is(constants.CB_INVOICE_TOGGLE):
		drugID, err := ev.Action.Int64()
		if err != nil || !p.Edit.Toggle(drugID) {
			bh.log.Warnf("[PATIENT] Неизвестная позиция счёта %q у актора %d", ev.Action.ID, ev.ActorID)
		}
		bh.sendOrEditMessageHelper(ctx, ev, editText(p.Edit), invoiceEditKeyboard(p.Edit))
		return s, nil

	case ev.Is(constants.CB_INVOICE_EDIT_CONFIRM):
		// Пока пациент правил счёт, статус на бэкенде мог уйти дальше.
		_, next, done, err := bh.refreshPatient(ctx, ev, s, constants.PATIENT_STATUS_AWAITING_APPROVAL)
		if err != nil {
			return next, err
		}
		if done {
			p.Edit = nil
			return next, nil
		}
		selected := p.Edit.SelectedItems()
		if len(selected) == 0 {
			bh.sendMessage(ctx, ev.ChatID, msgEditNeedsOneLine)
			return s, nil
		}
		items := make([]models.OrderItem, 0, len(selected))
		for _, it := range selected {
			items = append(items, models.OrderItem{DrugID: it.DrugID, Qty: it.Qty})
		}
		order, err := bh.Deps.Gateway.PatchOrder(ctx, p.Edit.OrderID, models.OrderPatch{
			Items:  items,
			Status: constants.ORDER_STATUS_APPROVED,
		})
		if err != nil {
			return s, err
		}
		if len(order.Items) == 0 {
			// Бэкенд не вернул позиции - показываем то, что отправили.
			order.Items = selected
		}
		return bh.afterApproval(ctx, ev, s, order, true)

	case ev.Is(constants.CB_INVOICE_EDIT_CANCEL):
		p.Edit = nil
		return bh.renderInvoice(ctx, ev, s)

	default:
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, editText(p.Edit), invoiceEditKeyboard(p.Edit))
		return s, nil
	}
}

func editText(edit *cart.PendingInvoiceEdit) string {
	text, _ := formatters.FormatInvoice(edit.OrderID, cart.OrderLines(edit.SelectedItems()))
	return msgEditPrompt + "\n\n" + text
}
