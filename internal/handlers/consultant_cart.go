package handlers

import (
	"context"
	"fmt"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/formatters"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

const (
	msgChooseCategory = "💊 دسته بیماری را انتخاب کنید:"
	msgNoCategories   = "هیچ دسته‌ای در سیستم ثبت نشده است."
	msgCartEmpty      = "🛒 سبد خالی است. ابتدا دارو اضافه کنید."
	msgCartCleared    = "🗑 سبد خالی شد."
)

// showCategories - список категорий; корзина сохраняется.
func (bh *BotHandler) showCategories(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	categories, err := bh.Deps.Gateway.DiseaseTypes(ctx)
	if err != nil {
		return s, err
	}
	c := s.ConsultantData()
	text := msgChooseCategory
	if len(categories) == 0 {
		text = msgNoCategories
	}
	if c.PatientName != "" {
		text = fmt.Sprintf("👤 %s\n%s", c.PatientName, text)
	}
	bh.sendOrEditMessageHelper(ctx, ev, text, categoriesKeyboard(categories, c.Cart.Units()))
	return s.WithStage(constants.STATE_CONSULTANT_CATEGORIES), nil
}

func (bh *BotHandler) consultantCategories(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	switch {
	case ev.Is(constants.CB_CATEGORY):
		categoryID, err := ev.Action.Int64()
		if err != nil {
			bh.log.Warnf("[CONSULTANT] %v", err)
			return bh.showCategories(ctx, ev, s)
		}
		return bh.showDrugs(ctx, ev, s, categoryID)
	case ev.Is(constants.CB_CONSULTANT_REVIEW):
		return bh.showReview(ctx, ev, s)
	case ev.Is(constants.CB_CONSULTANT_BACK_CHAT):
		bh.sendOrEditMessageHelper(ctx, ev, msgChatMode, consultantChatKeyboard())
		return s.WithStage(constants.STATE_CONSULTANT_CHAT), nil
	default:
		return bh.showCategories(ctx, ev, s)
	}
}

// showDrugs загружает препараты категории и пополняет DrugInfo.
func (bh *BotHandler) showDrugs(ctx context.Context, ev Event, s session.Session, categoryID int64) (session.Session, error) {
	drugs, err := bh.Deps.Gateway.Drugs(ctx, categoryID)
	if err != nil {
		return s, err
	}
	c := s.ConsultantData()
	c.CategoryID = categoryID
	c.CategoryDrugs = c.CategoryDrugs[:0]
	for _, d := range drugs {
		c.DrugInfo[d.DrugID] = cart.DrugInfo{Name: d.Name, UnitPrice: d.Price}
		c.CategoryDrugs = append(c.CategoryDrugs, d.DrugID)
	}
	bh.sendOrEditMessageHelper(ctx, ev, drugsText(c), drugsKeyboard(c.CategoryDrugs, c.DrugInfo, c.Cart))
	return s.WithStage(constants.STATE_CONSULTANT_DRUGS), nil
}

func drugsText(c *session.ConsultantPayload) string {
	if len(c.CategoryDrugs) == 0 {
		return "در این دسته دارویی ثبت نشده است."
	}
	text := "💊 داروها (➕ افزودن، ➖ کم کردن):"
	for _, id := range c.CategoryDrugs {
		info := c.DrugInfo[id]
		text += fmt.Sprintf("\n • %s: %s", info.Name, displayPrice(info.UnitPrice))
	}
	return text
}

func (bh *BotHandler) consultantDrugs(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	switch {
	case ev.Is(constants.CB_DRUG_ADD), ev.Is(constants.CB_DRUG_REMOVE):
		drugID, err := ev.Action.Int64()
		if err != nil {
			bh.log.Warnf("[CONSULTANT] %v", err)
			return s, nil
		}
		if ev.Is(constants.CB_DRUG_ADD) {
			c.Cart.Increment(drugID)
		} else {
			c.Cart.Decrement(drugID)
		}
		// Состав корзины изменился - старый ключ отправки больше не годится.
		c.SubmissionKey = ""
		bh.sendOrEditMessageHelper(ctx, ev, drugsText(c), drugsKeyboard(c.CategoryDrugs, c.DrugInfo, c.Cart))
		return s, nil
	case ev.Is(constants.CB_CONSULTANT_BACK_CATS):
		return bh.showCategories(ctx, ev, s)
	case ev.Is(constants.CB_CONSULTANT_REVIEW):
		return bh.showReview(ctx, ev, s)
	case ev.Is(constants.CB_NOOP):
		return s, nil
	default:
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, drugsText(c), drugsKeyboard(c.CategoryDrugs, c.DrugInfo, c.Cart))
		return s, nil
	}
}

// showReview - строки и итог только по DrugInfo. Ключ отправки создаётся при входе в просмотр.
func (bh *BotHandler) showReview(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	if len(c.Cart) == 0 {
		bh.sendMessage(ctx, ev.ChatID, msgCartEmpty)
		return bh.showCategories(ctx, ev, s)
	}
	if c.SubmissionKey == "" {
		c.SubmissionKey = bh.Deps.NewKey()
	}
	text, _ := formatters.FormatCartReview(c.PatientName, cart.Lines(c.Cart, c.DrugInfo))
	bh.sendOrEditMessageHelper(ctx, ev, text, reviewKeyboard())
	return s.WithStage(constants.STATE_CONSULTANT_REVIEW), nil
}

func (bh *BotHandler) consultantReview(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	switch {
	case ev.Is(constants.CB_CONSULTANT_SUBMIT):
		return bh.submitOrder(ctx, ev, s)
	case ev.Is(constants.CB_CONSULTANT_CLEAR_CART):
		c.Cart = cart.Cart{}
		c.SubmissionKey = ""
		bh.sendMessage(ctx, ev.ChatID, msgCartCleared)
		return bh.showCategories(ctx, ev, s)
	case ev.Is(constants.CB_CONSULTANT_BACK_CATS):
		return bh.showCategories(ctx, ev, s)
	default:
		return bh.showReview(ctx, ev, s)
	}
}

// submitOrder: POST /orders/ с ключом идемпотентности, затем статус пациента.
// Если заказ создан, а статус не обновился, консультант видит id заказа и кнопку повтора.
func (bh *BotHandler) submitOrder(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	if len(c.Cart) == 0 || c.PatientID == 0 {
		bh.sendMessage(ctx, ev.ChatID, msgCartEmpty)
		return bh.showCategories(ctx, ev, s)
	}
	if c.SubmissionKey == "" {
		c.SubmissionKey = bh.Deps.NewKey()
	}
	total, unknown := cart.Total(c.Cart, c.DrugInfo)

	order, err := bh.Deps.Gateway.CreateOrder(ctx, models.OrderCreate{
		PatientID:    c.PatientID,
		ConsultantID: c.UserID,
		Items:        c.Cart.Items(),
	}, c.SubmissionKey)
	if err != nil {
		return s, err
	}
	bh.log.Infof("[CONSULTANT] Заказ %d создан для пациента %d, сумма %d (без цены: %v)", order.OrderID, c.PatientID, total, unknown)

	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, c.PatientID, constants.PATIENT_STATUS_AWAITING_APPROVAL); err != nil {
		bh.log.Warnf("[CONSULTANT] Заказ %d создан, но статус пациента %d не обновлён: %v", order.OrderID, c.PatientID, err)
		c.PendingOrderID = order.OrderID
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ سفارش #%d ثبت شد اما وضعیت بیمار به‌روزرسانی نشد. لطفاً دوباره تلاش کنید.", order.OrderID),
			statusRetryKeyboard(order.OrderID))
		return s.WithStage(constants.STATE_CONSULTANT_STATUS_RETRY), nil
	}
	return bh.finishSubmission(ctx, ev, s, order.OrderID, total)
}

func (bh *BotHandler) finishSubmission(ctx context.Context, ev Event, s session.Session, orderID, total int64) (session.Session, error) {
	c := s.ConsultantData()
	if c.PatientTelegramID != 0 {
		bh.sendMessageWithKeyboard(ctx, c.PatientTelegramID,
			"🧾 فاکتور داروهای شما توسط مشاور صادر شد. برای مشاهده و تایید دکمه زیر را بزنید.",
			invoiceViewKeyboard())
	}
	text := fmt.Sprintf("✅ سفارش #%d برای بیمار %s ثبت شد.", orderID, c.PatientName)
	if total > 0 {
		text += "\n💰 جمع کل: " + utils.FormatAmount(total)
	}
	bh.sendOrEditMessageHelper(ctx, ev, text, nil)

	next := s.Reset()
	next.ConsultantData().UserID = c.UserID
	bh.showMenu(ctx, ev, next, "")
	return next, nil
}

// consultantStatusRetry повторяет только обновление статуса пациента.
func (bh *BotHandler) consultantStatusRetry(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	c := s.ConsultantData()
	if !ev.Is(constants.CB_CONSULTANT_RETRY_STATUS) {
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"⚠️ وضعیت بیمار برای سفارش #%d هنوز به‌روزرسانی نشده است.", c.PendingOrderID),
			statusRetryKeyboard(c.PendingOrderID))
		return s, nil
	}
	if err := bh.Deps.Gateway.UpdatePatientStatus(ctx, c.PatientID, constants.PATIENT_STATUS_AWAITING_APPROVAL); err != nil {
		return s, err
	}
	total, _ := cart.Total(c.Cart, c.DrugInfo)
	bh.log.Infof("[CONSULTANT] Статус пациента %d обновлён повторно для заказа %d", c.PatientID, c.PendingOrderID)
	return bh.finishSubmission(ctx, ev, s, c.PendingOrderID, total)
}
