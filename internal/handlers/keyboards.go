package handlers

import (
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
	"PharmaBot/internal/utils"
)

const buttonTextLimit = 32

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func actionData(verb string, id any) string {
	return fmt.Sprintf("%s_%v", verb, id)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func cancelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("❌ لغو", constants.CB_CANCEL))
}

// --- Пациент ---

func patientStartKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("🚀 شروع فرآیند ثبت‌نام", constants.CB_START_REGISTRATION)))
}

func genderKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(
			button("مرد", constants.CB_GENDER_MALE),
			button("زن", constants.CB_GENDER_FEMALE),
		),
		cancelRow(),
	)
}

func skipConditionsKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("⏭ شرایط خاصی ندارم", constants.CB_SKIP_CONDITIONS)), cancelRow())
}

func photoConfirmationKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(button("📷 ارسال عکس دیگر", constants.CB_ADD_ANOTHER_PHOTO)),
		tgbotapi.NewInlineKeyboardRow(button("✅ پایان ثبت‌نام", constants.CB_FINISH_REGISTRATION)),
	)
}

func invoiceApprovalKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("✅ تایید فاکتور", constants.CB_INVOICE_APPROVE),
		button("✏️ ویرایش فاکتور", constants.CB_INVOICE_EDIT),
	))
}

func invoiceViewKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("🧾 مشاهده فاکتور", constants.CB_INVOICE_VIEW)))
}

func invoiceEditKeyboard(edit *cart.PendingInvoiceEdit) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range edit.Lines {
		mark := "❌"
		if l.Selected {
			mark = "✅"
		}
		name := l.Item.DrugName
		if name == "" {
			name = fmt.Sprintf("#%d", l.Item.DrugID)
		}
		text := fmt.Sprintf("%s %s × %d", mark, utils.Truncate(name, buttonTextLimit), l.Item.Qty)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(text, actionData(constants.CB_INVOICE_TOGGLE, l.Item.DrugID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("💾 ثبت تغییرات", constants.CB_INVOICE_EDIT_CONFIRM),
		button("↩️ انصراف", constants.CB_INVOICE_EDIT_CANCEL),
	))
	return keyboard(rows...)
}

// --- Консультант ---

func consultantMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("📋 بیماران در انتظار", constants.CB_CONSULTANT_BACK_DATES)))
}

func consultantDatesKeyboard(dates []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range dates {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📅 "+d, actionData(constants.CB_CONSULTANT_DATE, d))))
	}
	return keyboard(rows...)
}

func consultantPatientsKeyboard(patients []models.Patient) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range patients {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("👤 "+utils.Truncate(p.FullName, buttonTextLimit), actionData(constants.CB_CONSULTANT_PATIENT, p.PatientID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🔙 بازگشت به تاریخ‌ها", constants.CB_CONSULTANT_BACK_DATES)))
	return keyboard(rows...)
}

func consultantChatKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(button("📝 صدور فاکتور", constants.CB_CONSULTANT_INVOICE_REQ)),
		tgbotapi.NewInlineKeyboardRow(button("🔙 بازگشت به تاریخ‌ها", constants.CB_CONSULTANT_BACK_DATES)),
	)
}

func categoriesKeyboard(categories []models.DiseaseType, units int) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(utils.Truncate(c.Name, buttonTextLimit), actionData(constants.CB_CATEGORY, c.DiseaseTypeID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button(fmt.Sprintf("🛒 مشاهده سبد (%d)", units), constants.CB_CONSULTANT_REVIEW)),
		tgbotapi.NewInlineKeyboardRow(button("💬 بازگشت به گفتگو", constants.CB_CONSULTANT_BACK_CHAT)),
	)
	return keyboard(rows...)
}

// drugsKeyboard: строка на препарат - название с количеством, затем + и -.
func drugsKeyboard(drugIDs []int64, info map[int64]cart.DrugInfo, c cart.Cart) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range drugIDs {
		name := fmt.Sprintf("#%d", id)
		if di, ok := info[id]; ok && di.Name != "" {
			name = di.Name
		}
		label := utils.Truncate(name, buttonTextLimit)
		if qty := c.Quantity(id); qty > 0 {
			label = fmt.Sprintf("%s (%d)", label, qty)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(label, constants.CB_NOOP),
			button("➕", actionData(constants.CB_DRUG_ADD, id)),
			button("➖", actionData(constants.CB_DRUG_REMOVE, id)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button(fmt.Sprintf("🛒 مشاهده سبد (%d)", c.Units()), constants.CB_CONSULTANT_REVIEW)),
		tgbotapi.NewInlineKeyboardRow(button("🔙 بازگشت به دسته‌ها", constants.CB_CONSULTANT_BACK_CATS)),
	)
	return keyboard(rows...)
}

func reviewKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(button("✅ ثبت و ارسال فاکتور", constants.CB_CONSULTANT_SUBMIT)),
		tgbotapi.NewInlineKeyboardRow(
			button("🗑 خالی کردن سبد", constants.CB_CONSULTANT_CLEAR_CART),
			button("🔙 بازگشت به دسته‌ها", constants.CB_CONSULTANT_BACK_CATS),
		),
	)
}

func statusRetryKeyboard(orderID int64) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("🔁 تلاش مجدد", actionData(constants.CB_CONSULTANT_RETRY_STATUS, orderID)),
	))
}

func paymentRetryKeyboard(paymentID int64) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("🔁 تلاش مجدد", actionData(constants.CB_PAYMENT_RETRY_STATUS, paymentID)),
	))
}

// --- Кассир ---

func cashierStartKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("💳 بررسی پرداخت‌ها", constants.CB_CASHIER_START)))
}

func cashierDatesKeyboard(dates []string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range dates {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📅 "+d, actionData(constants.CB_CASHIER_DATE, d))))
	}
	return keyboard(rows...)
}

func cashierPaymentsKeyboard(date string, payments []models.Payment) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range payments {
		text := fmt.Sprintf("👤 %s | %s", utils.Truncate(p.FullName, 20), displayPrice(p.Value))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(text, actionData(constants.CB_CASHIER_PAYMENT, p.PaymentID))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button("📊 گزارش اکسل", actionData(constants.CB_CASHIER_REPORT, date))),
		tgbotapi.NewInlineKeyboardRow(button("🔙 بازگشت به تاریخ‌ها", constants.CB_CASHIER_BACK_DATES)),
	)
	return keyboard(rows...)
}

func cashierVerifyKeyboard(paymentID int64) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(
		tgbotapi.NewInlineKeyboardRow(
			button("✅ تایید پرداخت", actionData(constants.CB_CASHIER_APPROVE, paymentID)),
			button("❌ رد پرداخت", actionData(constants.CB_CASHIER_REJECT, paymentID)),
		),
		tgbotapi.NewInlineKeyboardRow(button("🔙 بازگشت به لیست", constants.CB_CASHIER_BACK_LIST)),
	)
}

func cashierRejectKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("↩️ انصراف از رد", constants.CB_CASHIER_CANCEL_REJ)))
}

func issueRetryKeyboard(paymentID int64) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(
		button("🔁 صدور مجدد فاکتور", actionData(constants.CB_CASHIER_ISSUE_RETRY, paymentID)),
	))
}

// displayPrice печатает цену бэкенда как "N,NNN ریال"; неразборчивую - как есть.
func displayPrice(raw models.Price) string {
	amount, err := cart.ParsePrice(raw)
	if err != nil {
		return string(raw)
	}
	return utils.FormatAmount(amount)
}
