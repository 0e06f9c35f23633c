package formatters

import (
	"fmt"
	"strings"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

const (
	separator = "─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─"
)

// FormatProfileSummary - итог регистрации, который пациент видит после отправки анкеты.
func FormatProfileSummary(draft session.ProfileDraft) string {
	var sb strings.Builder

	photoStatus := "هیچ عکسی ارسال نشد"
	if n := len(draft.PhotoPaths); n > 0 {
		photoStatus = fmt.Sprintf("%d عکس", n)
	}

	sb.WriteString("✅ فرآیند ثبت‌نام شما با موفقیت به پایان رسید.\n")
	sb.WriteString(separator + "\n")
	sb.WriteString("📋 اطلاعات ثبت شده:\n")
	sb.WriteString(fmt.Sprintf(" •  نام: %s\n", draft.FullName))
	sb.WriteString(fmt.Sprintf(" •  کد ملی: %s\n", draft.NationalID))
	sb.WriteString(fmt.Sprintf(" •  موبایل: %s\n", draft.Phone))
	sb.WriteString(fmt.Sprintf(" •  جنسیت: %s\n", utils.GetGenderDisplayName(draft.Gender)))
	sb.WriteString(fmt.Sprintf(" •  سن: %d\n", draft.Age))
	sb.WriteString(fmt.Sprintf(" •  وزن: %s کیلوگرم\n", formatWeight(draft.Weight)))
	sb.WriteString(fmt.Sprintf(" •  قد: %d سانتی‌متر\n", draft.Height))
	sb.WriteString(fmt.Sprintf(" •  عکس‌های ارسالی: %s\n", photoStatus))
	sb.WriteString(separator + "\n")
	sb.WriteString("پرونده شما برای بررسی توسط کارشناسان ارسال شد. پیام‌های شما در این گفتگو برای مشاور ارسال می‌شود.")
	return sb.String()
}

// FormatPatientCard - карточка пациента для консультанта.
func FormatPatientCard(p models.Patient) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 بیمار: %s\n", p.FullName))
	sb.WriteString(separator + "\n")
	sb.WriteString(fmt.Sprintf(" •  کد ملی: %s\n", p.NationalID))
	sb.WriteString(fmt.Sprintf(" •  موبایل: %s\n", p.PhoneNumber))
	sb.WriteString(fmt.Sprintf(" •  جنسیت: %s\n", utils.GetGenderDisplayName(p.Gender)))
	sb.WriteString(fmt.Sprintf(" •  سن: %d | وزن: %s | قد: %d\n", p.Age, formatWeight(p.Weight), p.Height))
	if p.DiseaseDescription != "" {
		sb.WriteString(fmt.Sprintf("\n📝 شرح بیماری:\n%s\n", p.DiseaseDescription))
	}
	if p.SpecialConditions != "" {
		sb.WriteString(fmt.Sprintf("\n⚠️ شرایط خاص:\n%s\n", p.SpecialConditions))
	}
	if len(p.PhotoPaths) > 0 {
		sb.WriteString(fmt.Sprintf("\n📷 تعداد عکس‌ها: %d\n", len(p.PhotoPaths)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatInvoice - текст счёта по строкам. Итог считается только по строкам с ценой.
func FormatInvoice(orderID int64, lines []cart.Line) (string, int64) {
	body, total := utils.FormatLines(lines)
	text := fmt.Sprintf("🧾 فاکتور سفارش #%d\n%s\n%s", orderID, separator, body)
	return text, total
}

// FormatCartReview - корзина консультанта перед отправкой заказа.
func FormatCartReview(patientName string, lines []cart.Line) (string, int64) {
	body, total := utils.FormatLines(lines)
	text := fmt.Sprintf("🛒 سبد داروی بیمار %s\n%s\n%s", patientName, separator, body)
	return text, total
}

// FormatPaymentDetails - данные платежа для кассира.
func FormatPaymentDetails(p models.Payment) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💳 پرداخت #%d\n", p.PaymentID))
	sb.WriteString(separator + "\n")
	sb.WriteString(fmt.Sprintf(" •  بیمار: %s\n", p.FullName))
	sb.WriteString(fmt.Sprintf(" •  سفارش: #%d\n", p.OrderID))
	if amount, err := cart.ParsePrice(p.Value); err == nil {
		sb.WriteString(fmt.Sprintf(" •  مبلغ: %s\n", utils.FormatAmount(amount)))
	} else {
		sb.WriteString(fmt.Sprintf(" •  مبلغ: %s\n", p.Value))
	}
	sb.WriteString(fmt.Sprintf(" •  کد پیگیری: %s\n", p.TrackingCode))
	if !p.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf(" •  زمان ثبت: %s\n", p.CreatedAt.Format("2006-01-02 15:04")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatTranscript - последние limit записей переписки, старые сверху.
func FormatTranscript(messages []models.ChatMessage, limit int) string {
	if len(messages) == 0 {
		return "💬 هنوز پیامی رد و بدل نشده است."
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💬 آخرین پیام‌ها (%d):\n", len(messages)))
	sb.WriteString(separator + "\n")
	for _, m := range messages {
		who := "👤"
		if m.SenderRole == string(constants.ROLE_CONSULTANT) {
			who = "🩺"
		}
		content := m.Content
		switch m.Kind {
		case models.MessageKindPhoto:
			content = strings.TrimSpace("[عکس] " + content)
		case models.MessageKindVoice:
			content = "[پیام صوتی]"
		case models.MessageKindFile:
			content = strings.TrimSpace("[فایل] " + content)
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", who, utils.Truncate(content, 200)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWeight(w float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", w), "0"), ".")
}
