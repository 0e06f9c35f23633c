package utils

import (
	"fmt"
	"strings"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
)

// FormatAmount печатает сумму как "250,000 ریال".
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%s %s", cart.FormatMoney(amount), constants.CURRENCY_LABEL)
}

// FormatLines рендерит строки счёта/корзины в текст и возвращает общий итог.
// Строки без цены помечаются, а не считаются нулём.
func FormatLines(lines []cart.Line) (string, int64) {
	var sb strings.Builder
	total, unknown := cart.SumLines(lines)
	for i, l := range lines {
		if l.PriceKnown {
			sb.WriteString(fmt.Sprintf("%d. %s × %d = %s\n", i+1, l.Name, l.Qty, FormatAmount(l.LineTotal)))
		} else {
			sb.WriteString(fmt.Sprintf("%d. %s × %d = ⚠️ قیمت نامشخص\n", i+1, l.Name, l.Qty))
		}
	}
	sb.WriteString(fmt.Sprintf("\n💰 جمع کل: %s", FormatAmount(total)))
	if len(unknown) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ قیمت %d قلم نامشخص است و در جمع کل محاسبه نشده.", len(unknown)))
	}
	return sb.String(), total
}

// GetRoleDisplayName - название роли для пользователя.
func GetRoleDisplayName(role constants.Role) string {
	if name, ok := constants.RoleDisplayMap[role]; ok {
		return name
	}
	return string(role)
}

// GetGenderDisplayName - "مرد"/"زن".
func GetGenderDisplayName(gender string) string {
	if name, ok := constants.GenderDisplayMap[gender]; ok {
		return name
	}
	return gender
}

// Truncate обрезает строку до n рун для подписей кнопок.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
