package cart

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"PharmaBot/internal/models"
)

var (
	moneyPrinter = message.NewPrinter(language.English)
	// Суммы хранятся в int64; всё, что больше, считается неизвестной ценой.
	maxAmount = decimal.NewFromInt(math.MaxInt64)
)

// ParsePrice разбирает десятичную или научную запись цены и округляет до целого риала.
// Дробных единиц валюты в этом домене нет.
func ParsePrice(raw models.Price) (int64, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("пустая цена")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("некорректная цена %q: %w", string(raw), err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("отрицательная цена %q", string(raw))
	}
	d = d.Round(0)
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("цена %q вне допустимого диапазона", string(raw))
	}
	return d.IntPart(), nil
}

// lineTotal умножает в decimal; ok=false, если сумма не помещается в int64.
func lineTotal(price int64, qty int) (int64, bool) {
	sum := decimal.NewFromInt(price).Mul(decimal.NewFromInt(int64(qty)))
	if sum.IsNegative() || sum.GreaterThan(maxAmount) {
		return 0, false
	}
	return sum.IntPart(), true
}

// priceLine заполняет цену строки, если она разбирается и сумма не переполняется.
func priceLine(line *Line, raw models.Price) {
	price, err := ParsePrice(raw)
	if err != nil {
		return
	}
	total, ok := lineTotal(price, line.Qty)
	if !ok {
		return
	}
	line.UnitPrice = price
	line.LineTotal = total
	line.PriceKnown = true
}

// FormatMoney печатает целую сумму с разделителями тысяч: 250000 -> "250,000".
func FormatMoney(amount int64) string {
	return moneyPrinter.Sprintf("%d", amount)
}

// Line - строка для отображения: количество, цена и сумма по строке.
// PriceKnown=false означает, что цены нет в drug_info или её не удалось разобрать.
type Line struct {
	DrugID     int64
	Name       string
	Qty        int
	UnitPrice  int64
	LineTotal  int64
	PriceKnown bool
}

// Lines строит строки корзины в порядке drug_id.
func Lines(c Cart, info map[int64]DrugInfo) []Line {
	lines := make([]Line, 0, len(c))
	for _, id := range c.DrugIDs() {
		qty := c[id]
		line := Line{DrugID: id, Qty: qty, Name: fmt.Sprintf("#%d", id)}
		if di, ok := info[id]; ok {
			if di.Name != "" {
				line.Name = di.Name
			}
			priceLine(&line, di.UnitPrice)
		}
		lines = append(lines, line)
	}
	return lines
}

// Total = Σ quantity × unit_price по препаратам, известным в обоих словарях.
// unknown содержит drug_id без цены: их нельзя молча считать нулём.
func Total(c Cart, info map[int64]DrugInfo) (total int64, unknown []int64) {
	return SumLines(Lines(c, info))
}

// OrderLines - то же для позиций удалённого заказа (цена берётся из самих позиций).
func OrderLines(items []models.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		line := Line{DrugID: it.DrugID, Qty: it.Qty, Name: it.DrugName}
		if line.Name == "" {
			line.Name = fmt.Sprintf("#%d", it.DrugID)
		}
		priceLine(&line, it.UnitPrice)
		lines = append(lines, line)
	}
	return lines
}

// SumLines складывает известные строки и возвращает id строк без цены.
// Строка, с которой итог перестал бы помещаться в int64, тоже попадает в unknown.
func SumLines(lines []Line) (total int64, unknown []int64) {
	sum := decimal.Zero
	for _, l := range lines {
		if !l.PriceKnown {
			unknown = append(unknown, l.DrugID)
			continue
		}
		next := sum.Add(decimal.NewFromInt(l.LineTotal))
		if next.GreaterThan(maxAmount) {
			unknown = append(unknown, l.DrugID)
			continue
		}
		sum = next
	}
	return sum.IntPart(), unknown
}
