// Package invoice рендерит счёт-фактуру аптеки в XLSX (RTL, персидские подписи).
package invoice

import (
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
)

const sheetName = "فاکتور"

// Party - продавец или покупатель.
type Party struct {
	Name    string
	Phone   string
	Address string
}

// Context - всё, что печатается в счёте. Render не читает ничего, кроме него.
type Context struct {
	Seller         Party
	Buyer          Party
	Lines          []cart.Line
	TotalQty       int
	Total          int64
	CashierName    string
	ConsultantName string
	InvoiceNumber  string
	OrderID        int64
	Date           time.Time
}

// NewContext заполняет итоги по строкам. Строки без цены в итог не входят.
func NewContext(seller, buyer Party, lines []cart.Line, orderID int64, date time.Time) Context {
	c := Context{
		Seller:        seller,
		Buyer:         buyer,
		Lines:         lines,
		OrderID:       orderID,
		Date:          date,
		InvoiceNumber: fmt.Sprintf("INV-%s-%d", date.Format("20060102"), orderID),
	}
	for _, l := range lines {
		c.TotalQty += l.Qty
	}
	c.Total, _ = cart.SumLines(lines)
	return c
}

// FileName - имя файла для отправки в чат.
func FileName(c Context) string {
	return fmt.Sprintf("invoice_%d.xlsx", c.OrderID)
}

var headers = []string{"ردیف", "شرح کالا", "تعداد", "قیمت واحد (ریال)", "مبلغ کل (ریال)"}

// Render возвращает готовую книгу XLSX.
func Render(c Context) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(sheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, fmt.Errorf("sheet view: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#999999", Style: 1},
			{Type: "right", Color: "#999999", Style: 1},
			{Type: "top", Color: "#999999", Style: 1},
			{Type: "bottom", Color: "#999999", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return nil, err
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "E", 20)

	// Шапка
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellValue(sheetName, "A1", "فاکتور فروش "+c.Seller.Name)
	f.SetCellStyle(sheetName, "A1", "E1", titleStyle)

	f.SetCellValue(sheetName, "A2", "شماره فاکتور:")
	f.SetCellValue(sheetName, "B2", c.InvoiceNumber)
	f.SetCellValue(sheetName, "C2", "تاریخ:")
	f.SetCellValue(sheetName, "D2", c.Date.Format("2006-01-02"))

	f.SetCellValue(sheetName, "A3", "فروشنده:")
	f.SetCellValue(sheetName, "B3", c.Seller.Name)
	f.SetCellValue(sheetName, "C3", "تلفن:")
	f.SetCellValue(sheetName, "D3", c.Seller.Phone)
	f.SetCellValue(sheetName, "A4", "نشانی:")
	f.SetCellValue(sheetName, "B4", c.Seller.Address)

	f.SetCellValue(sheetName, "A5", "خریدار:")
	f.SetCellValue(sheetName, "B5", c.Buyer.Name)
	f.SetCellValue(sheetName, "C5", "تلفن:")
	f.SetCellValue(sheetName, "D5", c.Buyer.Phone)
	f.SetCellValue(sheetName, "A6", "نشانی:")
	f.SetCellValue(sheetName, "B6", c.Buyer.Address)

	const headerRow = 8
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("E%d", headerRow), headerStyle)

	row := headerRow + 1
	for i, l := range c.Lines {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), l.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), l.Qty)
		if l.PriceKnown {
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), l.UnitPrice)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), l.LineTotal)
		} else {
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), "نامشخص")
		}
		row++
	}
	if row > headerRow+1 {
		f.SetCellStyle(sheetName, fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("E%d", row-1), moneyStyle)
	}

	// Итоги
	row++
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "جمع تعداد")
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), c.TotalQty)
	row++
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "مبلغ قابل پرداخت ("+constants.CURRENCY_LABEL+")")
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), c.Total)
	f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), moneyStyle)
	row += 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "مشاور:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), c.ConsultantName)
	row++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "صندوق‌دار:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), c.CashierName)

	// QR: номер счёта и заказа, для сверки на кассе.
	qr, err := qrcode.Encode(fmt.Sprintf("%s|order:%d|total:%d", c.InvoiceNumber, c.OrderID, c.Total), qrcode.Medium, 160)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	if err := f.AddPictureFromBytes(sheetName, "E2", &excelize.Picture{
		Extension: ".png",
		File:      qr,
		Format:    &excelize.GraphicOptions{AltText: c.InvoiceNumber},
	}); err != nil {
		return nil, fmt.Errorf("add qr: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write invoice: %w", err)
	}
	return buf.Bytes(), nil
}
