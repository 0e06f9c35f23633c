// Package reports - выгрузки для персонала в Excel.
package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/models"
)

const paymentsSheet = "پرداخت‌ها"

// PendingPaymentsFileName - имя файла отчёта за дату.
func PendingPaymentsFileName(date string) string {
	return fmt.Sprintf("payments_%s.xlsx", date)
}

// PendingPayments строит отчёт кассира по ожидающим платежам за дату.
// Последняя строка - сумма по платежам с разбираемой суммой.
func PendingPayments(date string, payments []models.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(paymentsSheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)
	rtl := true
	f.SetSheetView(paymentsSheet, 0, &excelize.ViewOptions{RightToLeft: &rtl})

	headers := []string{"شناسه پرداخت", "شماره سفارش", "نام بیمار", "مبلغ (ریال)", "کد پیگیری", "وضعیت", "زمان ثبت"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(paymentsSheet, cell, header)
	}
	f.SetColWidth(paymentsSheet, "A", "G", 18)

	rowIndex := 2
	var sum int64
	for _, p := range payments {
		f.SetCellValue(paymentsSheet, fmt.Sprintf("A%d", rowIndex), p.PaymentID)
		f.SetCellValue(paymentsSheet, fmt.Sprintf("B%d", rowIndex), p.OrderID)
		f.SetCellValue(paymentsSheet, fmt.Sprintf("C%d", rowIndex), p.FullName)
		if amount, err := cart.ParsePrice(p.Value); err == nil {
			f.SetCellValue(paymentsSheet, fmt.Sprintf("D%d", rowIndex), amount)
			sum += amount
		} else {
			f.SetCellValue(paymentsSheet, fmt.Sprintf("D%d", rowIndex), string(p.Value))
		}
		f.SetCellValue(paymentsSheet, fmt.Sprintf("E%d", rowIndex), p.TrackingCode)
		f.SetCellValue(paymentsSheet, fmt.Sprintf("F%d", rowIndex), p.Status)
		if !p.CreatedAt.IsZero() {
			f.SetCellValue(paymentsSheet, fmt.Sprintf("G%d", rowIndex), p.CreatedAt.Format("2006-01-02 15:04"))
		}
		rowIndex++
	}
	f.SetCellValue(paymentsSheet, fmt.Sprintf("C%d", rowIndex), "جمع "+date)
	f.SetCellValue(paymentsSheet, fmt.Sprintf("D%d", rowIndex), sum)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}
