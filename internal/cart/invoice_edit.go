package cart

import "PharmaBot/internal/models"

// EditLine - позиция счёта с флагом выбора.
type EditLine struct {
	Item     models.OrderItem `json:"item"`
	Selected bool             `json:"selected"`
}

// PendingInvoiceEdit - изменяемая копия позиций удалённого заказа.
// Живёт только пока пациент редактирует счёт; на бэкенд частично не пишется.
type PendingInvoiceEdit struct {
	OrderID int64      `json:"order_id"`
	Lines   []EditLine `json:"lines"`
}

// NewPendingInvoiceEdit копирует позиции заказа, все выбраны.
func NewPendingInvoiceEdit(order models.Order) *PendingInvoiceEdit {
	edit := &PendingInvoiceEdit{OrderID: order.OrderID, Lines: make([]EditLine, 0, len(order.Items))}
	for _, it := range order.Items {
		edit.Lines = append(edit.Lines, EditLine{Item: it, Selected: true})
	}
	return edit
}

// Toggle переключает флаг selected у строки с данным drug_id.
// Возвращает false, если такой строки нет.
func (e *PendingInvoiceEdit) Toggle(drugID int64) bool {
	for i := range e.Lines {
		if e.Lines[i].Item.DrugID == drugID {
			e.Lines[i].Selected = !e.Lines[i].Selected
			return true
		}
	}
	return false
}

// SelectedItems - оставшиеся позиции в исходном порядке.
func (e *PendingInvoiceEdit) SelectedItems() []models.OrderItem {
	var out []models.OrderItem
	for _, l := range e.Lines {
		if l.Selected {
			out = append(out, l.Item)
		}
	}
	return out
}

// Clone возвращает глубокую копию.
func (e *PendingInvoiceEdit) Clone() *PendingInvoiceEdit {
	if e == nil {
		return nil
	}
	out := &PendingInvoiceEdit{OrderID: e.OrderID, Lines: make([]EditLine, len(e.Lines))}
	copy(out.Lines, e.Lines)
	return out
}
