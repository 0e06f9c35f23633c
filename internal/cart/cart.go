// Package cart содержит корзину назначений консультанта и копию счёта для редактирования пациентом.
// Всё здесь чистая логика: удалённых вызовов нет.
package cart

import (
	"sort"

	"PharmaBot/internal/models"
)

// Cart - drug_id -> quantity. Ключ присутствует только при quantity >= 1.
type Cart map[int64]int

// DrugInfo - кэш каталога, заполняемый по мере просмотра. Корзина его не меняет.
type DrugInfo struct {
	Name      string       `json:"name"`
	UnitPrice models.Price `json:"unit_price"`
}

// Increment добавляет одну единицу препарата.
func (c Cart) Increment(drugID int64) int {
	c[drugID]++
	return c[drugID]
}

// Decrement убирает одну единицу; последняя единица удаляет ключ.
// Для отсутствующего ключа ничего не делает.
func (c Cart) Decrement(drugID int64) int {
	qty, ok := c[drugID]
	if !ok {
		return 0
	}
	if qty <= 1 {
		delete(c, drugID)
		return 0
	}
	c[drugID] = qty - 1
	return qty - 1
}

// Quantity возвращает текущее количество (0, если препарата нет).
func (c Cart) Quantity(drugID int64) int {
	return c[drugID]
}

// Units - общее количество единиц в корзине.
func (c Cart) Units() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}

// Clone возвращает независимую копию.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// DrugIDs - отсортированные ключи корзины.
func (c Cart) DrugIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Items строит позиции заказа {drug_id, qty} в порядке drug_id.
func (c Cart) Items() []models.OrderItem {
	ids := c.DrugIDs()
	items := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.OrderItem{DrugID: id, Qty: c[id]})
	}
	return items
}
