package models

import "time"

// OrderItem - строка заказа. При создании бэкенду нужны только drug_id и qty,
// в ответах он дополняет их названием и ценой за единицу.
type OrderItem struct {
	DrugID    int64  `json:"drug_id"`
	Qty       int    `json:"qty"`
	DrugName  string `json:"drug_name,omitempty"`
	UnitPrice Price  `json:"unit_price,omitempty"`
}

// Order - удалённый заказ. Итоги бэкенда здесь не хранятся, бот их только отображает.
type Order struct {
	OrderID      int64       `json:"order_id"`
	PatientID    int64       `json:"patient_id"`
	ConsultantID int64       `json:"consultant_id"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
}

// OrderCreate - тело POST /orders/.
type OrderCreate struct {
	PatientID    int64       `json:"patient_id"`
	ConsultantID int64       `json:"consultant_id"`
	Items        []OrderItem `json:"items"`
}

// OrderPatch - тело PATCH /orders/{id}; nil-поля не отправляются.
type OrderPatch struct {
	Items  []OrderItem `json:"items,omitempty"`
	Status string      `json:"status,omitempty"`
}
