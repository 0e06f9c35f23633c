package models

import "time"

// Payment - платёж пациента, ожидающий проверки кассиром.
type Payment struct {
	PaymentID    int64     `json:"payment_list_id"`
	OrderID      int64     `json:"order_id"`
	PatientID    int64     `json:"patient_id"`
	FullName     string    `json:"full_name"`
	TelegramID   int64     `json:"telegram_id"`
	Value        Price     `json:"payment_value"`
	TrackingCode string    `json:"tracking_code"`
	ReceiptPath  string    `json:"payment_path_file"`
	Status       string    `json:"payment_status"`
	StatusReason string    `json:"payment_status_explain,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentCreate - тело POST /payments/.
type PaymentCreate struct {
	OrderID      int64  `json:"order_id"`
	PatientID    int64  `json:"patient_id"`
	Amount       int64  `json:"payment_value"`
	TrackingCode string `json:"tracking_code"`
	ReceiptPath  string `json:"payment_path_file"`
}

// PaymentReview - тело PATCH /payments/{id}.
type PaymentReview struct {
	Status  string `json:"payment_status"`
	Explain string `json:"payment_status_explain,omitempty"`
	UserID  int64  `json:"user_id"`
}
