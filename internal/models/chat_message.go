package models

import "time"

// Message kinds in the consultation transcript.
const (
	MessageKindText  = "text"
	MessageKindPhoto = "photo"
	MessageKindVoice = "voice"
	MessageKindFile  = "document"
)

// ChatMessage - запись в журнале переписки пациента и консультанта.
// Журнал на бэкенде является единственной долговременной копией переписки.
type ChatMessage struct {
	MessageID        int64     `json:"message_id,omitempty"`
	PatientID        int64     `json:"patient_id"`
	SenderTelegramID int64     `json:"sender_telegram_id"`
	SenderRole       string    `json:"sender_role"`
	Kind             string    `json:"kind"`
	Content          string    `json:"content,omitempty"`
	FilePath         string    `json:"file_path,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
}
