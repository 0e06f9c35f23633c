package models

import "time"

// Patient - карточка пациента на стороне бэкенда.
type Patient struct {
	PatientID          int64     `json:"patient_id"`
	FullName           string    `json:"full_name"`
	NationalID         string    `json:"national_id"`
	PhoneNumber        string    `json:"phone_number"`
	Gender             string    `json:"gender"`
	Age                int       `json:"age"`
	Weight             float64   `json:"weight"`
	Height             int       `json:"height"`
	DiseaseDescription string    `json:"disease_description"`
	SpecialConditions  string    `json:"special_conditions"`
	PhotoPaths         []string  `json:"photo_paths"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	User               *User     `json:"user,omitempty"`
	Consultant         *User     `json:"consultant,omitempty"`
}

// TelegramID возвращает Telegram id владельца карточки или 0.
func (p Patient) TelegramID() int64 {
	if p.User == nil {
		return 0
	}
	return p.User.TelegramID
}

// PatientCreate - тело POST /patients/.
type PatientCreate struct {
	TelegramID         int64    `json:"telegram_id"`
	FullName           string   `json:"full_name"`
	NationalID         string   `json:"national_id"`
	PhoneNumber        string   `json:"phone_number"`
	Gender             string   `json:"gender"`
	Age                int      `json:"age"`
	Weight             float64  `json:"weight"`
	Height             int      `json:"height"`
	DiseaseDescription string   `json:"disease_description"`
	SpecialConditions  string   `json:"special_conditions,omitempty"`
	PhotoPaths         []string `json:"photo_paths"`
}

// PatientUpdate - частичное обновление карточки (PATCH /patients/{id}).
type PatientUpdate struct {
	ConsultantID *int64 `json:"consultant_id,omitempty"`
}
