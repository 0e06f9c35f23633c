package session

import (
	"time"

	"PharmaBot/internal/cart"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
)

// Session - состояние диалога одного актора. Ключ - Telegram id актора.
// Ровно один payload соответствует роли; у администратора payload нет.
type Session struct {
	ActorID    int64              `json:"actor_id"`
	Role       constants.Role     `json:"role"`
	Stage      constants.Stage    `json:"stage"`
	Patient    *PatientPayload    `json:"patient,omitempty"`
	Consultant *ConsultantPayload `json:"consultant,omitempty"`
	Cashier    *CashierPayload    `json:"cashier,omitempty"`
	Version    int64              `json:"version"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ProfileDraft - анкета пациента, собираемая по шагам до отправки на бэкенд.
type ProfileDraft struct {
	FullName          string   `json:"full_name,omitempty"`
	NationalID        string   `json:"national_id,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Gender            string   `json:"gender,omitempty"`
	Age               int      `json:"age,omitempty"`
	Weight            float64  `json:"weight,omitempty"`
	Height            int      `json:"height,omitempty"`
	Description       string   `json:"description,omitempty"`
	SpecialConditions string   `json:"special_conditions,omitempty"`
	PhotoPaths        []string `json:"photo_paths,omitempty"`
	CreateKey         string   `json:"create_key,omitempty"`
}

// PaymentDraft - данные квитанции до POST /payments/.
type PaymentDraft struct {
	ReceiptPath  string `json:"receipt_path,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	TrackingCode string `json:"tracking_code,omitempty"`
	Key          string `json:"key,omitempty"`
	PaymentID    int64  `json:"payment_id,omitempty"` // платёж создан, статус пациента ещё нет
}

type PatientPayload struct {
	Profile   ProfileDraft             `json:"profile"`
	PatientID int64                    `json:"patient_id,omitempty"`
	OrderID   int64                    `json:"order_id,omitempty"`
	Edit      *cart.PendingInvoiceEdit `json:"edit,omitempty"`
	Payment   PaymentDraft             `json:"payment"`
}

type ConsultantPayload struct {
	UserID            int64                   `json:"user_id,omitempty"`
	SelectedDate      string                  `json:"selected_date,omitempty"`
	PatientID         int64                   `json:"patient_id,omitempty"`
	PatientTelegramID int64                   `json:"patient_telegram_id,omitempty"`
	PatientName       string                  `json:"patient_name,omitempty"`
	CategoryID        int64                   `json:"category_id,omitempty"`
	CategoryDrugs     []int64                 `json:"category_drugs,omitempty"`
	Cart              cart.Cart               `json:"cart,omitempty"`
	DrugInfo          map[int64]cart.DrugInfo `json:"drug_info,omitempty"`
	SubmissionKey     string                  `json:"submission_key,omitempty"`
	PendingOrderID    int64                   `json:"pending_order_id,omitempty"`
}

type CashierPayload struct {
	UserID           int64           `json:"user_id,omitempty"`
	SelectedDate     string          `json:"selected_date,omitempty"`
	CurrentPayment   *models.Payment `json:"current_payment,omitempty"`
	RejectPaymentID  int64           `json:"reject_payment_id,omitempty"`
	PendingPaymentID int64           `json:"pending_payment_id,omitempty"`
}

// New возвращает свежую сессию роли в состоянии idle.
func New(actorID int64, role constants.Role) Session {
	s := Session{ActorID: actorID, Role: role, Stage: constants.STATE_IDLE}
	s.initPayload()
	return s
}

func (s *Session) initPayload() {
	s.Patient, s.Consultant, s.Cashier = nil, nil, nil
	switch s.Role {
	case constants.ROLE_PATIENT:
		s.Patient = &PatientPayload{}
	case constants.ROLE_CONSULTANT:
		s.Consultant = &ConsultantPayload{Cart: cart.Cart{}, DrugInfo: map[int64]cart.DrugInfo{}}
	case constants.ROLE_CASHIER:
		s.Cashier = &CashierPayload{}
	}
}

// Reset сбрасывает сессию в idle своей роли. Версия сохраняется.
func (s Session) Reset() Session {
	s.Stage = constants.STATE_IDLE
	s.initPayload()
	return s
}

// WithRole сбрасывает сессию под новую роль.
func (s Session) WithRole(role constants.Role) Session {
	s.Role = role
	return s.Reset()
}

// WithStage возвращает копию с новым шагом.
func (s Session) WithStage(stage constants.Stage) Session {
	s.Stage = stage
	return s
}

// PatientData возвращает payload пациента, создавая его при необходимости.
func (s *Session) PatientData() *PatientPayload {
	if s.Patient == nil {
		s.Patient = &PatientPayload{}
	}
	return s.Patient
}

func (s *Session) ConsultantData() *ConsultantPayload {
	if s.Consultant == nil {
		s.Consultant = &ConsultantPayload{}
	}
	if s.Consultant.Cart == nil {
		s.Consultant.Cart = cart.Cart{}
	}
	if s.Consultant.DrugInfo == nil {
		s.Consultant.DrugInfo = map[int64]cart.DrugInfo{}
	}
	return s.Consultant
}

func (s *Session) CashierData() *CashierPayload {
	if s.Cashier == nil {
		s.Cashier = &CashierPayload{}
	}
	return s.Cashier
}

// Clone возвращает глубокую копию: обработчик может менять её, не задевая закоммиченную версию.
func (s Session) Clone() Session {
	out := s
	if s.Patient != nil {
		p := *s.Patient
		p.Profile.PhotoPaths = append([]string(nil), s.Patient.Profile.PhotoPaths...)
		p.Edit = s.Patient.Edit.Clone()
		out.Patient = &p
	}
	if s.Consultant != nil {
		c := *s.Consultant
		c.CategoryDrugs = append([]int64(nil), s.Consultant.CategoryDrugs...)
		if s.Consultant.Cart != nil {
			c.Cart = s.Consultant.Cart.Clone()
		}
		if s.Consultant.DrugInfo != nil {
			c.DrugInfo = make(map[int64]cart.DrugInfo, len(s.Consultant.DrugInfo))
			for k, v := range s.Consultant.DrugInfo {
				c.DrugInfo[k] = v
			}
		}
		out.Consultant = &c
	}
	if s.Cashier != nil {
		c := *s.Cashier
		if s.Cashier.CurrentPayment != nil {
			p := *s.Cashier.CurrentPayment
			c.CurrentPayment = &p
		}
		out.Cashier = &c
	}
	return out
}
