package constants

import "time"

// Role - роль актора, как её возвращает бэкенд (role.roleName).
// Role is the actor role exactly as the backend spells it.
type Role string

const (
	ROLE_PATIENT    Role = "Patient"
	ROLE_CONSULTANT Role = "Consultant"
	ROLE_CASHIER    Role = "Casher" // написание бэкенда / backend spelling
	ROLE_ADMIN      Role = "Admin"
)

// ParseRole приводит строку бэкенда к Role. Неизвестные роли считаются пациентом.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case ROLE_CONSULTANT, ROLE_CASHIER, ROLE_ADMIN, ROLE_PATIENT:
		return Role(raw)
	}
	return ROLE_PATIENT
}

// Stage - именованный шаг в машине состояний конкретной роли.
// Stage is a named step in a role's workflow.
type Stage string

const STATE_IDLE Stage = "idle"

// Patient States
// Состояния пациента
const (
	STATE_PATIENT_FULL_NAME          Stage = "patient_full_name"
	STATE_PATIENT_NATIONAL_ID        Stage = "patient_national_id"
	STATE_PATIENT_PHONE              Stage = "patient_phone"
	STATE_PATIENT_GENDER             Stage = "patient_gender"
	STATE_PATIENT_AGE                Stage = "patient_age"
	STATE_PATIENT_WEIGHT             Stage = "patient_weight"
	STATE_PATIENT_HEIGHT             Stage = "patient_height"
	STATE_PATIENT_DESCRIPTION        Stage = "patient_description"
	STATE_PATIENT_SPECIAL_CONDITIONS Stage = "patient_special_conditions"
	STATE_PATIENT_PHOTOS             Stage = "patient_photos"

	STATE_PATIENT_AWAITING_CONSULTATION Stage = "patient_awaiting_consultation"
	STATE_PATIENT_AWAITING_APPROVAL     Stage = "patient_awaiting_invoice_approval"
	STATE_PATIENT_EDITING_INVOICE       Stage = "patient_editing_invoice"

	STATE_PATIENT_PAYMENT_RECEIPT  Stage = "patient_payment_receipt"
	STATE_PATIENT_PAYMENT_AMOUNT   Stage = "patient_payment_amount"
	STATE_PATIENT_PAYMENT_TRACKING Stage = "patient_payment_tracking"
	STATE_PATIENT_PAYMENT_RETRY    Stage = "patient_payment_status_retry"
	STATE_PATIENT_PAYMENT_SENT     Stage = "patient_payment_submitted"
)

// Consultant States
// Состояния консультанта
const (
	STATE_CONSULTANT_DATES        Stage = "consultant_listing_dates"
	STATE_CONSULTANT_PATIENTS     Stage = "consultant_listing_patients"
	STATE_CONSULTANT_CHAT         Stage = "consultant_chat"
	STATE_CONSULTANT_CATEGORIES   Stage = "consultant_categories"
	STATE_CONSULTANT_DRUGS        Stage = "consultant_drugs"
	STATE_CONSULTANT_REVIEW       Stage = "consultant_review"
	STATE_CONSULTANT_STATUS_RETRY Stage = "consultant_status_retry"
)

// Cashier States
// Состояния кассира
const (
	STATE_CASHIER_DATES       Stage = "cashier_listing_dates"
	STATE_CASHIER_PAYMENTS    Stage = "cashier_listing_payments"
	STATE_CASHIER_VERIFYING   Stage = "cashier_verifying"
	STATE_CASHIER_REJECTION   Stage = "cashier_rejection_reason"
	STATE_CASHIER_ISSUE_RETRY Stage = "cashier_issue_retry"
)

// Статусы пациента на стороне бэкенда.
// Remote patient statuses.
const (
	PATIENT_STATUS_AWAITING_CONSULTATION = "awaiting_consultation"
	PATIENT_STATUS_AWAITING_APPROVAL     = "awaiting_invoice_approval"
	PATIENT_STATUS_AWAITING_PAYMENT      = "awaiting_payment"
	PATIENT_STATUS_PAYMENT_SUBMITTED     = "payment_submitted"
	PATIENT_STATUS_PAYMENT_REJECTED      = "payment_rejected"
	PATIENT_STATUS_PAYMENT_ACCEPTED      = "payment_accepted"
)

// Статусы заказа.
const (
	ORDER_STATUS_AWAITING_APPROVAL = "awaiting_approval"
	ORDER_STATUS_APPROVED          = "approved"
	ORDER_STATUS_PAID              = "paid"
)

// Статусы платежа (значения бэкенда).
const (
	PAYMENT_STATUS_PENDING  = "PENDING"
	PAYMENT_STATUS_ACCEPTED = "ACCEPTED"
	PAYMENT_STATUS_REJECTED = "REJECTED"
)

// Назначения файлов для Media Relay.
const (
	MEDIA_PURPOSE_PROFILE = "profile"
	MEDIA_PURPOSE_RECEIPT = "receipt"
	MEDIA_PURPOSE_CHAT    = "chat"
)

// Callback verbs. Кнопка отправляет "<verb>" или "<verb>_<id>".
const (
	CB_CANCEL = "cancel"

	CB_START_REGISTRATION   = "start_registration"
	CB_GENDER_MALE          = "gender_male"
	CB_GENDER_FEMALE        = "gender_female"
	CB_SKIP_CONDITIONS      = "skip_conditions"
	CB_ADD_ANOTHER_PHOTO    = "add_another_photo"
	CB_FINISH_REGISTRATION  = "finish_registration"
	CB_INVOICE_APPROVE      = "invoice_approve"
	CB_INVOICE_EDIT         = "invoice_edit"
	CB_INVOICE_TOGGLE       = "invoice_toggle"
	CB_INVOICE_EDIT_CONFIRM = "invoice_edit_confirm"
	CB_INVOICE_EDIT_CANCEL  = "invoice_edit_cancel"
	CB_INVOICE_VIEW         = "invoice_view"
	CB_PAYMENT_RETRY_STATUS = "payment_retry_status"

	CB_CONSULTANT_DATE         = "consultant_date"
	CB_CONSULTANT_PATIENT      = "consultant_patient"
	CB_CONSULTANT_BACK_DATES   = "consultant_back_dates"
	CB_CONSULTANT_INVOICE_REQ  = "consultant_invoice_request"
	CB_CONSULTANT_BACK_CHAT    = "consultant_back_chat"
	CB_CATEGORY                = "category"
	CB_DRUG_ADD                = "drug_add"
	CB_DRUG_REMOVE             = "drug_remove"
	CB_CONSULTANT_BACK_CATS    = "consultant_back_categories"
	CB_CONSULTANT_REVIEW       = "consultant_review_cart"
	CB_CONSULTANT_CLEAR_CART   = "consultant_clear_cart"
	CB_CONSULTANT_SUBMIT       = "consultant_submit_order"
	CB_CONSULTANT_RETRY_STATUS = "consultant_retry_status"

	CB_CASHIER_START       = "casher_start"
	CB_CASHIER_DATE        = "casher_date"
	CB_CASHIER_PAYMENT     = "casher_payment"
	CB_CASHIER_REPORT      = "casher_report"
	CB_CASHIER_APPROVE     = "approve_payment"
	CB_CASHIER_REJECT      = "reject_payment"
	CB_CASHIER_BACK_DATES  = "casher_back_to_dates"
	CB_CASHIER_BACK_LIST   = "casher_back_to_list"
	CB_CASHIER_CANCEL_REJ  = "cancel_rejection"
	CB_CASHIER_ISSUE_RETRY = "casher_issue_retry"
	CB_NOOP                = "noop"
)

// CallbackVerbs перечисляет все известные глаголы; парсер действий ищет самый длинный префикс.
var CallbackVerbs = []string{
	CB_CANCEL,
	CB_START_REGISTRATION, CB_GENDER_MALE, CB_GENDER_FEMALE, CB_SKIP_CONDITIONS,
	CB_ADD_ANOTHER_PHOTO, CB_FINISH_REGISTRATION,
	CB_INVOICE_APPROVE, CB_INVOICE_EDIT, CB_INVOICE_TOGGLE, CB_INVOICE_EDIT_CONFIRM, CB_INVOICE_EDIT_CANCEL,
	CB_INVOICE_VIEW, CB_PAYMENT_RETRY_STATUS,
	CB_CONSULTANT_DATE, CB_CONSULTANT_PATIENT, CB_CONSULTANT_BACK_DATES, CB_CONSULTANT_INVOICE_REQ,
	CB_CONSULTANT_BACK_CHAT, CB_CATEGORY, CB_DRUG_ADD, CB_DRUG_REMOVE, CB_CONSULTANT_BACK_CATS,
	CB_CONSULTANT_REVIEW, CB_CONSULTANT_CLEAR_CART, CB_CONSULTANT_SUBMIT, CB_CONSULTANT_RETRY_STATUS,
	CB_CASHIER_START, CB_CASHIER_DATE, CB_CASHIER_PAYMENT, CB_CASHIER_REPORT, CB_CASHIER_APPROVE,
	CB_CASHIER_REJECT, CB_CASHIER_BACK_DATES, CB_CASHIER_BACK_LIST, CB_CASHIER_CANCEL_REJ,
	CB_CASHIER_ISSUE_RETRY, CB_NOOP,
}

// Лимиты и значения по умолчанию.
const (
	MAX_PROFILE_PHOTOS       = 10
	TRANSCRIPT_PREVIEW_LIMIT = 10
	DEFAULT_TOKEN_TTL        = 30 * time.Minute
	DEFAULT_API_TIMEOUT      = 15 * time.Second
	DEFAULT_CALLBACK_GAP     = 500 * time.Millisecond
	CURRENCY_LABEL           = "ریال"
)

// RoleDisplayMap - названия ролей для пользователя (на персидском).
var RoleDisplayMap = map[Role]string{
	ROLE_PATIENT:    "بیمار",
	ROLE_CONSULTANT: "مشاور",
	ROLE_CASHIER:    "صندوق‌دار",
	ROLE_ADMIN:      "مدیر",
}

// GenderDisplayMap - отображение пола.
var GenderDisplayMap = map[string]string{
	"male":   "مرد",
	"female": "زن",
}
