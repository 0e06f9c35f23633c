package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PharmaBot/internal/config"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/media"
	"PharmaBot/internal/metrics"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/telegram_api"
)

// Gateway - удалённые вызовы бэкенда, которыми пользуются обработчики.
// Реализуется *gateway.Client; в тестах подменяется фейком.
type Gateway interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	CreatePatient(ctx context.Context, p models.PatientCreate, key string) (*models.Patient, error)
	GetPatient(ctx context.Context, patientID int64) (*models.Patient, error)
	GetPatientByTelegramID(ctx context.Context, telegramID int64) (*models.Patient, error)
	UpdatePatient(ctx context.Context, patientID int64, upd models.PatientUpdate) (*models.Patient, error)
	UpdatePatientStatus(ctx context.Context, patientID int64, status string) error
	UnassignedDates(ctx context.Context) ([]string, error)
	PatientsByDate(ctx context.Context, date string) ([]models.Patient, error)

	CreateOrder(ctx context.Context, o models.OrderCreate, key string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	PatchOrder(ctx context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error)
	LatestOrder(ctx context.Context, patientID int64, status string) (*models.Order, error)

	DiseaseTypes(ctx context.Context) ([]models.DiseaseType, error)
	Drugs(ctx context.Context, diseaseTypeID int64) ([]models.Drug, error)

	CreatePayment(ctx context.Context, p models.PaymentCreate, key string) (*models.Payment, error)
	ReviewPayment(ctx context.Context, paymentID int64, review models.PaymentReview) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error)
	PendingPaymentDates(ctx context.Context) ([]string, error)
	PendingPayments(ctx context.Context, date string) ([]models.Payment, error)

	AppendMessage(ctx context.Context, m models.ChatMessage) error
	Transcript(ctx context.Context, patientID int64) ([]models.ChatMessage, error)
}

// MediaStore - часть Media Relay, нужная обработчикам.
type MediaStore interface {
	Store(ctx context.Context, att media.Attachment, ownerID int64, purpose string) (string, error)
	Deliver(ctx context.Context, path string, dest int64, kind, caption string) error
	DeliverAlbum(ctx context.Context, paths []string, dest int64) (int, error)
}

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
type HandlerDependencies struct {
	Config    *config.Config
	Transport telegram_api.Transport
	Sessions  *session.Manager
	Gateway   Gateway
	Media     MediaStore
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// Now и NewKey подменяются в тестах.
	Now    func() time.Time
	NewKey func() string
}

// StageHandler - один переход машины состояний. Ошибка означает: сессию не коммитить.
type StageHandler func(ctx context.Context, ev Event, s session.Session) (session.Session, error)

type routeKey struct {
	role  constants.Role
	stage constants.Stage
}

// BotHandler инкапсулирует логику обработки сообщений и коллбэков.
type BotHandler struct {
	Deps     HandlerDependencies
	log      *zap.SugaredLogger
	routes   map[routeKey]StageHandler
	throttle *Throttle
}

// NewBotHandler создает новый экземпляр BotHandler.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	if deps.Config == nil || deps.Transport == nil || deps.Sessions == nil || deps.Gateway == nil || deps.Media == nil {
		// Без этих зависимостей бот работать не сможет.
		panic("Не все зависимости для BotHandler были предоставлены.")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewKey == nil {
		deps.NewKey = func() string { return uuid.NewString() }
	}
	bh := &BotHandler{
		Deps:     deps,
		log:      deps.Logger.Named("handlers").Sugar(),
		throttle: NewThrottle(deps.Config.CallbackThrottle),
	}
	bh.registerRoutes()
	return bh
}
