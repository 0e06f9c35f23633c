package handlers

import (
	"context"
	"errors"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/gateway"
	"PharmaBot/internal/media"
	"PharmaBot/internal/session"
)

// Тексты ошибок для пользователя. Сырые ошибки в чат не попадают.
const (
	msgTransientError = "⚠️ ارتباط با سرور برقرار نشد. لطفاً چند لحظه دیگر دوباره تلاش کنید."
	msgNotFoundError  = "⚠️ اطلاعات مورد نظر یافت نشد. برای شروع دوباره /start را بزنید."
	msgMediaError     = "⚠️ دریافت فایل ناموفق بود. لطفاً دوباره ارسال کنید."
	msgUnknownError   = "⚠️ خطای غیرمنتظره‌ای رخ داد. لطفاً دوباره تلاش کنید یا /cancel را بزنید."
	msgThrottled      = "لطفاً کمی صبر کنید..."
	msgCancelled      = "عملیات لغو شد."
)

// Классы ошибок обработчиков (метка метрики).
const (
	failureTransient = "transient"
	failureNotFound  = "not_found"
	failureMedia     = "media"
	failureUnknown   = "unknown"
)

func (bh *BotHandler) registerRoutes() {
	bh.routes = map[routeKey]StageHandler{
		{constants.ROLE_PATIENT, constants.STATE_IDLE}:                       bh.patientIdle,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_FULL_NAME}:          bh.patientFullName,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_NATIONAL_ID}:        bh.patientNationalID,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PHONE}:              bh.patientPhone,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_GENDER}:             bh.patientGender,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_AGE}:                bh.patientAge,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_WEIGHT}:             bh.patientWeight,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_HEIGHT}:             bh.patientHeight,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_DESCRIPTION}:        bh.patientDescription,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_SPECIAL_CONDITIONS}: bh.patientSpecialConditions,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PHOTOS}:             bh.patientPhotos,

		{constants.ROLE_PATIENT, constants.STATE_PATIENT_AWAITING_CONSULTATION}: bh.patientAwaitingConsultation,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_AWAITING_APPROVAL}:     bh.patientAwaitingApproval,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_EDITING_INVOICE}:       bh.patientEditingInvoice,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PAYMENT_RECEIPT}:       bh.patientPaymentReceipt,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PAYMENT_AMOUNT}:        bh.patientPaymentAmount,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PAYMENT_TRACKING}:      bh.patientPaymentTracking,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PAYMENT_RETRY}:         bh.patientPaymentStatusRetry,
		{constants.ROLE_PATIENT, constants.STATE_PATIENT_PAYMENT_SENT}:          bh.patientPaymentSubmitted,

		{constants.ROLE_CONSULTANT, constants.STATE_IDLE}:                    bh.consultantIdle,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_DATES}:        bh.consultantListingDates,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_PATIENTS}:     bh.consultantListingPatients,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_CHAT}:         bh.consultantChat,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_CATEGORIES}:   bh.consultantCategories,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_DRUGS}:        bh.consultantDrugs,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_REVIEW}:       bh.consultantReview,
		{constants.ROLE_CONSULTANT, constants.STATE_CONSULTANT_STATUS_RETRY}: bh.consultantStatusRetry,

		{constants.ROLE_CASHIER, constants.STATE_IDLE}:                bh.cashierIdle,
		{constants.ROLE_CASHIER, constants.STATE_CASHIER_DATES}:       bh.cashierListingDates,
		{constants.ROLE_CASHIER, constants.STATE_CASHIER_PAYMENTS}:    bh.cashierListingPayments,
		{constants.ROLE_CASHIER, constants.STATE_CASHIER_VERIFYING}:   bh.cashierVerifying,
		{constants.ROLE_CASHIER, constants.STATE_CASHIER_REJECTION}:   bh.cashierRejectionReason,
		{constants.ROLE_CASHIER, constants.STATE_CASHIER_ISSUE_RETRY}: bh.cashierIssueRetry,

		{constants.ROLE_ADMIN, constants.STATE_IDLE}: bh.adminIdle,
	}
}

// HandleEvent обрабатывает одно событие актора. Вызывается из пула,
// поэтому события одного актора приходят сюда строго по очереди.
func (bh *BotHandler) HandleEvent(ctx context.Context, ev Event) {
	if ev.IsCallback() {
		if !bh.throttle.Allow(ev.ActorID) {
			bh.Deps.Metrics.CallbackThrottled()
			bh.answerCallback(ctx, ev, msgThrottled)
			return
		}
		// Отвечаем на коллбэк сразу, чтобы убрать "часики" на кнопке.
		bh.answerCallback(ctx, ev, "")
	}

	ctx, box := withOutbox(ctx)
	var role constants.Role
	next, err := bh.Deps.Sessions.Update(ctx, ev.ActorID, func(s session.Session) (session.Session, error) {
		out, err := bh.route(ctx, ev, s)
		role = out.Role
		return out, err
	})
	bh.Deps.Metrics.ObserveEvent(string(role), ev.Kind())
	if err != nil {
		bh.reportError(ctx, ev, next, err)
		return
	}
	bh.Deps.Metrics.ObserveTransition(string(next.Role), string(next.Stage))
	if failed := box.flush(ctx, bh.log); failed > 0 {
		bh.log.Warnf("[ROUTER] Актор %d: %d исходящих сообщений не доставлено", ev.ActorID, failed)
	}
}

func (bh *BotHandler) answerCallback(ctx context.Context, ev Event, text string) {
	if err := bh.Deps.Transport.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		bh.log.Debugf("[CALLBACK_HANDLER] Ошибка ответа на CallbackQuery %s: %v", ev.CallbackID, err)
	}
}

// route - чистый переход: определение роли, отмена, диспетчеризация.
func (bh *BotHandler) route(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	fresh := s.Role == "" || s.Stage == constants.STATE_IDLE || ev.Command == "start"
	if fresh {
		if ev.Command == "start" {
			s = s.Reset()
		}
		var err error
		if s, err = bh.resolveRole(ctx, ev, s); err != nil {
			return s, err
		}
	}

	if ev.Command == "cancel" || ev.Is(constants.CB_CANCEL) {
		bh.log.Infof("[ROUTER] Актор %d отменил операцию на шаге %s", ev.ActorID, s.Stage)
		s = s.Reset()
		bh.showMenu(ctx, ev, s, msgCancelled)
		return s, nil
	}

	handler, ok := bh.routes[routeKey{s.Role, s.Stage}]
	if !ok {
		bh.log.Warnf("[ROUTER] Неизвестная пара (%s, %s) для актора %d, сброс в idle", s.Role, s.Stage, ev.ActorID)
		s = s.Reset()
		handler, ok = bh.routes[routeKey{s.Role, s.Stage}]
		if !ok {
			return s, nil
		}
	}
	return handler(ctx, ev, s)
}

// resolveRole спрашивает роль у бэкенда. 404 означает пациента.
// Смена роли сбрасывает сессию под новую роль.
func (bh *BotHandler) resolveRole(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	role := constants.ROLE_PATIENT
	var userID int64
	user, err := bh.Deps.Gateway.GetUserByTelegramID(ctx, ev.ActorID)
	switch {
	case gateway.IsNotFound(err):
	case err != nil:
		return s, err
	default:
		role = constants.ParseRole(user.Role.RoleName)
		userID = user.UserID
	}
	if role != s.Role {
		bh.log.Infof("[ROUTER] Актор %d: роль %q -> %q", ev.ActorID, s.Role, role)
		s = s.WithRole(role)
	}
	switch role {
	case constants.ROLE_CONSULTANT:
		s.ConsultantData().UserID = userID
	case constants.ROLE_CASHIER:
		s.CashierData().UserID = userID
	}
	return s, nil
}

// reportError классифицирует ошибку и отправляет понятный текст. Сессия не закоммичена.
func (bh *BotHandler) reportError(ctx context.Context, ev Event, s session.Session, err error) {
	class, text := classifyError(err)
	bh.Deps.Metrics.ObserveFailure(class)
	if class == failureUnknown {
		bh.log.Errorf("[ROUTER] Ошибка обработки события актора %d (роль %s, шаг %s): %v", ev.ActorID, s.Role, s.Stage, err)
	} else {
		bh.log.Warnf("[ROUTER] Ошибка (%s) для актора %d на шаге %s: %v", class, ev.ActorID, s.Stage, err)
	}
	bh.sendErrorMessageHelper(ctx, ev.ChatID, text)
}

func classifyError(err error) (class, text string) {
	switch {
	case errors.Is(err, media.ErrDownload):
		return failureMedia, msgMediaError
	case gateway.IsTransient(err), errors.Is(err, session.ErrStaleVersion):
		return failureTransient, msgTransientError
	case gateway.IsNotFound(err):
		return failureNotFound, msgNotFoundError
	default:
		return failureUnknown, msgUnknownError
	}
}
