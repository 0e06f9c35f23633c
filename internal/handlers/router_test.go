package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PharmaBot/internal/config"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/media"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
)

const (
	patientTG    int64 = 1001
	consultantTG int64 = 2001
	cashierTG    int64 = 3001
	adminTG      int64 = 4001
)

func TestRoute_UnknownUserIsPatient(t *testing.T) {
	h := newHarness(t)

	h.text(patientTG, "/start")

	s := h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Equal(t, constants.ROLE_PATIENT, s.Role)
	assert.Equal(t, int64(1), s.Version)
	last := h.tg.lastTo(patientTG)
	assert.Equal(t, promptWelcome, last.Text)
	assert.True(t, hasButton(last.Keyboard, constants.CB_START_REGISTRATION))
}

func TestRoute_StaffRoleFromBackend(t *testing.T) {
	h := newHarness(t)
	h.gw.addUser(models.User{UserID: 7, TelegramID: consultantTG, FullName: "دکتر رحیمی", Role: models.RoleRef{RoleName: "Consultant"}})

	h.text(consultantTG, "/start")

	s := h.requireStage(t, consultantTG, constants.STATE_IDLE)
	assert.Equal(t, constants.ROLE_CONSULTANT, s.Role)
	require.NotNil(t, s.Consultant)
	assert.Equal(t, int64(7), s.Consultant.UserID)
	assert.Equal(t, msgNoWaitingPatients, h.tg.lastTo(consultantTG).Text)
}

func TestRoute_AdminGreeting(t *testing.T) {
	h := newHarness(t)
	h.gw.addUser(models.User{UserID: 1, TelegramID: adminTG, Role: models.RoleRef{RoleName: "Admin"}})

	h.text(adminTG, "/start")
	h.text(adminTG, "گزارش امروز")

	s := h.session(t, adminTG)
	assert.Equal(t, constants.ROLE_ADMIN, s.Role)
	assert.Nil(t, s.Patient)
	assert.Nil(t, s.Consultant)
	assert.Nil(t, s.Cashier)
	texts := h.tg.textsTo(adminTG)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "مدیر")
	assert.Contains(t, texts[1], "گزارش امروز")
}

func TestRoute_RoleChangeResetsSession(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)
	h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)

	// Бэкенд сделал актора кассиром; /start подхватывает новую роль.
	h.gw.addUser(models.User{UserID: 11, TelegramID: patientTG, Role: models.RoleRef{RoleName: "Casher"}})
	h.text(patientTG, "/start")

	s := h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Equal(t, constants.ROLE_CASHIER, s.Role)
	assert.Nil(t, s.Patient)
	require.NotNil(t, s.Cashier)
	assert.Equal(t, int64(11), s.Cashier.UserID)
}

func TestHandleEvent_TransientErrorDoesNotCommit(t *testing.T) {
	h := newHarness(t)
	h.gw.failOnce("GetPatientByTelegramID", unavailable("patients.by_telegram"))

	h.text(patientTG, "/start")

	s := h.session(t, patientTG)
	assert.Equal(t, int64(0), s.Version, "сессия не закоммичена")
	assert.Equal(t, constants.Role(""), s.Role)
	assert.Equal(t, []string{msgTransientError}, h.tg.textsTo(patientTG))

	// Повтор после восстановления бэкенда проходит обычным путём.
	h.text(patientTG, "/start")
	s = h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Equal(t, int64(1), s.Version)
	assert.Equal(t, promptWelcome, h.tg.lastTo(patientTG).Text)
}

func TestHandleEvent_MediaFailureKeepsStage(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)
	h.text(patientTG, "سارا احمدی")
	h.text(patientTG, "0499370899")
	h.text(patientTG, "09123456789")
	h.press(patientTG, constants.CB_GENDER_FEMALE)
	h.text(patientTG, "30")
	h.text(patientTG, "60")
	h.text(patientTG, "170")
	h.text(patientTG, "سردرد مزمن")
	h.press(patientTG, constants.CB_SKIP_CONDITIONS)
	before := h.requireStage(t, patientTG, constants.STATE_PATIENT_PHOTOS)
	h.tg.reset()

	h.media.storeErr = fmt.Errorf("%w: telegram timeout", media.ErrDownload)
	h.photo(patientTG, "p1")

	after := h.requireStage(t, patientTG, constants.STATE_PATIENT_PHOTOS)
	assert.Equal(t, before.Version, after.Version)
	assert.Empty(t, after.Patient.Profile.PhotoPaths)
	assert.Equal(t, []string{msgMediaError}, h.tg.textsTo(patientTG))
}

func TestRoute_CancelResetsToRoleMenu(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)
	h.text(patientTG, "سارا احمدی")
	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_NATIONAL_ID)
	assert.Equal(t, "سارا احمدی", s.Patient.Profile.FullName)

	h.text(patientTG, "/cancel")

	s = h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Empty(t, s.Patient.Profile.FullName)
	last := h.tg.lastTo(patientTG)
	assert.Contains(t, last.Text, msgCancelled)
	assert.True(t, hasButton(last.Keyboard, constants.CB_START_REGISTRATION))
}

func TestRoute_CancelButton(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)

	h.press(patientTG, constants.CB_CANCEL)

	h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Contains(t, h.tg.lastTo(patientTG).Text, msgCancelled)
}

func TestRoute_UnknownStageFallsBackToIdle(t *testing.T) {
	h := newHarness(t)
	_, err := h.bh.Deps.Sessions.Update(context.Background(), patientTG, func(s session.Session) (session.Session, error) {
		s = s.WithRole(constants.ROLE_PATIENT)
		return s.WithStage(constants.Stage("removed_stage")), nil
	})
	require.NoError(t, err)

	h.text(patientTG, "سلام")

	h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Equal(t, promptWelcome, h.tg.lastTo(patientTG).Text)
}

func TestHandleEvent_ThrottledCallback(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.CallbackThrottle = time.Hour })

	h.press(patientTG, constants.CB_START_REGISTRATION)
	first := h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)

	h.press(patientTG, constants.CB_CANCEL)

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)
	assert.Equal(t, first.Version, s.Version)
	answers := h.tg.answers()
	require.Len(t, answers, 2)
	assert.Empty(t, answers[0].Text)
	assert.Equal(t, msgThrottled, answers[1].Text)

	// Текст ограничению не подлежит.
	h.text(patientTG, "سارا احمدی")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_NATIONAL_ID)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		class string
		text  string
	}{
		{"media", fmt.Errorf("store: %w", media.ErrDownload), failureMedia, msgMediaError},
		{"backend down", unavailable("orders.create"), failureTransient, msgTransientError},
		{"stale session", fmt.Errorf("persist: %w", session.ErrStaleVersion), failureTransient, msgTransientError},
		{"not found", notFound("patients.get"), failureNotFound, msgNotFoundError},
		{"other", errors.New("boom"), failureUnknown, msgUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, text := classifyError(tt.err)
			assert.Equal(t, tt.class, class)
			assert.Equal(t, tt.text, text)
		})
	}
}
