package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/models"
)

func TestPatient_Registration(t *testing.T) {
	h := newHarness(t)

	h.press(patientTG, constants.CB_START_REGISTRATION)
	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)
	assert.Equal(t, "key-1", s.Patient.Profile.CreateKey)

	h.text(patientTG, "ab")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)
	h.text(patientTG, "سارا   احمدی")
	h.text(patientTG, "0499370898")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_NATIONAL_ID)
	h.text(patientTG, "0499370899")
	h.text(patientTG, "09123456789")
	h.text(patientTG, "زن")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_GENDER)
	h.press(patientTG, constants.CB_GENDER_FEMALE)
	h.text(patientTG, "سی")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_AGE)
	h.text(patientTG, "30")
	h.text(patientTG, "60.5")
	h.text(patientTG, "170")
	h.text(patientTG, "سردرد مزمن همراه با حالت تهوع")
	h.text(patientTG, "حساسیت به پنی‌سیلین")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PHOTOS)

	h.text(patientTG, "این هم عکس")
	assert.Equal(t, promptPhotoOnly, h.tg.lastTo(patientTG).Text)
	h.photo(patientTG, "p1")
	h.photo(patientTG, "p1")
	h.press(patientTG, constants.CB_ADD_ANOTHER_PHOTO)
	h.photo(patientTG, "p2")
	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_PHOTOS)
	assert.Equal(t, []string{"1001/profile/p1.jpg", "1001/profile/p2.jpg"}, s.Patient.Profile.PhotoPaths)

	h.press(patientTG, constants.CB_FINISH_REGISTRATION)

	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_CONSULTATION)
	assert.Equal(t, int64(5001), s.Patient.PatientID)
	assert.Empty(t, s.Patient.Profile.FullName)

	require.Len(t, h.gw.createdPatients, 1)
	created := h.gw.createdPatients[0]
	assert.Equal(t, models.PatientCreate{
		TelegramID:         patientTG,
		FullName:           "سارا احمدی",
		NationalID:         "0499370899",
		PhoneNumber:        "09123456789",
		Gender:             "female",
		Age:                30,
		Weight:             60.5,
		Height:             170,
		DiseaseDescription: "سردرد مزمن همراه با حالت تهوع",
		SpecialConditions:  "حساسیت به پنی‌سیلین",
		PhotoPaths:         []string{"1001/profile/p1.jpg", "1001/profile/p2.jpg"},
	}, created)
	assert.Equal(t, int64(5001), h.gw.keys["key-1"])
}

func TestPatient_RegistrationRetryReusesKey(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)
	for _, in := range []string{"سارا احمدی", "0499370899", "09123456789"} {
		h.text(patientTG, in)
	}
	h.press(patientTG, constants.CB_GENDER_FEMALE)
	for _, in := range []string{"30", "60", "170", "سردرد مزمن"} {
		h.text(patientTG, in)
	}
	h.press(patientTG, constants.CB_SKIP_CONDITIONS)

	h.gw.failOnce("CreatePatient", unavailable("patients.create"))
	h.press(patientTG, constants.CB_FINISH_REGISTRATION)
	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_PHOTOS)
	assert.Equal(t, "سارا احمدی", s.Patient.Profile.FullName, "черновик не потерян")
	assert.Equal(t, msgTransientError, h.tg.lastTo(patientTG).Text)

	h.press(patientTG, constants.CB_FINISH_REGISTRATION)
	h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_CONSULTATION)
	assert.Equal(t, 2, h.gw.callCount("CreatePatient"))
	require.Len(t, h.gw.createdPatients, 1)
	assert.Empty(t, h.gw.createdPatients[0].SpecialConditions)
	assert.Empty(t, h.gw.createdPatients[0].PhotoPaths)
}

func TestPatient_ConcurrentMessagesAreSerialized(t *testing.T) {
	h := newHarness(t)
	h.press(patientTG, constants.CB_START_REGISTRATION)
	h.text(patientTG, "سارا احمدی")
	h.text(patientTG, "0499370899")
	h.text(patientTG, "09123456789")
	h.press(patientTG, constants.CB_GENDER_FEMALE)
	before := h.requireStage(t, patientTG, constants.STATE_PATIENT_AGE)

	var wg sync.WaitGroup
	for _, in := range []string{"30", "31"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			h.bh.HandleEvent(context.Background(), textEvent(patientTG, text))
		}(in)
	}
	wg.Wait()

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_HEIGHT)
	assert.Equal(t, before.Version+2, s.Version)
	profile := s.Patient.Profile
	assert.ElementsMatch(t, []float64{30, 31}, []float64{float64(profile.Age), profile.Weight})
}

func TestPatient_AwaitingConsultationForwardsToConsultant(t *testing.T) {
	h := newHarness(t)
	seedStaff(h)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_CONSULTATION, true)

	h.text(patientTG, "/start")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_CONSULTATION)
	assert.Equal(t, msgAwaitingConsultation, h.tg.lastTo(patientTG).Text)

	h.text(patientTG, "درد بیشتر شده است")
	h.photo(patientTG, "x1")

	require.Len(t, h.gw.messages, 2)
	assert.Equal(t, models.ChatMessage{
		PatientID:        testPatientID,
		SenderTelegramID: patientTG,
		SenderRole:       string(constants.ROLE_PATIENT),
		Kind:             models.MessageKindText,
		Content:          "درد بیشتر شده است",
	}, h.gw.messages[0])
	assert.Equal(t, models.MessageKindPhoto, h.gw.messages[1].Kind)
	assert.Equal(t, "1001/chat/x1.jpg", h.gw.messages[1].FilePath)

	assert.True(t, containsText(h.tg.textsTo(consultantTG), "درد بیشتر شده است"))
	delivered := h.media.deliveredTo(consultantTG)
	require.Len(t, delivered, 1)
	assert.Equal(t, "1001/chat/x1.jpg", delivered[0].Name)
	assert.Equal(t, msgMessageSaved, h.tg.lastTo(patientTG).Text)
}

func TestPatient_StatusChangeMovesToInvoice(t *testing.T) {
	h := newHarness(t)
	seedStaff(h)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_CONSULTATION, true)
	h.text(patientTG, "/start")

	// Консультант тем временем выписал счёт.
	seedOrder(h, constants.ORDER_STATUS_AWAITING_APPROVAL)
	require.NoError(t, h.gw.UpdatePatientStatus(context.Background(), testPatientID, constants.PATIENT_STATUS_AWAITING_APPROVAL))

	h.text(patientTG, "سلام")

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_APPROVAL)
	assert.Equal(t, testOrderID, s.Patient.OrderID)
	assert.Empty(t, h.gw.messages, "сообщение не ушло в журнал")
	last := h.tg.lastTo(patientTG)
	assert.Contains(t, last.Text, "250,000")
	assert.True(t, hasButton(last.Keyboard, constants.CB_INVOICE_APPROVE))
}

func TestPatient_InvoiceEditAndPayment(t *testing.T) {
	h := newHarness(t)
	seedStaff(h)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_APPROVAL, true)
	seedOrder(h, constants.ORDER_STATUS_AWAITING_APPROVAL)

	h.press(patientTG, constants.CB_INVOICE_VIEW)
	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_APPROVAL)
	assert.Equal(t, testOrderID, s.Patient.OrderID)
	assert.Contains(t, h.tg.lastTo(patientTG).Text, "250,000")

	h.press(patientTG, constants.CB_INVOICE_EDIT)
	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_EDITING_INVOICE)
	require.NotNil(t, s.Patient.Edit)
	assert.True(t, hasButton(h.tg.lastTo(patientTG).Keyboard, "invoice_toggle_9"))

	h.press(patientTG, "invoice_toggle_9")
	assert.Contains(t, h.tg.lastTo(patientTG).Text, "200,000")

	h.press(patientTG, constants.CB_INVOICE_EDIT_CONFIRM)

	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_RECEIPT)
	assert.Nil(t, s.Patient.Edit)
	assert.Equal(t, testOrderID, s.Patient.OrderID)
	assert.Equal(t, "key-1", s.Patient.Payment.Key)
	order := h.gw.order(testOrderID)
	assert.Equal(t, constants.ORDER_STATUS_APPROVED, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(5), order.Items[0].DrugID)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.Equal(t, constants.PATIENT_STATUS_AWAITING_PAYMENT, h.gw.patient(testPatientID).Status)
	assert.Equal(t, promptReceipt, h.tg.lastTo(patientTG).Text)

	h.text(patientTG, "پرداخت کردم")
	assert.Equal(t, promptReceiptOnly, h.tg.lastTo(patientTG).Text)
	h.photo(patientTG, "r1")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_AMOUNT)
	h.text(patientTG, "دویست")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_AMOUNT)
	h.text(patientTG, "200,000")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_TRACKING)
	h.text(patientTG, "TRK-2026-001")

	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_SENT)
	assert.Empty(t, s.Patient.Payment.Key)
	payment := h.gw.payment(h.gw.keys["key-1"])
	assert.Equal(t, testOrderID, payment.OrderID)
	assert.Equal(t, testPatientID, payment.PatientID)
	assert.Equal(t, models.Price("200000"), payment.Value)
	assert.Equal(t, "TRK-2026-001", payment.TrackingCode)
	assert.Equal(t, "1001/receipt/r1.jpg", payment.ReceiptPath)
	assert.Equal(t, constants.PAYMENT_STATUS_PENDING, payment.Status)
	assert.Equal(t, constants.PATIENT_STATUS_PAYMENT_SUBMITTED, h.gw.patient(testPatientID).Status)

	h.text(patientTG, "خبری نشد؟")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_SENT)
	assert.Equal(t, msgPaymentSubmitted, h.tg.lastTo(patientTG).Text)
}

func TestPatient_PaymentStatusFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_PAYMENT, false)
	seedOrder(h, constants.ORDER_STATUS_APPROVED)

	h.text(patientTG, "/start")
	h.photo(patientTG, "r1")
	h.text(patientTG, "250,000")
	h.gw.failOnce("UpdatePatientStatus", unavailable("patients.status"))
	h.text(patientTG, "TRK-2026-002")

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_RETRY)
	assert.Equal(t, int64(5001), s.Patient.Payment.PaymentID)
	assert.True(t, hasButton(h.tg.lastTo(patientTG).Keyboard, "payment_retry_status_5001"))
	assert.Equal(t, constants.PATIENT_STATUS_AWAITING_PAYMENT, h.gw.patient(testPatientID).Status)

	h.text(patientTG, "چی شد؟")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_RETRY)
	assert.True(t, hasButton(h.tg.lastTo(patientTG).Keyboard, "payment_retry_status_5001"))

	h.press(patientTG, "payment_retry_status_5001")

	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_SENT)
	assert.Zero(t, s.Patient.Payment.PaymentID)
	assert.Equal(t, 1, h.gw.callCount("CreatePayment"), "платёж не отправляется повторно")
	assert.Len(t, h.gw.payments, 1)
	assert.Equal(t, constants.PATIENT_STATUS_PAYMENT_SUBMITTED, h.gw.patient(testPatientID).Status)
	assert.Equal(t, msgPaymentSubmitted, h.tg.lastTo(patientTG).Text)
}

func TestPatient_EditConfirmRechecksStatus(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_APPROVAL, false)
	seedOrder(h, constants.ORDER_STATUS_AWAITING_APPROVAL)

	h.press(patientTG, constants.CB_INVOICE_VIEW)
	h.press(patientTG, constants.CB_INVOICE_EDIT)
	h.press(patientTG, "invoice_toggle_9")

	// Консультант вернул пациента на консультацию, пока тот правил счёт.
	h.gw.mu.Lock()
	h.gw.patients[testPatientID].Status = constants.PATIENT_STATUS_AWAITING_CONSULTATION
	h.gw.mu.Unlock()
	h.press(patientTG, constants.CB_INVOICE_EDIT_CONFIRM)

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_CONSULTATION)
	assert.Nil(t, s.Patient.Edit)
	assert.Equal(t, 0, h.gw.callCount("PatchOrder"))
	assert.Equal(t, constants.ORDER_STATUS_AWAITING_APPROVAL, h.gw.order(testOrderID).Status)
	assert.Len(t, h.gw.order(testOrderID).Items, 2)
	assert.Equal(t, msgAwaitingConsultation, h.tg.lastTo(patientTG).Text)
}

func TestPatient_EditNeedsOneLine(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_APPROVAL, false)
	seedOrder(h, constants.ORDER_STATUS_AWAITING_APPROVAL)

	h.press(patientTG, constants.CB_INVOICE_VIEW)
	h.press(patientTG, constants.CB_INVOICE_EDIT)
	h.press(patientTG, "invoice_toggle_5")
	h.press(patientTG, "invoice_toggle_9")
	h.press(patientTG, constants.CB_INVOICE_EDIT_CONFIRM)

	h.requireStage(t, patientTG, constants.STATE_PATIENT_EDITING_INVOICE)
	assert.Equal(t, msgEditNeedsOneLine, h.tg.lastTo(patientTG).Text)
	assert.Equal(t, 0, h.gw.callCount("PatchOrder"))

	h.press(patientTG, constants.CB_INVOICE_EDIT_CANCEL)
	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_APPROVAL)
	assert.Nil(t, s.Patient.Edit)
	assert.Len(t, h.gw.order(testOrderID).Items, 2)
}

func TestPatient_ApproveInvoiceAsIs(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_APPROVAL, false)
	seedOrder(h, constants.ORDER_STATUS_AWAITING_APPROVAL)

	h.press(patientTG, constants.CB_INVOICE_VIEW)
	h.press(patientTG, constants.CB_INVOICE_APPROVE)

	h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_RECEIPT)
	assert.Equal(t, constants.ORDER_STATUS_APPROVED, h.gw.order(testOrderID).Status)
	assert.Len(t, h.gw.order(testOrderID).Items, 2)
	assert.True(t, containsText(h.tg.textsTo(patientTG), "250,000"))
}

func TestPatient_RejectedPaymentResumesAtReceipt(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_PAYMENT_REJECTED, false)
	seedOrder(h, constants.ORDER_STATUS_APPROVED)

	h.text(patientTG, "/start")

	s := h.requireStage(t, patientTG, constants.STATE_PATIENT_PAYMENT_RECEIPT)
	assert.Equal(t, testOrderID, s.Patient.OrderID)
	assert.NotEmpty(t, s.Patient.Payment.Key)
	assert.Contains(t, h.tg.lastTo(patientTG).Text, msgPaymentRejected)
}

func TestPatient_AcceptedPaymentReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_PAYMENT_ACCEPTED, false)

	h.text(patientTG, "/start")

	s := h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Equal(t, constants.ROLE_PATIENT, s.Role)
	assert.Equal(t, msgPaymentAccepted, h.tg.lastTo(patientTG).Text)
}

func TestPatient_CardRemovedOnBackend(t *testing.T) {
	h := newHarness(t)
	seedPatient(h, constants.PATIENT_STATUS_AWAITING_CONSULTATION, false)
	h.text(patientTG, "/start")
	h.requireStage(t, patientTG, constants.STATE_PATIENT_AWAITING_CONSULTATION)

	h.gw.mu.Lock()
	delete(h.gw.patients, testPatientID)
	h.gw.mu.Unlock()
	h.text(patientTG, "سلام")

	s := h.requireStage(t, patientTG, constants.STATE_IDLE)
	assert.Empty(t, s.Role, "сессия удалена, роль определится заново")
	assert.Nil(t, s.Patient)
	assert.Zero(t, s.Version)
	assert.Equal(t, 0, h.bh.Deps.Sessions.Len())
	assert.Equal(t, promptWelcome, h.tg.lastTo(patientTG).Text)

	h.press(patientTG, constants.CB_START_REGISTRATION)
	s = h.requireStage(t, patientTG, constants.STATE_PATIENT_FULL_NAME)
	assert.Equal(t, constants.ROLE_PATIENT, s.Role)
}
