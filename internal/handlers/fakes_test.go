package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"PharmaBot/internal/config"
	"PharmaBot/internal/constants"
	"PharmaBot/internal/gateway"
	"PharmaBot/internal/media"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
)

// --- Transport ---

type sentMessage struct {
	Kind     string // text, edit, document, photo, album, answer
	ChatID   int64
	Text     string
	Name     string
	Data     []byte
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []sentMessage
	nextID int
}

func (f *fakeTransport) record(m sentMessage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, m)
	return f.nextID
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	return f.record(sentMessage{Kind: "text", ChatID: chatID, Text: text, Keyboard: kb}), nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, path, caption string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	return f.record(sentMessage{Kind: "photo", ChatID: chatID, Name: path, Text: caption, Keyboard: kb}), nil
}

func (f *fakeTransport) SendDocument(_ context.Context, chatID int64, name string, data []byte, caption string) (int, error) {
	return f.record(sentMessage{Kind: "document", ChatID: chatID, Name: name, Data: data, Text: caption}), nil
}

func (f *fakeTransport) SendMediaGroup(_ context.Context, chatID int64, paths []string) error {
	f.record(sentMessage{Kind: "album", ChatID: chatID, Name: strings.Join(paths, ",")})
	return nil
}

func (f *fakeTransport) EditText(_ context.Context, chatID int64, _ int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	f.record(sentMessage{Kind: "edit", ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeTransport) DeleteMessage(context.Context, int64, int) error { return nil }

func (f *fakeTransport) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.record(sentMessage{Kind: "answer", Name: callbackID, Text: text})
	return nil
}

func (f *fakeTransport) DownloadFile(context.Context, string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("not used")
}

// messagesTo - текстовые сообщения и правки в чат, по порядку.
func (f *fakeTransport) messagesTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID && (m.Kind == "text" || m.Kind == "edit") {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) textsTo(chatID int64) []string {
	var out []string
	for _, m := range f.messagesTo(chatID) {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeTransport) lastTo(chatID int64) sentMessage {
	msgs := f.messagesTo(chatID)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) documentsTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID && m.Kind == "document" {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) answers() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.Kind == "answer" {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func hasButton(kb *tgbotapi.InlineKeyboardMarkup, data string) bool {
	if kb == nil {
		return false
	}
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil && *b.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func containsText(texts []string, sub string) bool {
	for _, t := range texts {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// --- Media ---

type fakeMedia struct {
	mu        sync.Mutex
	stored    []string
	delivered []sentMessage
	storeErr  error
}

func (m *fakeMedia) Store(_ context.Context, att media.Attachment, ownerID int64, purpose string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return "", m.storeErr
	}
	path := fmt.Sprintf("%d/%s/%s.jpg", ownerID, purpose, att.FileUniqueID)
	m.stored = append(m.stored, path)
	return path, nil
}

func (m *fakeMedia) Deliver(_ context.Context, path string, dest int64, kind, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, sentMessage{Kind: kind, ChatID: dest, Name: path, Text: caption})
	return nil
}

func (m *fakeMedia) DeliverAlbum(_ context.Context, paths []string, dest int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, sentMessage{Kind: "album", ChatID: dest, Name: strings.Join(paths, ",")})
	return len(paths), nil
}

func (m *fakeMedia) deliveredTo(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, d := range m.delivered {
		if d.ChatID == chatID {
			out = append(out, d)
		}
	}
	return out
}

// --- Gateway ---

type statusUpdate struct {
	PatientID int64
	Status    string
}

// fakeGateway - бэкенд в памяти. Ключи идемпотентности соблюдаются, как на настоящем сервере.
type fakeGateway struct {
	mu sync.Mutex

	users        map[int64]models.User // по telegram_id
	patients     map[int64]*models.Patient
	orders       map[int64]*models.Order
	payments     map[int64]*models.Payment
	categories   []models.DiseaseType
	drugs        map[int64][]models.Drug
	dates        []string
	paymentDates []string

	messages        []models.ChatMessage
	statusUpdates   []statusUpdate
	createdOrders   []models.OrderCreate
	createdPatients []models.PatientCreate
	reviews         []models.PaymentReview
	keys            map[string]int64
	nextID          int64

	failures map[string][]error
	calls    map[string]int

	// loseOrderResponse: заказ создаётся, но ответ "теряется" по дороге.
	loseOrderResponse bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:    map[int64]models.User{},
		patients: map[int64]*models.Patient{},
		orders:   map[int64]*models.Order{},
		payments: map[int64]*models.Payment{},
		drugs:    map[int64][]models.Drug{},
		keys:     map[string]int64{},
		failures: map[string][]error{},
		calls:    map[string]int{},
		nextID:   5000,
	}
}

func notFound(op string) error {
	return &gateway.Error{Op: op, StatusCode: http.StatusNotFound, Body: "not found"}
}

func unavailable(op string) error {
	return &gateway.Error{Op: op, StatusCode: http.StatusServiceUnavailable, Body: "maintenance"}
}

// failOnce ставит ошибку на следующий вызов op.
func (g *fakeGateway) failOnce(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = append(g.failures[op], err)
}

func (g *fakeGateway) callCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// hit вызывается под g.mu.
func (g *fakeGateway) hit(op string) error {
	g.calls[op]++
	if q := g.failures[op]; len(q) > 0 {
		g.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (g *fakeGateway) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *fakeGateway) drug(drugID int64) (models.Drug, bool) {
	for _, list := range g.drugs {
		for _, d := range list {
			if d.DrugID == drugID {
				return d, true
			}
		}
	}
	return models.Drug{}, false
}

func (g *fakeGateway) enrich(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		if d, ok := g.drug(it.DrugID); ok {
			it.DrugName = d.Name
			it.UnitPrice = d.Price
		}
		out[i] = it
	}
	return out
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

func (g *fakeGateway) addUser(u models.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[u.TelegramID] = u
}

func (g *fakeGateway) addPatient(p models.Patient) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.patients[p.PatientID] = &p
}

func (g *fakeGateway) addOrder(o models.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[o.OrderID] = &o
}

func (g *fakeGateway) addPayment(p models.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.PaymentID] = &p
}

func (g *fakeGateway) patient(id int64) models.Patient {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.patients[id]
}

func (g *fakeGateway) order(id int64) models.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *copyOrder(g.orders[id])
}

func (g *fakeGateway) payment(id int64) models.Payment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.payments[id]
}

func (g *fakeGateway) GetUserByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetUserByTelegramID"); err != nil {
		return nil, err
	}
	u, ok := g.users[telegramID]
	if !ok {
		return nil, notFound("users.by_telegram")
	}
	return &u, nil
}

func (g *fakeGateway) GetUser(_ context.Context, userID int64) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetUser"); err != nil {
		return nil, err
	}
	for _, u := range g.users {
		if u.UserID == userID {
			return &u, nil
		}
	}
	return nil, notFound("users.get")
}

func (g *fakeGateway) CreatePatient(_ context.Context, p models.PatientCreate, key string) (*models.Patient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("CreatePatient"); err != nil {
		return nil, err
	}
	if id, ok := g.keys[key]; ok {
		cp := *g.patients[id]
		return &cp, nil
	}
	g.createdPatients = append(g.createdPatients, p)
	created := &models.Patient{
		PatientID:          g.id(),
		FullName:           p.FullName,
		NationalID:         p.NationalID,
		PhoneNumber:        p.PhoneNumber,
		Gender:             p.Gender,
		Age:                p.Age,
		Weight:             p.Weight,
		Height:             p.Height,
		DiseaseDescription: p.DiseaseDescription,
		SpecialConditions:  p.SpecialConditions,
		PhotoPaths:         p.PhotoPaths,
		Status:             constants.PATIENT_STATUS_AWAITING_CONSULTATION,
		User:               &models.User{TelegramID: p.TelegramID},
	}
	g.patients[created.PatientID] = created
	g.keys[key] = created.PatientID
	cp := *created
	return &cp, nil
}

func (g *fakeGateway) GetPatient(_ context.Context, patientID int64) (*models.Patient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetPatient"); err != nil {
		return nil, err
	}
	p, ok := g.patients[patientID]
	if !ok {
		return nil, notFound("patients.get")
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) GetPatientByTelegramID(_ context.Context, telegramID int64) (*models.Patient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetPatientByTelegramID"); err != nil {
		return nil, err
	}
	for _, p := range g.patients {
		if p.TelegramID() == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("patients.by_telegram")
}

func (g *fakeGateway) UpdatePatient(_ context.Context, patientID int64, upd models.PatientUpdate) (*models.Patient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("UpdatePatient"); err != nil {
		return nil, err
	}
	p, ok := g.patients[patientID]
	if !ok {
		return nil, notFound("patients.update")
	}
	if upd.ConsultantID != nil {
		for _, u := range g.users {
			if u.UserID == *upd.ConsultantID {
				consultant := u
				p.Consultant = &consultant
			}
		}
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) UpdatePatientStatus(_ context.Context, patientID int64, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("UpdatePatientStatus"); err != nil {
		return err
	}
	p, ok := g.patients[patientID]
	if !ok {
		return notFound("patients.status")
	}
	p.Status = status
	g.statusUpdates = append(g.statusUpdates, statusUpdate{PatientID: patientID, Status: status})
	return nil
}

func (g *fakeGateway) UnassignedDates(context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("UnassignedDates"); err != nil {
		return nil, err
	}
	return append([]string(nil), g.dates...), nil
}

func (g *fakeGateway) PatientsByDate(context.Context, string) ([]models.Patient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("PatientsByDate"); err != nil {
		return nil, err
	}
	var out []models.Patient
	for _, p := range g.patients {
		if p.Status == constants.PATIENT_STATUS_AWAITING_CONSULTATION && p.Consultant == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PatientID < out[j].PatientID })
	return out, nil
}

func (g *fakeGateway) CreateOrder(_ context.Context, o models.OrderCreate, key string) (*models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("CreateOrder"); err != nil {
		return nil, err
	}
	if id, ok := g.keys[key]; ok {
		return copyOrder(g.orders[id]), nil
	}
	g.createdOrders = append(g.createdOrders, o)
	order := &models.Order{
		OrderID:      g.id(),
		PatientID:    o.PatientID,
		ConsultantID: o.ConsultantID,
		Status:       constants.ORDER_STATUS_AWAITING_APPROVAL,
		Items:        g.enrich(o.Items),
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	g.orders[order.OrderID] = order
	g.keys[key] = order.OrderID
	if g.loseOrderResponse {
		g.loseOrderResponse = false
		return nil, &gateway.Error{Op: "orders.create", Err: context.DeadlineExceeded}
	}
	return copyOrder(order), nil
}

func (g *fakeGateway) GetOrder(_ context.Context, orderID int64) (*models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := g.orders[orderID]
	if !ok {
		return nil, notFound("orders.get")
	}
	return copyOrder(o), nil
}

func (g *fakeGateway) PatchOrder(_ context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("PatchOrder"); err != nil {
		return nil, err
	}
	o, ok := g.orders[orderID]
	if !ok {
		return nil, notFound("orders.patch")
	}
	if patch.Items != nil {
		o.Items = g.enrich(patch.Items)
	}
	if patch.Status != "" {
		o.Status = patch.Status
	}
	return copyOrder(o), nil
}

func (g *fakeGateway) LatestOrder(_ context.Context, patientID int64, status string) (*models.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("LatestOrder"); err != nil {
		return nil, err
	}
	var latest *models.Order
	for _, o := range g.orders {
		if o.PatientID == patientID && o.Status == status && (latest == nil || o.OrderID > latest.OrderID) {
			latest = o
		}
	}
	if latest == nil {
		return nil, notFound("orders.latest")
	}
	return copyOrder(latest), nil
}

func (g *fakeGateway) DiseaseTypes(context.Context) ([]models.DiseaseType, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("DiseaseTypes"); err != nil {
		return nil, err
	}
	return append([]models.DiseaseType(nil), g.categories...), nil
}

func (g *fakeGateway) Drugs(_ context.Context, diseaseTypeID int64) ([]models.Drug, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("Drugs"); err != nil {
		return nil, err
	}
	return append([]models.Drug(nil), g.drugs[diseaseTypeID]...), nil
}

func (g *fakeGateway) CreatePayment(_ context.Context, p models.PaymentCreate, key string) (*models.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("CreatePayment"); err != nil {
		return nil, err
	}
	if id, ok := g.keys[key]; ok {
		cp := *g.payments[id]
		return &cp, nil
	}
	payment := &models.Payment{
		PaymentID:    g.id(),
		OrderID:      p.OrderID,
		PatientID:    p.PatientID,
		Value:        models.Price(fmt.Sprint(p.Amount)),
		TrackingCode: p.TrackingCode,
		ReceiptPath:  p.ReceiptPath,
		Status:       constants.PAYMENT_STATUS_PENDING,
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if patient, ok := g.patients[p.PatientID]; ok {
		payment.FullName = patient.FullName
		payment.TelegramID = patient.TelegramID()
	}
	g.payments[payment.PaymentID] = payment
	g.keys[key] = payment.PaymentID
	cp := *payment
	return &cp, nil
}

func (g *fakeGateway) ReviewPayment(_ context.Context, paymentID int64, review models.PaymentReview) (*models.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("ReviewPayment"); err != nil {
		return nil, err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, notFound("payments.review")
	}
	g.reviews = append(g.reviews, review)
	p.Status = review.Status
	p.StatusReason = review.Explain
	// Бэкенд отвечает укороченной записью.
	return &models.Payment{PaymentID: p.PaymentID, Status: p.Status}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID int64) (*models.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("GetPayment"); err != nil {
		return nil, err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, notFound("payments.get")
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) PendingPaymentDates(context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("PendingPaymentDates"); err != nil {
		return nil, err
	}
	return append([]string(nil), g.paymentDates...), nil
}

func (g *fakeGateway) PendingPayments(context.Context, string) ([]models.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("PendingPayments"); err != nil {
		return nil, err
	}
	var out []models.Payment
	for _, p := range g.payments {
		if p.Status == constants.PAYMENT_STATUS_PENDING {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentID < out[j].PaymentID })
	return out, nil
}

func (g *fakeGateway) AppendMessage(_ context.Context, m models.ChatMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("AppendMessage"); err != nil {
		return err
	}
	g.messages = append(g.messages, m)
	return nil
}

func (g *fakeGateway) Transcript(_ context.Context, patientID int64) ([]models.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("Transcript"); err != nil {
		return nil, err
	}
	var out []models.ChatMessage
	for _, m := range g.messages {
		if m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- Harness ---

type harness struct {
	bh    *BotHandler
	tg    *fakeTransport
	gw    *fakeGateway
	media *fakeMedia
	keys  atomic.Int64
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		Seller: config.SellerProfile{Name: "داروخانه دکتر سلامت", Phone: "021-88887777", Address: "تهران، خیابان ولیعصر"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	h := &harness{tg: &fakeTransport{}, gw: newFakeGateway(), media: &fakeMedia{}}
	h.bh = NewBotHandler(HandlerDependencies{
		Config:    cfg,
		Transport: h.tg,
		Sessions:  session.NewManager(nil, zap.NewNop(), nil),
		Gateway:   h.gw,
		Media:     h.media,
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC) },
		NewKey:    func() string { return fmt.Sprintf("key-%d", h.keys.Add(1)) },
	})
	return h
}

func textEvent(actorID int64, text string) Event {
	ev := Event{ActorID: actorID, ChatID: actorID, MessageID: 10, ActorName: "Tester", Text: text}
	if strings.HasPrefix(text, "/") {
		ev.Command = strings.TrimPrefix(text, "/")
		ev.Text = ""
	}
	return ev
}

func callbackEvent(actorID int64, data string) Event {
	action := ParseAction(data)
	return Event{
		ActorID:    actorID,
		ChatID:     actorID,
		MessageID:  20,
		ActorName:  "Tester",
		CallbackID: "cb-" + data,
		Action:     &action,
	}
}

func photoEvent(actorID int64, uniqueID string) Event {
	return Event{
		ActorID:    actorID,
		ChatID:     actorID,
		MessageID:  30,
		ActorName:  "Tester",
		Attachment: &media.Attachment{Kind: models.MessageKindPhoto, FileID: "file-" + uniqueID, FileUniqueID: uniqueID},
	}
}

func (h *harness) text(actorID int64, text string) {
	h.bh.HandleEvent(context.Background(), textEvent(actorID, text))
}

func (h *harness) press(actorID int64, data string) {
	h.bh.HandleEvent(context.Background(), callbackEvent(actorID, data))
}

func (h *harness) photo(actorID int64, uniqueID string) {
	h.bh.HandleEvent(context.Background(), photoEvent(actorID, uniqueID))
}

func (h *harness) session(t *testing.T, actorID int64) session.Session {
	t.Helper()
	s, err := h.bh.Deps.Sessions.Get(context.Background(), actorID)
	require.NoError(t, err)
	return s
}

func (h *harness) requireStage(t *testing.T, actorID int64, stage constants.Stage) session.Session {
	t.Helper()
	s := h.session(t, actorID)
	require.Equal(t, stage, s.Stage, "actor %d", actorID)
	return s
}

// --- Данные ---

const (
	testPatientID    int64 = 42
	testConsultantID int64 = 7
	testCashierID    int64 = 11
	testOrderID      int64 = 300
	testPaymentID    int64 = 500
)

func seedStaff(h *harness) {
	h.gw.addUser(models.User{UserID: testConsultantID, TelegramID: 2001, FullName: "دکتر رحیمی", Role: models.RoleRef{RoleName: "Consultant"}})
	h.gw.addUser(models.User{UserID: testCashierID, TelegramID: 3001, FullName: "مریم کاظمی", Role: models.RoleRef{RoleName: "Casher"}})
}

func seedPatient(h *harness, status string, consultant bool) {
	p := models.Patient{
		PatientID:          testPatientID,
		FullName:           "سارا احمدی",
		NationalID:         "0499370899",
		PhoneNumber:        "09123456789",
		Gender:             "female",
		Age:                30,
		Weight:             60,
		Height:             170,
		DiseaseDescription: "سردرد مزمن",
		PhotoPaths:         []string{"1001/profile/a.jpg", "1001/profile/b.jpg"},
		Status:             status,
		User:               &models.User{TelegramID: 1001},
	}
	if consultant {
		p.Consultant = &models.User{UserID: testConsultantID, TelegramID: 2001, FullName: "دکتر رحیمی"}
	}
	h.gw.addPatient(p)
}

func seedCatalog(h *harness) {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	h.gw.categories = []models.DiseaseType{{DiseaseTypeID: 1, Name: "پوست"}, {DiseaseTypeID: 2, Name: "تنفسی"}}
	h.gw.drugs[1] = []models.Drug{
		{DrugID: 5, Name: "کرم هیدروکورتیزون", Price: "100000", DiseaseTypeID: 1},
		{DrugID: 9, Name: "قرص آنتی‌هیستامین", Price: "5E+4", DiseaseTypeID: 1},
	}
	h.gw.dates = []string{"2026-03-01"}
	h.gw.paymentDates = []string{"2026-03-01"}
}

func seedOrder(h *harness, status string) {
	h.gw.addOrder(models.Order{
		OrderID:      testOrderID,
		PatientID:    testPatientID,
		ConsultantID: testConsultantID,
		Status:       status,
		Items: []models.OrderItem{
			{DrugID: 5, Qty: 2, DrugName: "کرم هیدروکورتیزون", UnitPrice: "100000"},
			{DrugID: 9, Qty: 1, DrugName: "قرص آنتی‌هیستامین", UnitPrice: "50000"},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
}
