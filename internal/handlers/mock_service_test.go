package handlers

import (
	"context"
	"net/http"
	"sync"

	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	identity      models.Identity
	parseErr      error
	profile       models.User
	profileErr    error

	lastSignUp      service.SignUpInput
	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
	lastProfileID   int
}

func (m *mockAuth) SignUp(_ context.Context, in service.SignUpInput) (int, error) {
	m.lastSignUp = in
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (models.Identity, error) {
	m.lastParseToken = token
	return m.identity, m.parseErr
}
func (m *mockAuth) Profile(_ context.Context, userID int) (models.User, error) {
	m.lastProfileID = userID
	return m.profile, m.profileErr
}

type mockReadings struct {
	mu sync.Mutex

	latest    models.SensorReading
	channels  []service.ChannelStatus
	err       error
	list      []models.SensorReading
	ingestErr error

	lastFilter service.ReadingFilter
	ingested   []models.SensorReading
	subs       []func(models.SensorReading)
}

func (m *mockReadings) Latest(context.Context) (models.SensorReading, error) {
	return m.latest, m.err
}
func (m *mockReadings) Status(context.Context) (models.SensorReading, []service.ChannelStatus, error) {
	return m.latest, m.channels, m.err
}
func (m *mockReadings) List(_ context.Context, f service.ReadingFilter) ([]models.SensorReading, error) {
	m.lastFilter = f
	return m.list, m.err
}
func (m *mockReadings) Ingest(_ context.Context, r models.SensorReading) (models.SensorReading, error) {
	if m.ingestErr != nil {
		return models.SensorReading{}, m.ingestErr
	}
	r.ID = int64(len(m.ingested) + 1)
	m.ingested = append(m.ingested, r)
	return r, nil
}
func (m *mockReadings) Subscribe(fn func(models.SensorReading)) func() {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
	return func() {}
}

func (m *mockReadings) publish(r models.SensorReading) {
	m.mu.Lock()
	subs := append([]func(models.SensorReading){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(r)
	}
}

type mockAlerts struct {
	history []models.AlertRecord
	err     error
	recent  []models.Notification
}

func (m *mockAlerts) History(context.Context) ([]models.AlertRecord, error) {
	return m.history, m.err
}
func (m *mockAlerts) Recent() []models.Notification { return m.recent }
func (m *mockAlerts) SubscribeNotifications(func(models.Notification)) func() {
	return func() {}
}

type mockSettings struct {
	email   string
	err     error
	setErr  error
	lastSet string
}

func (m *mockSettings) NotificationEmail(context.Context) (string, error) {
	return m.email, m.err
}
func (m *mockSettings) SetNotificationEmail(_ context.Context, email string) (string, error) {
	m.lastSet = email
	if m.setErr != nil {
		return "", m.setErr
	}
	m.email = email
	return email, nil
}

type mockEventLog struct {
	resp     []models.Event
	err      error
	lastType string
	filter   service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.filter = f
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

var testIdentity = models.Identity{UserID: 1, Username: "durai"}

func newTestRouter(s *service.Service) *gin.Engine {
	if s.Authorization == nil {
		s.Authorization = &mockAuth{identity: testIdentity}
	}
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
