package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"core_innovators/internal/models"
	"core_innovators/internal/repository"
)

// fakeClock is a manually advanced Clock. Timers fire synchronously inside
// Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// pending counts timers that are neither stopped nor fired.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeEventRepo records appended events and serves List from a fixture.
type fakeEventRepo struct {
	mu       sync.Mutex
	appended []models.Event

	gotFrom time.Time
	gotTo   time.Time
	gotType string
	events  []models.Event
	err     error
	calls   int

	appendErr error
}

func (f *fakeEventRepo) Append(_ context.Context, e models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) ofType(typ string) []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.appended {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// memReadingRepo is an in-memory ReadingRepo.
type memReadingRepo struct {
	mu   sync.Mutex
	rows []models.SensorReading
	err  error
}

func (m *memReadingRepo) Latest(context.Context) (models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.SensorReading{}, m.err
	}
	if len(m.rows) == 0 {
		return models.SensorReading{}, nil
	}
	return m.rows[len(m.rows)-1], nil
}

func (m *memReadingRepo) Insert(_ context.Context, r models.SensorReading) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	r.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, r)
	return r.ID, nil
}

func (m *memReadingRepo) List(_ context.Context, _, _ time.Time, limit int) ([]models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SensorReading, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

// memRuleRepo is an in-memory RuleRepo.
type memRuleRepo struct {
	mu    sync.Mutex
	rules map[string]models.AutomationRule
}

func newMemRuleRepo(rules ...models.AutomationRule) *memRuleRepo {
	m := &memRuleRepo{rules: make(map[string]models.AutomationRule)}
	for _, r := range rules {
		m.rules[r.ID] = r
	}
	return m
}

func (m *memRuleRepo) List(context.Context) ([]models.AutomationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AutomationRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRuleRepo) Get(_ context.Context, id string) (models.AutomationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return models.AutomationRule{}, repository.ErrNotFound
	}
	return r, nil
}

func (m *memRuleRepo) Create(_ context.Context, r models.AutomationRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.ID] = r
	return nil
}

func (m *memRuleRepo) Update(_ context.Context, r models.AutomationRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[r.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rules[r.ID] = r
	return nil
}

func (m *memRuleRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// memSettingsRepo is an in-memory SettingsRepo.
type memSettingsRepo struct {
	values map[string]string
}

func (m *memSettingsRepo) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettingsRepo) Set(_ context.Context, key, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// memAlertHistory is an in-memory AlertHistory.
type memAlertHistory struct {
	mu      sync.Mutex
	records []models.AlertRecord
}

func (m *memAlertHistory) Append(_ context.Context, rec models.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memAlertHistory) MarkDelivered(_ context.Context, id, deliveryErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Delivered = deliveryErr == ""
			m.records[i].Error = deliveryErr
		}
	}
	return nil
}

func (m *memAlertHistory) Recent(_ context.Context, limit int) ([]models.AlertRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AlertRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// notificationSink collects notifications handed to a sink.
type notificationSink struct {
	mu  sync.Mutex
	got []models.Notification
}

func (s *notificationSink) publish(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
}

func (s *notificationSink) all() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.got))
	copy(out, s.got)
	return out
}

// reading builds a full reading from the four gas values.
func reading(co2, co, aq, smoke float64, flame bool) models.SensorReading {
	return models.SensorReading{
		CO2PPM:        models.Float(co2),
		COPPM:         models.Float(co),
		AirQualityPPM: models.Float(aq),
		SmokePPM:      models.Float(smoke),
		FlameDetected: models.Bool(flame),
	}
}
