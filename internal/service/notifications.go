package service

import (
	"context"
	"sync"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/google/uuid"
)

const recentNotifications = 100

// NotificationHub fans notifications out to live listeners (websocket
// clients, the MQTT publisher) and keeps a short in-memory backlog.
type NotificationHub struct {
	events repository.EventRepo
	log    *logger.Logger

	mu     sync.RWMutex
	recent []models.Notification
	subs   map[string]func(models.Notification)
}

func NewNotificationHub(events repository.EventRepo) *NotificationHub {
	return &NotificationHub{
		events: events,
		subs:   make(map[string]func(models.Notification)),
	}
}

// SetLogger sets where event log failures are reported.
func (h *NotificationHub) SetLogger(log *logger.Logger) { h.log = log }

// Publish logs n and delivers it to every subscriber.
func (h *NotificationHub) Publish(n models.Notification) {
	typ := models.EventNotification
	if n.Channel != "" {
		typ = models.EventAlert
	}
	appendEvent(context.Background(), h.events, h.log, models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  n.At,
		Type:        typ,
		Description: n.Message,
		Metadata: map[string]any{
			"room":     n.Room,
			"channel":  n.Channel,
			"severity": n.Severity,
		},
	})

	h.mu.Lock()
	h.recent = append(h.recent, n)
	if len(h.recent) > recentNotifications {
		h.recent = h.recent[len(h.recent)-recentNotifications:]
	}
	fns := make([]func(models.Notification), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Recent returns the backlog, newest last.
func (h *NotificationHub) Recent() []models.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Notification, len(h.recent))
	copy(out, h.recent)
	return out
}

// Subscribe registers fn for every notification.
func (h *NotificationHub) Subscribe(fn func(models.Notification)) (unsubscribe func()) {
	id := uuid.NewString()
	h.mu.Lock()
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}
