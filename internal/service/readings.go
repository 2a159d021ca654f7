package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/google/uuid"
)

var ErrEmptyReading = errors.New("reading has no channel values")

// ReadingService serves the latest sensor snapshot and fans out new readings
// to subscribers. Processing is last-write-wins.
type ReadingService struct {
	repo   repository.ReadingRepo
	events repository.EventRepo
	log    *logger.Logger
	status Thresholds

	mu   sync.RWMutex
	subs map[string]func(models.SensorReading)
}

func NewReadingService(repo repository.ReadingRepo, events repository.EventRepo) *ReadingService {
	return &ReadingService{
		repo:   repo,
		events: events,
		status: DefaultStatusThresholds(),
		subs:   make(map[string]func(models.SensorReading)),
	}
}

// SetLogger sets where event log failures are reported.
func (s *ReadingService) SetLogger(log *logger.Logger) { s.log = log }

// SetStatusThresholds replaces the profile used by Status.
func (s *ReadingService) SetStatusThresholds(t Thresholds) { s.status = t }

// Latest returns the most recent reading. When nothing has been stored yet it
// returns an empty reading with every channel unknown.
func (s *ReadingService) Latest(ctx context.Context) (models.SensorReading, error) {
	r, err := s.repo.Latest(ctx)
	if err != nil {
		return models.SensorReading{}, err
	}
	r.CreatedAt = toUTC(r.CreatedAt)
	return r, nil
}

// Status classifies every channel of the latest reading for the status tiles.
func (s *ReadingService) Status(ctx context.Context) (models.SensorReading, []ChannelStatus, error) {
	r, err := s.Latest(ctx)
	if err != nil {
		return models.SensorReading{}, nil, err
	}
	return r, s.status.Status(r), nil
}

// List returns stored readings between from and to, newest first.
func (s *ReadingService) List(ctx context.Context, f ReadingFilter) ([]models.SensorReading, error) {
	from, to := toUTC(f.From), toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	limit := f.Limit
	if limit <= 0 || limit > MaxReadingPage {
		limit = MaxReadingPage
	}
	return s.repo.List(ctx, from, to, limit)
}

// Ingest persists r and publishes it to every subscriber.
func (s *ReadingService) Ingest(ctx context.Context, r models.SensorReading) (models.SensorReading, error) {
	if r.IsEmpty() {
		return models.SensorReading{}, ErrEmptyReading
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	id, err := s.repo.Insert(ctx, r)
	if err != nil {
		return models.SensorReading{}, fmt.Errorf("store reading: %w", err)
	}
	r.ID = id

	appendEvent(ctx, s.events, s.log, models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  r.CreatedAt,
		Type:        models.EventReading,
		Description: "Sensor reading received",
		Metadata:    readingMeta(r),
	})

	s.Publish(r)
	return r, nil
}

// Publish delivers r to subscribers without storing it.
func (s *ReadingService) Publish(r models.SensorReading) {
	s.mu.RLock()
	fns := make([]func(models.SensorReading), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(r)
	}
}

// Subscribe registers fn for every new reading. The returned func removes it.
func (s *ReadingService) Subscribe(fn func(models.SensorReading)) (unsubscribe func()) {
	id := uuid.NewString()
	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *ReadingService) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func readingMeta(r models.SensorReading) map[string]any {
	m := map[string]any{}
	for _, c := range models.GasChannels {
		if v, ok := r.Value(c); ok {
			m[string(c)] = v
		}
	}
	for _, c := range []models.Channel{models.ChannelFlame, models.ChannelMotion} {
		if v, ok := r.Flag(c); ok {
			m[string(c)] = v
		}
	}
	return m
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
