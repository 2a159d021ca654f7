package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// appendEvent writes ev and logs a failure instead of returning it.
func appendEvent(ctx context.Context, events repository.EventRepo, log *logger.Logger, ev models.Event) {
	if events == nil {
		return
	}
	if err := events.Append(ctx, ev); err != nil && log != nil {
		log.Warnw("event_append_failed", "type", ev.Type, "description", ev.Description, "error", err)
	}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := toUTC(f.From)
	to := toUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// Record appends an event of the given type.
func (s *EventLogService) Record(ctx context.Context, typ, description string, meta any) error {
	return s.eventRepo.Append(ctx, models.Event{
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
}

// IsInvalidRange reports whether err is a rejected time range.
func IsInvalidRange(err error) bool { return errors.Is(err, errInvalidTimeRange) }
