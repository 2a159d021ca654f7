package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"core_innovators/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingService_IngestPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	repo := &memReadingRepo{}
	events := &fakeEventRepo{}
	svc := NewReadingService(repo, events)

	var got []models.SensorReading
	unsubscribe := svc.Subscribe(func(r models.SensorReading) { got = append(got, r) })

	stored, err := svc.Ingest(ctx, reading(650, 4, 20, 120, false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	require.Len(t, got, 1)
	assert.Equal(t, stored, got[0])

	ev := events.ofType(models.EventReading)
	require.Len(t, ev, 1)
	assert.Equal(t, map[string]any{
		"co2": 650.0, "co": 4.0, "air_quality": 20.0, "smoke": 120.0, "flame": false,
	}, ev[0].Metadata)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, svc.Subscribers())
	_, err = svc.Ingest(ctx, reading(700, 4, 20, 120, false))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadingService_RejectsEmptyReading(t *testing.T) {
	svc := NewReadingService(&memReadingRepo{}, &fakeEventRepo{})
	_, err := svc.Ingest(context.Background(), models.SensorReading{})
	assert.ErrorIs(t, err, ErrEmptyReading)
}

func TestReadingService_IngestStoreFailure(t *testing.T) {
	svc := NewReadingService(&memReadingRepo{err: errors.New("disk full")}, &fakeEventRepo{})
	published := false
	svc.Subscribe(func(models.SensorReading) { published = true })

	_, err := svc.Ingest(context.Background(), reading(650, 4, 20, 120, false))
	require.Error(t, err)
	assert.False(t, published)
}

func TestReadingService_LatestEmptyAndStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewReadingService(&memReadingRepo{}, &fakeEventRepo{})

	r, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())

	_, err = svc.Ingest(ctx, models.SensorReading{AirQualityPPM: models.Float(35)})
	require.NoError(t, err)
	_, rows, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SeveritySafe, rows[2].Severity, "status tiles warn from 36")
	assert.Equal(t, models.SeverityNoData, rows[0].Severity)
}

func TestReadingService_ListValidatesRange(t *testing.T) {
	svc := NewReadingService(&memReadingRepo{}, &fakeEventRepo{})
	now := time.Now()
	_, err := svc.List(context.Background(), ReadingFilter{From: now, To: now.Add(-time.Hour)})
	assert.True(t, IsInvalidRange(err))
}
