package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"core_innovators/internal/models"
)

type captureIngester struct {
	mu  sync.Mutex
	got []models.SensorReading
}

func (c *captureIngester) Ingest(_ context.Context, r models.SensorReading) (models.SensorReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, r)
	return r, nil
}

func (c *captureIngester) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestSimulator_NextStaysInRange(t *testing.T) {
	sim := NewSimulatorService(&captureIngester{}, rand.New(rand.NewPCG(1, 2)), nil)
	now := time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)

	flames := 0
	for i := 0; i < 500; i++ {
		r := sim.Next(now)
		if !r.HasAllGases() || r.FlameDetected == nil || r.MotionDetected == nil {
			t.Fatalf("reading %d is incomplete: %+v", i, r)
		}
		check := func(name string, v, lo, hi float64) {
			if v < lo || v > hi {
				t.Fatalf("%s = %v outside [%v, %v]", name, v, lo, hi)
			}
		}
		check("co2", *r.CO2PPM, SimCO2Min, SimCO2Max)
		check("co", *r.COPPM, SimCOMin, SimCOMax)
		check("air quality", *r.AirQualityPPM, SimAQMin, SimAQMax)
		check("smoke", *r.SmokePPM, SimSmokeMin, SimSmokeMax)
		if *r.CO2PPM != float64(int(*r.CO2PPM)) {
			t.Fatalf("co2 should be whole ppm, got %v", *r.CO2PPM)
		}
		if *r.FlameDetected {
			flames++
		}
		if !r.CreatedAt.Equal(now) {
			t.Fatalf("timestamp = %v, want %v", r.CreatedAt, now)
		}
	}
	if flames == 0 || flames > 150 {
		t.Fatalf("flame rate looks wrong: %d of 500", flames)
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	ing := &captureIngester{}
	sim := NewSimulatorService(ing, rand.New(rand.NewPCG(3, 4)), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for ing.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("simulator produced no readings")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
