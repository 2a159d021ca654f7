package service

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
)

// ----------- Simulation ranges -----------
const (
	SimCO2Min, SimCO2Max     = 400.0, 1000.0 // ppm
	SimCOMin, SimCOMax       = 1.0, 10.0     // ppm
	SimAQMin, SimAQMax       = 20.0, 70.0    // ppm
	SimSmokeMin, SimSmokeMax = 10.0, 110.0   // ppm
	SimFlameChance           = 0.1
	SimMotionChance          = 0.5
)

// ReadingIngester accepts new readings.
type ReadingIngester interface {
	Ingest(ctx context.Context, r models.SensorReading) (models.SensorReading, error)
}

// SimulatorService feeds random readings into the pipeline, standing in for
// the hardware gateway during demos.
type SimulatorService struct {
	ingest ReadingIngester
	rnd    *rand.Rand
	log    *logger.Logger
}

// NewSimulatorService returns a simulator. A nil rnd uses a time seeded source.
func NewSimulatorService(ingest ReadingIngester, rnd *rand.Rand, log *logger.Logger) *SimulatorService {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &SimulatorService{ingest: ingest, rnd: rnd, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r := s.Next(now)
			if _, err := s.ingest.Ingest(ctx, r); err != nil && s.log != nil {
				s.log.Warnw("simulator_ingest_failed", "error", err)
			}
		}
	}
}

// Next produces one random reading stamped at now.
func (s *SimulatorService) Next(now time.Time) models.SensorReading {
	return models.SensorReading{
		CreatedAt:      now.UTC(),
		CO2PPM:         models.Float(s.between(SimCO2Min, SimCO2Max, 0)),
		COPPM:          models.Float(s.between(SimCOMin, SimCOMax, 2)),
		AirQualityPPM:  models.Float(s.between(SimAQMin, SimAQMax, 2)),
		SmokePPM:       models.Float(s.between(SimSmokeMin, SimSmokeMax, 2)),
		FlameDetected:  models.Bool(s.rnd.Float64() < SimFlameChance),
		MotionDetected: models.Bool(s.rnd.Float64() < SimMotionChance),
	}
}

// between returns a value in [lo, hi] rounded to prec decimals.
func (s *SimulatorService) between(lo, hi float64, prec int) float64 {
	v := lo + s.rnd.Float64()*(hi-lo)
	p := math.Pow(10, float64(prec))
	return math.Round(v*p) / p
}
