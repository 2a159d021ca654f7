package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"core_innovators/internal/models"
)

const (
	readingColumns   = `id, created_at, co2_ppm, co_ppm, air_quality_ppm, smoke_ppm, flame_detected, motion_detected, relay_status`
	selectReadingSQL = `SELECT ` + readingColumns + ` FROM environment_data`
	latestReadingSQL = selectReadingSQL + ` ORDER BY created_at DESC, id DESC LIMIT 1`
	insertReadingSQL = `INSERT INTO environment_data (created_at, co2_ppm, co_ppm, air_quality_ppm, smoke_ppm, flame_detected, motion_detected, relay_status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// ReadingSQLite stores sensor readings in the environment_data table.
// NULL columns map to unknown channels.
type ReadingSQLite struct {
	db *sql.DB
}

var _ ReadingRepo = (*ReadingSQLite)(nil)

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

func (r *ReadingSQLite) Latest(ctx context.Context) (models.SensorReading, error) {
	out, err := scanReading(r.db.QueryRowContext(ctx, latestReadingSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SensorReading{}, nil
	}
	if err != nil {
		return models.SensorReading{}, fmt.Errorf("select latest reading: %w", err)
	}
	return out, nil
}

func (r *ReadingSQLite) Insert(ctx context.Context, s models.SensorReading) (int64, error) {
	at := s.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		sqliteTime(at),
		nullFloat(s.CO2PPM),
		nullFloat(s.COPPM),
		nullFloat(s.AirQualityPPM),
		nullFloat(s.SmokePPM),
		nullBool(s.FlameDetected),
		nullBool(s.MotionDetected),
		nullBool(s.RelayOn),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for reading: %w", err)
	}
	return id, nil
}

// List returns readings in [from, to] (zero bounds are open), newest first.
func (r *ReadingSQLite) List(ctx context.Context, from, to time.Time, limit int) ([]models.SensorReading, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, sqliteTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, sqliteTime(to))
	}
	q := selectReadingSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorReading, 0, limit)
	for rows.Next() {
		s, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (models.SensorReading, error) {
	var (
		s                    models.SensorReading
		co2, co, aq, smoke   sql.NullFloat64
		flame, motion, relay sql.NullBool
	)
	if err := row.Scan(&s.ID, &s.CreatedAt, &co2, &co, &aq, &smoke, &flame, &motion, &relay); err != nil {
		return models.SensorReading{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.CO2PPM = floatPtr(co2)
	s.COPPM = floatPtr(co)
	s.AirQualityPPM = floatPtr(aq)
	s.SmokePPM = floatPtr(smoke)
	s.FlameDetected = boolPtr(flame)
	s.MotionDetected = boolPtr(motion)
	s.RelayOn = boolPtr(relay)
	return s, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return models.Float(n.Float64)
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	return models.Bool(n.Bool)
}
