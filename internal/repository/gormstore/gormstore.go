// Package gormstore reads and writes the environment_data feed in an
// external postgres or mysql database.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported readings driver")

// Pool holds connection pool limits for the external database.
type Pool struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to driver ("postgres" or "mysql") at dsn.
func Open(driver, dsn string, pool Pool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// environmentRow maps one environment_data row. Nullable columns stay nil
// until the sensor reports.
type environmentRow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt      time.Time `gorm:"index;not null"`
	CO2PPM         *float64  `gorm:"column:co2_ppm"`
	COPPM          *float64  `gorm:"column:co_ppm"`
	AirQualityPPM  *float64  `gorm:"column:air_quality_ppm"`
	SmokePPM       *float64  `gorm:"column:smoke_ppm"`
	FlameDetected  *bool     `gorm:"column:flame_detected"`
	MotionDetected *bool     `gorm:"column:motion_detected"`
	RelayStatus    *bool     `gorm:"column:relay_status"`
}

func (environmentRow) TableName() string { return "environment_data" }

func (r environmentRow) reading() models.SensorReading {
	return models.SensorReading{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt.UTC(),
		CO2PPM:         r.CO2PPM,
		COPPM:          r.COPPM,
		AirQualityPPM:  r.AirQualityPPM,
		SmokePPM:       r.SmokePPM,
		FlameDetected:  r.FlameDetected,
		MotionDetected: r.MotionDetected,
		RelayOn:        r.RelayStatus,
	}
}

func rowOf(s models.SensorReading) environmentRow {
	return environmentRow{
		CreatedAt:      s.CreatedAt.UTC(),
		CO2PPM:         s.CO2PPM,
		COPPM:          s.COPPM,
		AirQualityPPM:  s.AirQualityPPM,
		SmokePPM:       s.SmokePPM,
		FlameDetected:  s.FlameDetected,
		MotionDetected: s.MotionDetected,
		RelayStatus:    s.RelayOn,
	}
}

// ReadingStore implements repository.ReadingRepo on gorm.
type ReadingStore struct {
	db *gorm.DB
}

var _ repository.ReadingRepo = (*ReadingStore)(nil)

func NewReadingStore(db *gorm.DB) *ReadingStore { return &ReadingStore{db: db} }

// Migrate creates the environment_data table when it does not exist.
func (s *ReadingStore) Migrate() error {
	if err := s.db.AutoMigrate(&environmentRow{}); err != nil {
		return fmt.Errorf("migrate environment_data: %w", err)
	}
	return nil
}

func (s *ReadingStore) Latest(ctx context.Context) (models.SensorReading, error) {
	var rows []environmentRow
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return models.SensorReading{}, fmt.Errorf("select latest reading: %w", err)
	}
	if len(rows) == 0 {
		return models.SensorReading{}, nil
	}
	return rows[0].reading(), nil
}

func (s *ReadingStore) Insert(ctx context.Context, r models.SensorReading) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	row := rowOf(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	return row.ID, nil
}

func (s *ReadingStore) List(ctx context.Context, from, to time.Time, limit int) ([]models.SensorReading, error) {
	q := s.db.WithContext(ctx).Model(&environmentRow{})
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("created_at <= ?", to.UTC())
	}

	var rows []environmentRow
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	out := make([]models.SensorReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.reading())
	}
	return out, nil
}
