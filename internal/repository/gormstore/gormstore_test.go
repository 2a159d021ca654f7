package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"core_innovators/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newStore(t *testing.T) (*ReadingStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewReadingStore(db), mock
}

var cols = []string{"id", "created_at", "co2_ppm", "co_ppm", "air_quality_ppm", "smoke_ppm", "flame_detected", "motion_detected", "relay_status"}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "", Pool{})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestLatest(t *testing.T) {
	at := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	t.Run("row", func(t *testing.T) {
		store, mock := newStore(t)
		mock.ExpectQuery(`SELECT \* FROM "environment_data" ORDER BY created_at DESC, id DESC`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), at, 900.0, nil, 30.0, 12.0, true, nil, nil))

		got, err := store.Latest(testCtx(t))
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, at, got.CreatedAt)
		assert.Equal(t, 900.0, *got.CO2PPM)
		assert.Nil(t, got.COPPM)
		assert.True(t, *got.FlameDetected)
		assert.Nil(t, got.RelayOn)
	})

	t.Run("empty", func(t *testing.T) {
		store, mock := newStore(t)
		mock.ExpectQuery(`SELECT \* FROM "environment_data"`).WillReturnRows(sqlmock.NewRows(cols))

		got, err := store.Latest(testCtx(t))
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})

	t.Run("error", func(t *testing.T) {
		store, mock := newStore(t)
		mock.ExpectQuery(`SELECT \* FROM "environment_data"`).WillReturnError(errors.New("conn reset"))

		_, err := store.Latest(testCtx(t))
		assert.ErrorContains(t, err, "select latest reading")
	})
}

func TestInsert_ReturnsID(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(`INSERT INTO "environment_data"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	id, err := store.Insert(testCtx(t), models.SensorReading{CO2PPM: models.Float(640)})
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
}

func TestList_AppliesBounds(t *testing.T) {
	store, mock := newStore(t)
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	mock.ExpectQuery(`SELECT \* FROM "environment_data" WHERE created_at >= \$1 AND created_at <= \$2 ORDER BY created_at DESC, id DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), to, 500.0, 2.0, 20.0, 10.0, false, true, true).
			AddRow(int64(1), from, nil, nil, nil, nil, nil, nil, nil))

	got, err := store.List(testCtx(t), from, to, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, *got[0].RelayOn)
	assert.True(t, got[1].IsEmpty())
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}
