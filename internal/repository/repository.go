package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"core_innovators/internal/models"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUserExists is returned when a username is already taken, ignoring case.
var ErrUserExists = errors.New("username already taken")

// UserRepo stores household accounts. Lookups return ErrNotFound for a
// missing user.
type UserRepo interface {
	Create(ctx context.Context, u models.User) (int, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int) (models.User, error)
}

// ReadingRepo stores the environment_data feed. Latest returns a zero
// reading (ID 0, every channel nil) when the table is empty.
type ReadingRepo interface {
	Latest(ctx context.Context) (models.SensorReading, error)
	Insert(ctx context.Context, r models.SensorReading) (int64, error)
	List(ctx context.Context, from, to time.Time, limit int) ([]models.SensorReading, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.Event, error)
}

type RuleRepo interface {
	List(ctx context.Context) ([]models.AutomationRule, error)
	Get(ctx context.Context, id string) (models.AutomationRule, error)
	Create(ctx context.Context, r models.AutomationRule) error
	Update(ctx context.Context, r models.AutomationRule) error
	Delete(ctx context.Context, id string) error
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type AlertRepo interface {
	Append(ctx context.Context, rec models.AlertRecord) error
	MarkDelivered(ctx context.Context, id string, deliveryErr string) error
	Recent(ctx context.Context, limit int) ([]models.AlertRecord, error)
}

type Repository struct {
	Users    UserRepo
	Readings ReadingRepo
	Events   EventRepo
	Rules    RuleRepo
	Settings SettingsRepo
	Alerts   AlertRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:    NewUserSQLite(db),
		Readings: NewReadingSQLite(db),
		Events:   NewEventSQLite(db),
		Rules:    NewRuleSQLite(db),
		Settings: NewSettingsSQLite(db),
		Alerts:   NewAlertSQLite(db),
	}
}

// timeLayout is the SQLite TIMESTAMP text format used for every stored time.
const timeLayout = "2006-01-02 15:04:05"

func sqliteTime(t time.Time) string { return t.UTC().Format(timeLayout) }
