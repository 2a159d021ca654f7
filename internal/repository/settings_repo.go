package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	getSettingSQL    = `SELECT value FROM settings WHERE key = ?`
	upsertSettingSQL = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SettingsSQLite is a key/value store for user preferences.
type SettingsSQLite struct {
	db *sql.DB
}

var _ SettingsRepo = (*SettingsSQLite)(nil)

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

func (r *SettingsSQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, getSettingSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select setting %q: %w", key, err)
	}
	return v, true, nil
}

func (r *SettingsSQLite) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertSettingSQL, key, value, sqliteTime(time.Now())); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}
