package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"core_innovators/internal/models"
)

const (
	insertAlertSQL   = `INSERT INTO alerts (id, created_at, recipient, message, sensors, delivered, error) VALUES (?, ?, ?, ?, ?, ?, ?)`
	markDeliveredSQL = `UPDATE alerts SET delivered = ?, error = ? WHERE id = ?`
	recentAlertsSQL  = `SELECT id, created_at, recipient, message, sensors, delivered, error FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?`
)

// AlertSQLite keeps the outbound alert history.
type AlertSQLite struct {
	db *sql.DB
}

var _ AlertRepo = (*AlertSQLite)(nil)

func NewAlertSQLite(db *sql.DB) *AlertSQLite { return &AlertSQLite{db: db} }

func (r *AlertSQLite) Append(ctx context.Context, rec models.AlertRecord) error {
	sensors, err := json.Marshal(rec.Sensors)
	if err != nil {
		return fmt.Errorf("encode alert sensors: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, insertAlertSQL,
		rec.ID, sqliteTime(rec.At), rec.Recipient, rec.Message, string(sensors), rec.Delivered, rec.Error,
	); err != nil {
		return fmt.Errorf("insert alert %s: %w", rec.ID, err)
	}
	return nil
}

// MarkDelivered records the outcome of a delivery. An empty deliveryErr
// means success.
func (r *AlertSQLite) MarkDelivered(ctx context.Context, id string, deliveryErr string) error {
	res, err := r.db.ExecContext(ctx, markDeliveredSQL, deliveryErr == "", deliveryErr, id)
	if err != nil {
		return fmt.Errorf("update alert %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// Recent returns up to limit alerts, newest first.
func (r *AlertSQLite) Recent(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	rows, err := r.db.QueryContext(ctx, recentAlertsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertRecord, 0, limit)
	for rows.Next() {
		var (
			rec     models.AlertRecord
			sensors string
		)
		if err := rows.Scan(&rec.ID, &rec.At, &rec.Recipient, &rec.Message, &sensors, &rec.Delivered, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		rec.At = rec.At.UTC()
		if err := json.Unmarshal([]byte(sensors), &rec.Sensors); err != nil {
			return nil, fmt.Errorf("decode alert %s sensors: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
