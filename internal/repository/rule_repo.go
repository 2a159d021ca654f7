package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"core_innovators/internal/models"
)

const (
	ruleColumns   = `id, condition, condition_value, action, enabled, created_at`
	listRulesSQL  = `SELECT ` + ruleColumns + ` FROM automation_rules ORDER BY created_at ASC, id ASC`
	getRuleSQL    = `SELECT ` + ruleColumns + ` FROM automation_rules WHERE id = ?`
	insertRuleSQL = `INSERT INTO automation_rules (` + ruleColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	updateRuleSQL = `UPDATE automation_rules SET condition = ?, condition_value = ?, action = ?, enabled = ? WHERE id = ?`
	deleteRuleSQL = `DELETE FROM automation_rules WHERE id = ?`
)

type RuleSQLite struct {
	db *sql.DB
}

var _ RuleRepo = (*RuleSQLite)(nil)

func NewRuleSQLite(db *sql.DB) *RuleSQLite { return &RuleSQLite{db: db} }

func (r *RuleSQLite) List(ctx context.Context) ([]models.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx, listRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []models.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *RuleSQLite) Get(ctx context.Context, id string) (models.AutomationRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, getRuleSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AutomationRule{}, ErrNotFound
	}
	if err != nil {
		return models.AutomationRule{}, fmt.Errorf("select rule %s: %w", id, err)
	}
	return rule, nil
}

func (r *RuleSQLite) Create(ctx context.Context, rule models.AutomationRule) error {
	at := rule.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, insertRuleSQL,
		rule.ID, rule.Condition, rule.ConditionValue, rule.Action, rule.Enabled, sqliteTime(at),
	); err != nil {
		return fmt.Errorf("insert rule %s: %w", rule.ID, err)
	}
	return nil
}

func (r *RuleSQLite) Update(ctx context.Context, rule models.AutomationRule) error {
	res, err := r.db.ExecContext(ctx, updateRuleSQL,
		rule.Condition, rule.ConditionValue, rule.Action, rule.Enabled, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule %s: %w", rule.ID, err)
	}
	return expectOneRow(res, rule.ID)
}

func (r *RuleSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteRuleSQL, id)
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func scanRule(row rowScanner) (models.AutomationRule, error) {
	var rule models.AutomationRule
	if err := row.Scan(&rule.ID, &rule.Condition, &rule.ConditionValue, &rule.Action, &rule.Enabled, &rule.CreatedAt); err != nil {
		return models.AutomationRule{}, err
	}
	rule.CreatedAt = rule.CreatedAt.UTC()
	return rule, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
