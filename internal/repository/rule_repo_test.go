package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"core_innovators/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleCols = []string{"id", "condition", "condition_value", "action", "enabled", "created_at"}

func TestRuleList(t *testing.T) {
	t.Parallel()
	db, mock := mockDB(t)
	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(listRulesSQL)).
		WillReturnRows(sqlmock.NewRows(ruleCols).
			AddRow("r1", "gas", "> 70", "turn_fan_on", true, at).
			AddRow("r2", "motion", "detected", "turn_light_on", false, at))

	got, err := NewRuleSQLite(db).List(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, []models.AutomationRule{
		{ID: "r1", Condition: "gas", ConditionValue: "> 70", Action: "turn_fan_on", Enabled: true, CreatedAt: at},
		{ID: "r2", Condition: "motion", ConditionValue: "detected", Action: "turn_light_on", Enabled: false, CreatedAt: at},
	}, got)
}

func TestRuleGet_NotFound(t *testing.T) {
	t.Parallel()
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(getRuleSQL)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(ruleCols))

	_, err := NewRuleSQLite(db).Get(testCtx(t), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleCreate(t *testing.T) {
	t.Parallel()
	db, mock := mockDB(t)
	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(insertRuleSQL)).
		WithArgs("r1", "co2", ">= 1000", "set_purifier_power", true, "2025-08-01 09:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewRuleSQLite(db).Create(testCtx(t), models.AutomationRule{
		ID: "r1", Condition: "co2", ConditionValue: ">= 1000", Action: "set_purifier_power", Enabled: true, CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestRuleUpdate(t *testing.T) {
	t.Parallel()
	rule := models.AutomationRule{ID: "r1", Condition: "smoke", ConditionValue: "> 100", Action: "trigger_alarm", Enabled: false}

	t.Run("ok", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(updateRuleSQL)).
			WithArgs("smoke", "> 100", "trigger_alarm", false, "r1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, NewRuleSQLite(db).Update(testCtx(t), rule))
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(updateRuleSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, NewRuleSQLite(db).Update(testCtx(t), rule), ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(updateRuleSQL)).
			WillReturnError(errors.New("locked"))
		err := NewRuleSQLite(db).Update(testCtx(t), rule)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRuleDelete(t *testing.T) {
	t.Parallel()
	db, mock := mockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteRuleSQL)).WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteRuleSQL)).WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRuleSQLite(db)
	require.NoError(t, repo.Delete(testCtx(t), "r1"))
	assert.ErrorIs(t, repo.Delete(testCtx(t), "r1"), ErrNotFound)
}
