package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS regime_evaluations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS regime_evaluations_evaluated_at_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	db, err := Wrap(context.Background(), sqlDB)
	require.NoError(t, err)
	db.now = func() time.Time { return time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC) }
	return db, mock
}

func TestSaveEvaluation(t *testing.T) {
	db, mock := newMockDB(t)

	ev := &regime.Evaluation{
		Regime:    regime.Bear,
		Qualified: []regime.Code{regime.Bear},
		Results:   []regime.ConditionResult{{Regime: regime.Bear, Qualified: true}},
		AsOf:      "2024-02-29",
	}

	mock.ExpectQuery("INSERT INTO regime_evaluations").
		WithArgs(sqlmock.AnyArg(), "2024-02-29", "bear", pq.Array([]string{"bear"}), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := db.SaveEvaluation(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestRegime(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT regime").
		WillReturnRows(sqlmock.NewRows([]string{"regime"}))
	mock.ExpectQuery("SELECT regime").
		WillReturnRows(sqlmock.NewRows([]string{"regime"}).AddRow("correction"))

	_, ok, err := db.LatestRegime(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "empty table")

	code, ok, err := db.LatestRegime(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, regime.Correction, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	db, mock := newMockDB(t)

	at := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, evaluated_at, as_of, regime, qualified, details").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "evaluated_at", "as_of", "regime", "qualified", "details"}).
			AddRow(2, at, "2024-03-01", "bull", "{bull,correction}", []byte(`{"results":[]}`)).
			AddRow(1, at.Add(-24*time.Hour), "2024-02-29", "", "{}", []byte(`{}`)))

	records, err := db.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, regime.Bull, records[0].Regime)
	assert.Equal(t, []regime.Code{regime.Bull, regime.Correction}, records[0].Qualified)
	assert.JSONEq(t, `{"results":[]}`, string(records[0].Details))
	assert.Equal(t, regime.None, records[1].Regime)
	assert.Empty(t, records[1].Qualified)

	out, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"regime":"bull"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
