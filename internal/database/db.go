package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Alias1177/MarketRegime/internal/regime"
)

// DB represents a database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// EvaluationRecord is one persisted engine run
type EvaluationRecord struct {
	ID          int64           `json:"id"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
	AsOf        string          `json:"as_of"`
	Regime      regime.Code     `json:"regime"`
	Qualified   []regime.Code   `json:"qualified"`
	Details     json.RawMessage `json:"details"`
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return Wrap(ctx, db)
}

// Wrap adopts an open connection and makes sure the schema exists
func Wrap(ctx context.Context, db *sql.DB) (*DB, error) {
	if err := createTables(ctx, db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &DB{DB: db, now: time.Now}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS regime_evaluations (
			id BIGSERIAL PRIMARY KEY,
			evaluated_at TIMESTAMPTZ NOT NULL,
			as_of TEXT NOT NULL,
			regime TEXT NOT NULL,
			qualified TEXT[] NOT NULL,
			details JSONB NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS regime_evaluations_evaluated_at_idx
		ON regime_evaluations (evaluated_at DESC)
	`)
	return err
}

type storedDetails struct {
	Market  regime.MarketContext     `json:"market"`
	Results []regime.ConditionResult `json:"results"`
}

// SaveEvaluation stores an evaluation with its full diagnostics
func (db *DB) SaveEvaluation(ctx context.Context, ev *regime.Evaluation) (int64, error) {
	details, err := json.Marshal(storedDetails{Market: ev.Market, Results: ev.Results})
	if err != nil {
		return 0, fmt.Errorf("encoding details: %w", err)
	}

	qualified := make([]string, len(ev.Qualified))
	for i, c := range ev.Qualified {
		qualified[i] = string(c)
	}

	var id int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO regime_evaluations (evaluated_at, as_of, regime, qualified, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, db.now().UTC(), ev.AsOf, string(ev.Regime), pq.Array(qualified), details).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving evaluation: %w", err)
	}

	return id, nil
}

// LatestRegime returns the regime of the newest stored evaluation. ok is
// false when nothing has been stored yet.
func (db *DB) LatestRegime(ctx context.Context) (code regime.Code, ok bool, err error) {
	var raw string
	err = db.QueryRowContext(ctx, `
		SELECT regime
		FROM regime_evaluations
		ORDER BY evaluated_at DESC, id DESC
		LIMIT 1
	`).Scan(&raw)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return regime.None, false, nil
		}
		return regime.None, false, fmt.Errorf("loading latest regime: %w", err)
	}

	code, err = regime.ParseCode(raw)
	if err != nil {
		return regime.None, false, err
	}
	return code, true, nil
}

// History returns up to limit evaluations, newest first
func (db *DB) History(ctx context.Context, limit int) ([]EvaluationRecord, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, evaluated_at, as_of, regime, qualified, details
		FROM regime_evaluations
		ORDER BY evaluated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var records []EvaluationRecord
	for rows.Next() {
		var (
			rec       EvaluationRecord
			code      string
			qualified []string
			details   []byte
		)
		if err := rows.Scan(&rec.ID, &rec.EvaluatedAt, &rec.AsOf, &code, pq.Array(&qualified), &details); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}

		rec.Regime = regime.Code(code)
		rec.Qualified = make([]regime.Code, len(qualified))
		for i, q := range qualified {
			rec.Qualified[i] = regime.Code(q)
		}
		rec.Details = json.RawMessage(details)
		records = append(records, rec)
	}

	return records, rows.Err()
}
