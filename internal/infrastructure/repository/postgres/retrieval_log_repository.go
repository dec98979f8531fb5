package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

type RetrievalLogRepository struct {
	db *sql.DB
}

func NewRetrievalLogRepository(db *sql.DB) *RetrievalLogRepository {
	return &RetrievalLogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RetrievalLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS retrieval_log (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	gate_mode TEXT NOT NULL,
	strategy_hits JSONB NOT NULL DEFAULT '{}'::jsonb,
	result_count INTEGER NOT NULL DEFAULT 0,
	no_context BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_retrieval_log_created_at ON retrieval_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_retrieval_log_gate_mode ON retrieval_log(gate_mode);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RetrievalLogRepository) CreateRecord(ctx context.Context, record domain.RetrievalRecord) error {
	hitsJSON, err := json.Marshal(record.StrategyHits)
	if err != nil {
		return fmt.Errorf("marshal strategy hits: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO retrieval_log (id, query, gate_mode, strategy_hits, result_count, no_context, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, record.Query, string(record.GateMode), hitsJSON,
		record.ResultCount, record.NoContext, record.Duration.Milliseconds(), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert retrieval record: %w", err)
	}
	return nil
}

// RecentRecords returns the newest audit entries, for the debug endpoint.
func (r *RetrievalLogRepository) RecentRecords(ctx context.Context, limit int) ([]domain.RetrievalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, query, gate_mode, strategy_hits, result_count, no_context, duration_ms, created_at
FROM retrieval_log
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list retrieval records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RetrievalRecord, 0, limit)
	for rows.Next() {
		var record domain.RetrievalRecord
		var gateMode string
		var hitsRaw []byte
		var durationMS int64
		err := rows.Scan(
			&record.ID, &record.Query, &gateMode, &hitsRaw,
			&record.ResultCount, &record.NoContext, &durationMS, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan retrieval record: %w", err)
		}
		if err := json.Unmarshal(hitsRaw, &record.StrategyHits); err != nil {
			return nil, fmt.Errorf("unmarshal strategy hits: %w", err)
		}
		record.GateMode = domain.GateMode(gateMode)
		record.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retrieval records: %w", err)
	}
	return out, nil
}
