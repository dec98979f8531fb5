package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/domain"
)

func TestRetrievalLogRepositoryCreateRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRetrievalLogRepository(db)
	record := domain.RetrievalRecord{
		ID:           "r-1",
		Query:        "what is attention",
		GateMode:     domain.GateGeneral,
		StrategyHits: map[domain.Strategy]int{domain.StrategyDense: 4, domain.StrategySparse: 2},
		ResultCount:  4,
		Duration:     120 * time.Millisecond,
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO retrieval_log").
		WithArgs(record.ID, record.Query, string(record.GateMode), sqlmock.AnyArg(),
			record.ResultCount, record.NoContext, int64(120), record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRetrievalLogRepositoryRecentRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewRetrievalLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "query", "gate_mode", "strategy_hits", "result_count", "no_context", "duration_ms", "created_at"}).
		AddRow("r-2", "follow-up", string(domain.GateContextual), []byte(`{"contextual":3}`), 3, false, int64(95), time.Now())

	mock.ExpectQuery("FROM retrieval_log").
		WithArgs(10).
		WillReturnRows(rows)

	records, err := repo.RecentRecords(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].GateMode != domain.GateContextual {
		t.Fatalf("unexpected gate mode %q", records[0].GateMode)
	}
	if records[0].StrategyHits[domain.StrategyContextual] != 3 {
		t.Fatalf("unexpected strategy hits %v", records[0].StrategyHits)
	}
	if records[0].Duration != 95*time.Millisecond {
		t.Fatalf("unexpected duration %v", records[0].Duration)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
