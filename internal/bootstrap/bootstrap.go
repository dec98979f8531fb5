package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/localai-community/ai-assistant-tobee-sub000/internal/config"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/ports"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/core/usecase"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/llm/ollama"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/nlp"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/queue/nats"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/repository/postgres"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/resilience"
	"github.com/localai-community/ai-assistant-tobee-sub000/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Retrieval ports.RetrievalService
	AuditLog  ports.RetrievalLogReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var (
		auditStore  ports.RetrievalLogStore
		auditReader ports.RetrievalLogReader
		closers     []func()
	)
	if cfg.AuditLogEnabled {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewRetrievalLogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		auditStore = repo
		auditReader = repo
		closers = append(closers, func() { _ = db.Close() })
	}

	var events ports.EventPublisher
	if cfg.NATSEnabled {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
		closers = append(closers, publisher.Close)
	}

	llmClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	vectors := qdrant.NewIndex(cfg.QdrantURL, cfg.QdrantCollection, llmClient, executor)
	keywords := qdrant.NewKeywordIndex(cfg.QdrantURL, cfg.QdrantCollection, executor)
	entities := nlp.NewExtractor()

	engine := usecase.NewRetrievalEngine(vectors, keywords, entities, llmClient, auditStore, events, usecase.EngineLimits{
		StrategyTimeout:      time.Duration(cfg.StrategyTimeoutMillis) * time.Millisecond,
		GateTimeout:          time.Duration(cfg.GateTimeoutMillis) * time.Millisecond,
		ExpandTimeout:        time.Duration(cfg.ExpandTimeoutMillis) * time.Millisecond,
		DenseCandidateFactor: cfg.DenseCandidateFactor,
		ExpandedDiscount:     cfg.ExpandedStrategyWeight,
		EntityBoost:          cfg.EntityStrategyBoost,
		ContextMatchBonus:    cfg.ContextMatchBonus,
		ContextMissPenalty:   cfg.ContextMissPenalty,
		MaxQueryEntities:     cfg.MaxQueryEntities,
		MaxAnchorTerms:       cfg.MaxAnchorTerms,
	})

	return &App{
		Config:    cfg,
		Retrieval: engine,
		AuditLog:  auditReader,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
