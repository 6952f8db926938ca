package bootstrap

import (
	"context"
	"fmt"

	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/core/usecase"
	"github.com/alizenart/closeted/internal/infrastructure/queue/nats"
	"github.com/alizenart/closeted/internal/infrastructure/repository/postgres"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

// Worker projects record-indexed events into postgres.
type Worker struct {
	Config    config.Config
	Events    ports.IndexEventSubscriber
	Projector *usecase.IndexProjector

	closers []func()
}

func NewWorker(_ context.Context, cfg config.Config) (*Worker, error) {
	db, err := openIndexDB(cfg)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewRecordIndexRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIndexSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(ExecutorConfig(cfg)),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init nats: %w", err)
	}

	return &Worker{
		Config:    cfg,
		Events:    queue,
		Projector: usecase.NewIndexProjector(repo, RetryPolicy(cfg)),
		closers: []func(){
			queue.Close,
			func() { _ = db.Close() },
		},
	}, nil
}

func (w *Worker) Close() {
	for _, closeFn := range w.closers {
		closeFn()
	}
	w.closers = nil
}
