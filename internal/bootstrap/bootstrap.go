package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/core/usecase"
	"github.com/alizenart/closeted/internal/infrastructure/fetch"
	"github.com/alizenart/closeted/internal/infrastructure/identity"
	"github.com/alizenart/closeted/internal/infrastructure/imagesource"
	"github.com/alizenart/closeted/internal/infrastructure/llm/gemini"
	"github.com/alizenart/closeted/internal/infrastructure/llm/ollama"
	"github.com/alizenart/closeted/internal/infrastructure/llm/openai"
	"github.com/alizenart/closeted/internal/infrastructure/queue/nats"
	"github.com/alizenart/closeted/internal/infrastructure/repository/postgres"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
	"github.com/alizenart/closeted/internal/infrastructure/storage/localfs"
	"github.com/alizenart/closeted/internal/infrastructure/timers"
	"github.com/alizenart/closeted/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store   *localfs.Storage
	Metrics *metrics.HTTPServerMetrics

	Uploader    *usecase.UploadPipeline
	Assembler   *usecase.RecordAssembler
	Closet      *usecase.ClosetService
	Recommender *usecase.RecommendationService
	Timers      *usecase.TimerService
	Preferences *usecase.PreferencesService
	Stats       *usecase.StatsService

	closers []func()
}

// New wires the persistence layer for one process. The owner comes from the
// request context when present and from STATIC_OWNER_ID otherwise.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(ExecutorConfig(cfg))
	policy := RetryPolicy(cfg)
	owner := identity.Static{Owner: cfg.StaticOwnerID}

	store, err := localfs.New(cfg.StoragePath, localfs.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		SigningKey:    []byte(cfg.BlobURLSigningKey),
		URLTTL:        cfg.BlobURLTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}
	app.Store = store

	app.Metrics = metrics.NewHTTPServerMetrics(service)
	observer := metrics.NewPersistenceMetrics(service, app.Metrics.Registerer())

	fetcher := fetch.New(store, cfg.FetchTimeout)
	images := imagesource.New(fetcher)

	analyzer, err := app.newAnalyzer(ctx, cfg, fetcher, executor)
	if err != nil {
		return nil, err
	}

	var queue *nats.Queue
	if cfg.IndexMode == config.IndexModeAsync || cfg.TimersEnabled {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSIndexSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			return nil, fmt.Errorf("init nats: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
	}

	var indexer ports.RecordIndexer
	var indexReader ports.RecordIndexReader
	switch cfg.IndexMode {
	case config.IndexModeOff, "":
	case config.IndexModeInline, config.IndexModeAsync:
		repo, err := app.openIndex(cfg)
		if err != nil {
			return nil, err
		}
		indexReader = repo
		indexer = repo
		if cfg.IndexMode == config.IndexModeAsync {
			indexer = queue
		}
	default:
		return nil, fmt.Errorf("unknown INDEX_MODE %q", cfg.IndexMode)
	}

	var channel ports.TimerChannel = timers.NewMemoryStore()
	if cfg.TimersEnabled {
		kv, err := queue.Timers(cfg.NATSTimerBucket)
		if err != nil {
			return nil, fmt.Errorf("init timer bucket: %w", err)
		}
		channel = kv
	}

	uploadOpts := []usecase.UploadOption{usecase.WithUploadObserver(observer)}
	if analyzer != nil {
		uploadOpts = append(uploadOpts, usecase.WithAnalyzer(analyzer, cfg.AnalysisTimeout))
	}
	if indexer != nil {
		uploadOpts = append(uploadOpts, usecase.WithIndexer(indexer))
	}

	app.Uploader = usecase.NewUploadPipeline(images, store, owner, policy, uploadOpts...)
	app.Assembler = usecase.NewRecordAssembler(store, fetcher, owner, observer, policy)
	app.Closet = usecase.NewClosetService(app.Assembler)
	app.Recommender = usecase.NewRecommendationService(app.Assembler)
	app.Timers = usecase.NewTimerService(channel, app.Assembler, owner)
	app.Preferences = usecase.NewPreferencesService(store, fetcher, owner, policy)
	app.Stats = usecase.NewStatsService(indexReader, app.Assembler, owner)

	slog.Info("persistence_ready",
		"storage_path", cfg.StoragePath,
		"analyzer", cfg.AnalyzerProvider,
		"index_mode", cfg.IndexMode,
		"nats_timers", cfg.TimersEnabled,
		"signed_urls", store.SigningEnabled(),
	)
	ok = true
	return app, nil
}

func (a *App) newAnalyzer(ctx context.Context, cfg config.Config, fetcher ports.Fetcher, executor *resilience.Executor) (ports.ImageAnalyzer, error) {
	switch cfg.AnalyzerProvider {
	case config.AnalyzerNone, "":
		return nil, nil
	case config.AnalyzerOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel, fetcher)
		client.SetResilienceExecutor(executor)
		return client, nil
	case config.AnalyzerOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai analyzer")
		}
		client := openai.New(cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, fetcher)
		client.SetResilienceExecutor(executor)
		return client, nil
	case config.AnalyzerGemini:
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, fetcher)
		if err != nil {
			return nil, fmt.Errorf("init gemini analyzer: %w", err)
		}
		client.SetResilienceExecutor(executor)
		a.closers = append(a.closers, func() { _ = client.Close() })
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ANALYZER_PROVIDER %q", cfg.AnalyzerProvider)
	}
}

func (a *App) openIndex(cfg config.Config) (*postgres.RecordIndexRepository, error) {
	db, err := openIndexDB(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	return postgres.NewRecordIndexRepository(db), nil
}

func openIndexDB(cfg config.Config) (*sql.DB, error) {
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		return nil, fmt.Errorf("migrate record index: %w", err)
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
