package app

import (
	"context"
	"errors"
	"net/http"

	"quiz-rag/internal/adapter"
	"quiz-rag/internal/adapter/loader"
	"quiz-rag/internal/adapter/provider"
	"quiz-rag/internal/cache"
	"quiz-rag/internal/chunker"
	"quiz-rag/internal/config"
	"quiz-rag/internal/database"
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/repository"
	"quiz-rag/internal/retriever"
	"quiz-rag/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App wires configuration into the services shared by the API server and
// the command line client.
type App struct {
	Config *config.Config

	DB    *sqlx.DB
	Redis *redis.Client

	Sessions  *service.SessionStore
	Ingestion service.IngestionService
	Quizzes   service.QuizService
	Attempts  service.AttemptService
}

// New connects the optional database and cache and builds the services.
// An empty db.driver or redis.address disables that dependency. The caller
// must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	l := logger.Get()
	a := &App{Config: cfg}

	var (
		resources domain.ResourceRepository
		attempts  domain.AttemptRepository
	)
	if cfg.DB.Driver != "" {
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(ctx, cfg, database.Up); err != nil {
				return nil, err
			}
		}
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.DB = db
		resources = repository.NewResourceRepository(db)
		attempts = repository.NewAttemptRepository(db)
	} else {
		l.Warn("No database configured, quiz attempts will not be saved")
	}

	var embeddingCache domain.Cache
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			l.Warn("Redis unavailable, embedding cache disabled", zap.Error(err))
		} else {
			l.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
			a.Redis = client
			embeddingCache = adapter.NewRedisCacheAdapter(client)
		}
	}

	factory := provider.NewFactory(cfg.Embedding, cfg.LLM, embeddingCache, cfg.Session.TTL)

	sourceLoader := loader.NewSourceLoader(
		loader.NewPDFLoader(),
		loader.NewTranscriptLoader(&http.Client{Timeout: cfg.Transcript.Timeout}, cfg.Transcript.Language),
	)
	chunkCfg := chunker.DefaultConfig()
	if cfg.RAG.ChunkSize > 0 {
		chunkCfg.ChunkSize = cfg.RAG.ChunkSize
	}
	if cfg.RAG.ChunkOverlap >= 0 {
		chunkCfg.ChunkOverlap = cfg.RAG.ChunkOverlap
	}
	if err := chunkCfg.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	a.Sessions = service.NewSessionStore(factory, cfg.Session.TTL)
	a.Ingestion = service.NewIngestionService(sourceLoader, chunkCfg, resources)
	a.Quizzes = service.NewQuizService(retriever.New(cfg.RAG.RetrievalQuery, cfg.RAG.TopK), attempts, cfg.RAG.MaxQuestions)
	a.Attempts = service.NewAttemptService(attempts)

	l.Info("Services initialized",
		zap.String("embeddingSource", cfg.Embedding.Source),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.Bool("persistence", a.DB != nil),
		zap.Bool("embeddingCache", embeddingCache != nil),
	)
	return a, nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
