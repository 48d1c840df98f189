package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"avidoc/internal/ai"
	appsvc "avidoc/internal/app"
	"avidoc/internal/cache"
	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	mysqlClient "avidoc/internal/platform/mysql"
	rabbitmqClient "avidoc/internal/platform/rabbitmq"
	redisClient "avidoc/internal/platform/redis"
	"avidoc/internal/repository"
	"avidoc/internal/vectorstore"
	"avidoc/internal/worker"
)

// App holds every wired dependency. Redis and RabbitMQ are optional: when
// disabled in configuration the client fields stay nil and the features
// they back (query embedding cache, async link inference) are skipped.
type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	VectorStore vectorstore.Store
	Graph       *graph.KnowledgeGraph

	DocRepo   *repository.DocumentRepository
	ChunkRepo *repository.ChunkRepository
	ParamRepo *repository.ParameterRepository
	LinkRepo  *repository.LinkRepository
	UserRepo  *repository.UserRepository

	AuthService       *appsvc.AuthService
	IngestService     *appsvc.IngestService
	RAGService        *appsvc.RAGService
	GraphService      *appsvc.GraphService
	ValidationService *appsvc.ValidationService

	LinkWorker *worker.LinkInferenceWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Chunk{},
		&model.DocumentLink{},
		&model.Parameter{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var redisCli *redis.Client
	if cfg.Redis.Enabled {
		redisCli, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
	}

	var mqConn *amqp.Connection
	if cfg.RabbitMQ.Enabled {
		mqConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
	}

	store, err := vectorstore.New(cfg.Vector)
	if err != nil {
		return nil, err
	}

	embedder, generator, err := ai.NewProviders(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx, embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure vector collection failed: %w", err)
	}

	kg := graph.NewKnowledgeGraph()

	docRepo := repository.NewDocumentRepository(mysqlDB)
	chunkRepo := repository.NewChunkRepository(mysqlDB)
	paramRepo := repository.NewParameterRepository(mysqlDB)
	linkRepo := repository.NewLinkRepository(mysqlDB)
	userRepo := repository.NewUserRepository(mysqlDB)

	var publisher *rabbitmqClient.IngestPublisher
	if mqConn != nil {
		publisher = rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)
	}

	queryCache := cache.NewQueryCache(redisCli, time.Duration(cfg.Redis.QueryTTLSeconds)*time.Second)

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	ingestService := appsvc.NewIngestService(
		cfg.Ingest,
		docRepo, chunkRepo, paramRepo, linkRepo,
		embedder, store, kg, publisher,
	)
	ragService := appsvc.NewRAGService(
		cfg.Retrieval,
		docRepo, embedder, generator, store, kg, queryCache,
	)
	graphService := appsvc.NewGraphService(cfg.Graph, docRepo, linkRepo, kg)
	validationService := appsvc.NewValidationService(cfg.Validation, docRepo, paramRepo, kg)

	if err := graphService.Hydrate(); err != nil {
		return nil, fmt.Errorf("hydrate knowledge graph failed: %w", err)
	}

	var linkWorker *worker.LinkInferenceWorker
	if mqConn != nil {
		linkWorker = worker.NewLinkInferenceWorker(mqConn, docRepo, linkRepo, kg, cfg.RabbitMQ.IngestQueue)
		if err := linkWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start link worker failed: %w", err)
		}
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		VectorStore: store,
		Graph:       kg,

		DocRepo:   docRepo,
		ChunkRepo: chunkRepo,
		ParamRepo: paramRepo,
		LinkRepo:  linkRepo,
		UserRepo:  userRepo,

		AuthService:       authService,
		IngestService:     ingestService,
		RAGService:        ragService,
		GraphService:      graphService,
		ValidationService: validationService,

		LinkWorker: linkWorker,

		StartedAt: time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.LinkWorker != nil {
		a.LinkWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
