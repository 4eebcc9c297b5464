package medextract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/medextract/internal/medextract/biz"
	"github.com/kart-io/medextract/internal/medextract/cache"
	"github.com/kart-io/medextract/internal/medextract/handler"
	"github.com/kart-io/medextract/internal/medextract/router"
	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/pkg/component/blob"
	"github.com/kart-io/medextract/pkg/component/database"
	"github.com/kart-io/medextract/pkg/component/mysql"
	"github.com/kart-io/medextract/pkg/component/postgres"
	"github.com/kart-io/medextract/pkg/component/redis"
	"github.com/kart-io/medextract/pkg/component/sqlite"
	"github.com/kart-io/medextract/pkg/component/storage"
	"github.com/kart-io/medextract/pkg/infra/app"
	"github.com/kart-io/medextract/pkg/infra/pool"
	"github.com/kart-io/medextract/pkg/infra/server"
	"github.com/kart-io/medextract/pkg/llm"
	"github.com/kart-io/medextract/pkg/llm/resilience"
	blobopts "github.com/kart-io/medextract/pkg/options/blob"
	logopts "github.com/kart-io/medextract/pkg/options/logger"

	// 注册视觉模型供应商
	_ "github.com/kart-io/medextract/pkg/llm/gemini"
)

const (
	appName        = "medextract"
	appDescription = `medextract Document Extraction Server

Turns scanned medical documents (PDF, PNG, JPEG) into structured clinical
records using a vision model.

This server provides:
  - Synchronous page parsing for the first-party frontend (/api)
  - An asynchronous tenant API with per-tier queue limits and webhooks (/api/v1)
  - Document lookup, search and XLSX export
  - HTTP and gRPC health checks

Examples:
  # Start with the embedded SQLite store and local blob storage
  GEMINI_API_KEY=... medextract

  # Use PostgreSQL and Google Cloud Storage
  medextract --database.driver=postgres --database.postgres.host=db \
    --blob.driver=gcs --blob.bucket=medextract-pages

  # Use config file
  medextract -c /etc/medextract/medextract.yaml

Configuration:
  Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (prefix: MEDEXTRACT_)
  - Configuration file (YAML)
  - Default values (lowest priority)`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Medical document extraction server"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithConfigReload(func() {
			if err := logopts.ApplyLevel(opts.Log.Level); err != nil {
				logger.Warnw("ignoring invalid log level from config", "level", opts.Log.Level, "error", err.Error())
				return
			}
			logger.Infow("config reloaded", "log.level", opts.Log.Level)
		}),
		app.WithRunFunc(func() error {
			return Run(context.Background(), opts)
		}),
	)
}

// Run runs the medextract server with the given options until ctx is
// canceled or a termination signal arrives.
func Run(ctx context.Context, opts *Options) error {
	printBanner(opts)

	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting medextract service...")

	svc, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	// 8. 启动服务器，关闭时先排空任务池再释放连接
	serverManager := server.NewManager(opts.Server, svc.engine)
	// 关闭钩子按注册的逆序执行
	serverManager.OnShutdown(func(context.Context) error { return svc.storages.CloseAll() })
	serverManager.OnShutdown(func(context.Context) error { return svc.blobs.Close() })
	serverManager.OnShutdown(func(ctx context.Context) error {
		timeout := opts.Server.ShutdownTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := svc.workers.ReleaseTimeout(timeout); err != nil {
			return fmt.Errorf("drain job workers: %w", err)
		}
		return nil
	})

	logger.Info("medextract service is ready")
	return serverManager.Run(ctx)
}

// service holds the wired components behind the HTTP engine.
type service struct {
	engine    *gin.Engine
	store     store.Factory
	storages  *storage.Manager
	blobs     blob.Store
	workers   *pool.Pool
	tenants   biz.TenantLookup
	documents *biz.DocumentService
	jobs      *biz.JobService
}

// newService opens the backends and wires the business layer and routes.
// On error every backend opened so far is closed.
func newService(ctx context.Context, opts *Options) (*service, error) {
	// 2. 初始化数据库与存储层
	db, err := openDatabase(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	storeFactory := store.NewFactory(db.DB())
	if opts.Database.AutoMigrate {
		if err := storeFactory.AutoMigrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	storages := storage.NewManager()
	if err := storages.Register(db.Name(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// 3. 初始化租户缓存（可选）
	var tenants biz.TenantLookup = storeFactory.Tenants()
	if opts.Redis.Enabled {
		rdb, err := redis.New(ctx, opts.Redis)
		if err != nil {
			_ = storages.CloseAll()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		if err := storages.Register(rdb.Name(), rdb); err != nil {
			_ = rdb.Close()
			_ = storages.CloseAll()
			return nil, err
		}
		if opts.TenantCache.Enabled {
			tenants = cache.NewTenantCache(rdb.Client(), storeFactory.Tenants(), opts.TenantCacheConfig())
			logger.Infow("tenant cache enabled", "ttl", opts.TenantCache.TTL)
		}
	}

	// 4. 初始化视觉模型
	provider, err := llm.NewProvider(opts.Gemini.Provider, opts.Gemini.ToConfigMap())
	if err != nil {
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to create %s provider: %w", opts.Gemini.Provider, err)
	}
	provider = resilience.NewVisionProvider(provider, &resilience.BreakerConfig{
		Threshold: opts.Gemini.BreakerThreshold,
		Cooldown:  opts.Gemini.BreakerCooldown,
	})
	logger.Infow("vision provider ready", "provider", provider.Name(), "model", opts.Gemini.Model,
		"breaker_threshold", opts.Gemini.BreakerThreshold)

	// 5. 初始化对象存储
	blobs, err := blob.New(ctx, opts.Blob)
	if err != nil {
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	// 6. 初始化业务层
	extractor := biz.NewExtractor(provider, biz.ExtractorConfig{
		Temperature:     opts.Pipeline.ExtractionTemperature,
		MaxOutputTokens: opts.Pipeline.ExtractionMaxTokens,
	})
	var recommender *biz.Recommender
	if opts.Pipeline.RecommendationsEnabled {
		recommender = biz.NewRecommender(provider, biz.RecommenderConfig{
			Temperature:     opts.Pipeline.RecommendationTemperature,
			MaxOutputTokens: opts.Pipeline.RecommendationMaxTokens,
		})
	}
	pipeline := biz.NewPipeline(extractor, recommender, storeFactory.Documents(), biz.PipelineConfig{
		Timeout: opts.Pipeline.Timeout,
	})
	documents := biz.NewDocumentService(pipeline, blobs, storeFactory.Documents())

	workerConfig := opts.WorkerConfig()
	workerConfig.PanicHandler = func(p any) {
		logger.Errorw("job worker panicked", "panic", p)
	}
	workers, err := pool.NewPool("job-worker", workerConfig)
	if err != nil {
		_ = blobs.Close()
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	jobs := biz.NewJobService(tenants, storeFactory.Jobs(), documents, biz.NewWebhookNotifier(opts.Webhook.Timeout), workers)

	// 7. 注册路由
	gin.SetMode(opts.Server.HTTP.Mode)
	engine := router.New()
	limits := handler.UploadLimits{MaxFileSize: opts.Upload.MaxFileSize, MaxFiles: opts.Upload.MaxFiles}
	router.Register(engine, &router.Handlers{
		Documents: handler.NewDocumentHandler(documents, limits),
		Tenants:   handler.NewTenantHandler(jobs, documents, limits),
		Health:    handler.NewHealthHandler(storages),
	}, staticFiles(opts.Blob))
	logger.Info("HTTP routes registered")

	return &service{
		engine:    engine,
		store:     storeFactory,
		storages:  storages,
		blobs:     blobs,
		workers:   workers,
		tenants:   tenants,
		documents: documents,
		jobs:      jobs,
	}, nil
}

func openDatabase(ctx context.Context, opts *DatabaseOptions) (*database.Client, error) {
	switch opts.Driver {
	case DriverPostgres:
		return postgres.New(ctx, opts.Postgres)
	case DriverMySQL:
		return mysql.New(ctx, opts.MySQL)
	case DriverSQLite:
		return sqlite.New(ctx, opts.SQLitePath, opts.SQLiteLogLevel)
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
}

// staticFiles serves the local blob directory under the path of its public
// base URL. Remote buckets serve themselves.
func staticFiles(opts *blobopts.Options) router.StaticFiles {
	if opts.Driver != blobopts.DriverLocal {
		return router.StaticFiles{}
	}
	u, err := url.Parse(opts.PublicBaseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return router.StaticFiles{}
	}
	return router.StaticFiles{Path: u.Path, Dir: opts.LocalDir}
}

// printBanner prints the startup banner.
func printBanner(opts *Options) {
	fmt.Println("===========================================")
	fmt.Println("  medextract Document Extraction Server")
	fmt.Println("===========================================")
	fmt.Printf("Version: %s\n", app.GetVersion())
	fmt.Printf("HTTP: %s\n", opts.Server.HTTP.Addr)
	if opts.Server.GRPC.Enabled {
		fmt.Printf("gRPC: %s\n", opts.Server.GRPC.Addr)
	}

	fmt.Println("-------------------------------------------")
	fmt.Println("Configuration:")
	fmt.Printf("  Logger: level=%s, format=%s\n", opts.Log.Level, opts.Log.Format)
	switch opts.Database.Driver {
	case DriverPostgres:
		fmt.Printf("  Database: postgres %s:%d/%s\n", opts.Database.Postgres.Host, opts.Database.Postgres.Port, opts.Database.Postgres.Database)
	case DriverMySQL:
		fmt.Printf("  Database: mysql %s:%d/%s\n", opts.Database.MySQL.Host, opts.Database.MySQL.Port, opts.Database.MySQL.Database)
	default:
		fmt.Printf("  Database: sqlite %s\n", opts.Database.SQLitePath)
	}
	if opts.Redis.Enabled {
		fmt.Printf("  Redis: %s (db=%d, tenant cache=%t)\n", opts.Redis.Addr(), opts.Redis.Database, opts.TenantCache.Enabled)
	}
	fmt.Printf("  Model: %s/%s\n", opts.Gemini.Provider, opts.Gemini.Model)
	fmt.Printf("  Blob: %s\n", opts.Blob.Driver)
	fmt.Printf("  Workers: %d (queue %d)\n", opts.Worker.Capacity, opts.Worker.MaxBlockingTasks)

	fmt.Println("-------------------------------------------")
	fmt.Println("Endpoints:")
	fmt.Printf("  Health: http://localhost%s/healthz\n", opts.Server.HTTP.Addr)
	fmt.Printf("  Tenant API: http://localhost%s/api/v1/parse\n", opts.Server.HTTP.Addr)
	fmt.Println("-------------------------------------------")
	fmt.Println("Press Ctrl+C to gracefully shutdown")
	fmt.Println()
}
