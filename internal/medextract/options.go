// Package medextract wires the medical document extraction service.
package medextract

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/medextract/internal/medextract/biz"
	"github.com/kart-io/medextract/internal/medextract/cache"
	"github.com/kart-io/medextract/pkg/infra/app"
	"github.com/kart-io/medextract/pkg/infra/pool"
	blobopts "github.com/kart-io/medextract/pkg/options/blob"
	llmopts "github.com/kart-io/medextract/pkg/options/llm"
	logopts "github.com/kart-io/medextract/pkg/options/logger"
	mysqlopts "github.com/kart-io/medextract/pkg/options/mysql"
	pgopts "github.com/kart-io/medextract/pkg/options/postgres"
	redisopts "github.com/kart-io/medextract/pkg/options/redis"
	serveropts "github.com/kart-io/medextract/pkg/options/server"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

var _ app.CliOptions = (*Options)(nil)

// Options contains all medextract options.
type Options struct {
	// Server contains server configuration (HTTP/gRPC).
	Server *serveropts.Options `json:"server" mapstructure:"server"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Database selects and configures the relational store.
	Database *DatabaseOptions `json:"database" mapstructure:"database"`

	// Redis backs the tenant cache.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`

	// TenantCache configures API key lookups through Redis.
	TenantCache *TenantCacheOptions `json:"tenant-cache" mapstructure:"tenant-cache"`

	// Gemini configures the vision model provider.
	Gemini *llmopts.ProviderOptions `json:"gemini" mapstructure:"gemini"`

	// Blob configures page storage.
	Blob *blobopts.Options `json:"blob" mapstructure:"blob"`

	// Pipeline tunes extraction and recommendation calls.
	Pipeline *PipelineOptions `json:"pipeline" mapstructure:"pipeline"`

	// Worker sizes the background job pool.
	Worker *WorkerOptions `json:"worker" mapstructure:"worker"`

	// Webhook configures callback delivery.
	Webhook *WebhookOptions `json:"webhook" mapstructure:"webhook"`

	// Upload limits multipart uploads.
	Upload *UploadOptions `json:"upload" mapstructure:"upload"`
}

// DatabaseOptions 数据库配置。
type DatabaseOptions struct {
	// Driver 数据库驱动：postgres、mysql 或 sqlite。
	Driver string `json:"driver" mapstructure:"driver"`
	// Postgres PostgreSQL 连接配置。
	Postgres *pgopts.Options `json:"postgres" mapstructure:"postgres"`
	// MySQL MySQL 连接配置。
	MySQL *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`
	// SQLitePath SQLite 数据库文件路径。
	SQLitePath string `json:"sqlite-path" mapstructure:"sqlite-path"`
	// SQLiteLogLevel SQLite 的 GORM 日志级别。
	SQLiteLogLevel int `json:"sqlite-log-level" mapstructure:"sqlite-log-level"`
	// AutoMigrate 启动时自动迁移表结构。
	AutoMigrate bool `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// TenantCacheOptions 租户缓存配置。
type TenantCacheOptions struct {
	Enabled   bool          `json:"enabled" mapstructure:"enabled"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
	KeyPrefix string        `json:"key-prefix" mapstructure:"key-prefix"`
}

// PipelineOptions 处理流水线配置。
type PipelineOptions struct {
	// Timeout 单个文档处理的总时限。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// ExtractionTemperature 页面抽取温度。
	ExtractionTemperature float32 `json:"extraction-temperature" mapstructure:"extraction-temperature"`
	// ExtractionMaxTokens 页面抽取最大输出 token 数。
	ExtractionMaxTokens int32 `json:"extraction-max-tokens" mapstructure:"extraction-max-tokens"`
	// RecommendationTemperature 健康建议温度。
	RecommendationTemperature float32 `json:"recommendation-temperature" mapstructure:"recommendation-temperature"`
	// RecommendationMaxTokens 健康建议最大输出 token 数。
	RecommendationMaxTokens int32 `json:"recommendation-max-tokens" mapstructure:"recommendation-max-tokens"`
	// RecommendationsEnabled 是否生成健康建议。
	RecommendationsEnabled bool `json:"recommendations-enabled" mapstructure:"recommendations-enabled"`
}

// WorkerOptions 后台任务池配置。
type WorkerOptions struct {
	Capacity         int           `json:"capacity" mapstructure:"capacity"`
	MaxBlockingTasks int           `json:"max-blocking-tasks" mapstructure:"max-blocking-tasks"`
	Expiry           time.Duration `json:"expiry" mapstructure:"expiry"`
}

// WebhookOptions 回调配置。
type WebhookOptions struct {
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// UploadOptions 上传限制。
type UploadOptions struct {
	// MaxFileSize 单个文件的最大字节数。
	MaxFileSize int64 `json:"max-file-size" mapstructure:"max-file-size"`
	// MaxFiles 同步解析接口一次最多接收的页数。
	MaxFiles int `json:"max-files" mapstructure:"max-files"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Server: serveropts.NewOptions(),
		Log:    logopts.NewOptions(),
		Database: &DatabaseOptions{
			Driver:         DriverSQLite,
			Postgres:       pgopts.NewOptions(),
			MySQL:          mysqlopts.NewOptions(),
			SQLitePath:     "./data/medextract.db",
			SQLiteLogLevel: 1,
			AutoMigrate:    true,
		},
		Redis: redisopts.NewOptions(),
		TenantCache: &TenantCacheOptions{
			Enabled:   false,
			TTL:       cache.DefaultConfig().TTL,
			KeyPrefix: cache.DefaultConfig().KeyPrefix,
		},
		Gemini: llmopts.NewGeminiOptions(),
		Blob:   blobopts.NewOptions(),
		Pipeline: &PipelineOptions{
			Timeout:                   biz.DefaultPipelineTimeout,
			ExtractionTemperature:     biz.DefaultExtractionTemperature,
			ExtractionMaxTokens:       biz.DefaultExtractionMaxTokens,
			RecommendationTemperature: biz.DefaultRecommendationTemperature,
			RecommendationMaxTokens:   biz.DefaultRecommendationMaxTokens,
			RecommendationsEnabled:    true,
		},
		Worker: &WorkerOptions{
			Capacity:         pool.DefaultConfig().Capacity,
			MaxBlockingTasks: pool.DefaultConfig().MaxBlockingTasks,
			Expiry:           pool.DefaultConfig().ExpiryDuration,
		},
		Webhook: &WebhookOptions{Timeout: biz.DefaultWebhookTimeout},
		Upload: &UploadOptions{
			MaxFileSize: 20 << 20,
			MaxFiles:    50,
		},
	}
}

// Flags returns flags grouped by config section.
func (o *Options) Flags() (fss app.NamedFlagSets) {
	o.Server.AddFlags(fss.FlagSet("server"), "server")
	o.Log.AddFlags(fss.FlagSet("log"))

	fs := fss.FlagSet("database")
	fs.StringVar(&o.Database.Driver, "database.driver", o.Database.Driver, "Database driver (postgres|mysql|sqlite).")
	fs.StringVar(&o.Database.SQLitePath, "database.sqlite-path", o.Database.SQLitePath, "SQLite database file.")
	fs.IntVar(&o.Database.SQLiteLogLevel, "database.sqlite-log-level", o.Database.SQLiteLogLevel, "GORM log level for SQLite (1 silent, 2 error, 3 warn, 4 info).")
	fs.BoolVar(&o.Database.AutoMigrate, "database.auto-migrate", o.Database.AutoMigrate, "Migrate the schema on startup.")
	o.Database.Postgres.AddFlags(fs, "database")
	o.Database.MySQL.AddFlags(fs, "database")

	o.Redis.AddFlags(fss.FlagSet("redis"))

	fs = fss.FlagSet("tenant-cache")
	fs.BoolVar(&o.TenantCache.Enabled, "tenant-cache.enabled", o.TenantCache.Enabled, "Cache tenant lookups in Redis.")
	fs.DurationVar(&o.TenantCache.TTL, "tenant-cache.ttl", o.TenantCache.TTL, "Tenant cache entry lifetime.")
	fs.StringVar(&o.TenantCache.KeyPrefix, "tenant-cache.key-prefix", o.TenantCache.KeyPrefix, "Tenant cache key prefix.")

	o.Gemini.AddFlags(fss.FlagSet("gemini"), "gemini")
	o.Blob.AddFlags(fss.FlagSet("blob"))

	fs = fss.FlagSet("pipeline")
	fs.DurationVar(&o.Pipeline.Timeout, "pipeline.timeout", o.Pipeline.Timeout, "Overall time limit for one document.")
	fs.Float32Var(&o.Pipeline.ExtractionTemperature, "pipeline.extraction-temperature", o.Pipeline.ExtractionTemperature, "Sampling temperature for page extraction.")
	fs.Int32Var(&o.Pipeline.ExtractionMaxTokens, "pipeline.extraction-max-tokens", o.Pipeline.ExtractionMaxTokens, "Output token limit for page extraction.")
	fs.Float32Var(&o.Pipeline.RecommendationTemperature, "pipeline.recommendation-temperature", o.Pipeline.RecommendationTemperature, "Sampling temperature for recommendations.")
	fs.Int32Var(&o.Pipeline.RecommendationMaxTokens, "pipeline.recommendation-max-tokens", o.Pipeline.RecommendationMaxTokens, "Output token limit for recommendations.")
	fs.BoolVar(&o.Pipeline.RecommendationsEnabled, "pipeline.recommendations-enabled", o.Pipeline.RecommendationsEnabled, "Generate health recommendations.")

	fs = fss.FlagSet("worker")
	fs.IntVar(&o.Worker.Capacity, "worker.capacity", o.Worker.Capacity, "Concurrent background jobs.")
	fs.IntVar(&o.Worker.MaxBlockingTasks, "worker.max-blocking-tasks", o.Worker.MaxBlockingTasks, "Jobs allowed to wait for a worker before submissions are refused.")
	fs.DurationVar(&o.Worker.Expiry, "worker.expiry", o.Worker.Expiry, "Idle worker lifetime.")

	fss.FlagSet("webhook").DurationVar(&o.Webhook.Timeout, "webhook.timeout", o.Webhook.Timeout, "Webhook delivery timeout.")

	fs = fss.FlagSet("upload")
	fs.Int64Var(&o.Upload.MaxFileSize, "upload.max-file-size", o.Upload.MaxFileSize, "Maximum size of one uploaded file in bytes.")
	fs.IntVar(&o.Upload.MaxFiles, "upload.max-files", o.Upload.MaxFiles, "Maximum number of pages per synchronous request.")
	return fss
}

// Complete completes all the required options.
func (o *Options) Complete() error {
	return o.Gemini.Complete()
}

// Validate checks every section and aggregates the errors.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Server.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Database.Validate()...)
	errs = append(errs, o.Redis.Validate()...)
	errs = append(errs, prefixed("gemini", o.Gemini.Validate())...)
	errs = append(errs, o.Blob.Validate()...)

	if o.TenantCache.Enabled {
		if !o.Redis.Enabled {
			errs = append(errs, fmt.Errorf("tenant-cache.enabled requires redis.enabled"))
		}
		if o.TenantCache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("tenant-cache.ttl must be positive"))
		}
	}
	if o.Pipeline.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.timeout must be positive"))
	}
	if o.Pipeline.ExtractionTemperature < 0 || o.Pipeline.RecommendationTemperature < 0 {
		errs = append(errs, fmt.Errorf("pipeline temperatures must not be negative"))
	}
	if err := o.WorkerConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("worker: %w", err))
	}
	if o.Webhook.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("webhook.timeout must be positive"))
	}
	if o.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("upload.max-file-size must be positive"))
	}
	if o.Upload.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("upload.max-files must be positive"))
	}
	return utilerrors.NewAggregate(errs)
}

// Validate checks the selected driver's settings only.
func (o *DatabaseOptions) Validate() []error {
	switch o.Driver {
	case DriverPostgres:
		return o.Postgres.Validate()
	case DriverMySQL:
		return o.MySQL.Validate()
	case DriverSQLite:
		if o.SQLitePath == "" {
			return []error{fmt.Errorf("database.sqlite-path cannot be empty")}
		}
		return nil
	default:
		return []error{fmt.Errorf("database.driver %q is not one of postgres, mysql, sqlite", o.Driver)}
	}
}

// WorkerConfig converts the worker options to a pool config.
func (o *Options) WorkerConfig() *pool.Config {
	return &pool.Config{
		Capacity:         o.Worker.Capacity,
		ExpiryDuration:   o.Worker.Expiry,
		MaxBlockingTasks: o.Worker.MaxBlockingTasks,
	}
}

// TenantCacheConfig converts the tenant cache options.
func (o *Options) TenantCacheConfig() *cache.Config {
	return &cache.Config{
		Enabled:   o.TenantCache.Enabled,
		TTL:       o.TenantCache.TTL,
		KeyPrefix: o.TenantCache.KeyPrefix,
	}
}

func prefixed(section string, errs []error) []error {
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s.%w", section, err)
	}
	return errs
}
