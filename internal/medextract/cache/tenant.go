// Package cache 提供基于 Redis 的租户查询缓存。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/json"
)

// Config 租户缓存配置。
type Config struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultConfig 返回默认缓存配置（默认关闭）。
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		TTL:       5 * time.Minute,
		KeyPrefix: "medextract:tenant:",
	}
}

// TenantCache 在租户存储之前增加一层 Redis 读缓存。
// 只缓存命中的租户；不存在的 API Key 每次都回源。
type TenantCache struct {
	redis  *goredis.Client
	next   store.TenantStore
	config *Config
}

// NewTenantCache 创建租户缓存。
func NewTenantCache(redis *goredis.Client, next store.TenantStore, config *Config) *TenantCache {
	if config == nil {
		config = DefaultConfig()
	}
	return &TenantCache{redis: redis, next: next, config: config}
}

// key 基于 API Key 的 SHA256 生成缓存键，避免明文密钥落入 Redis。
func (c *TenantCache) key(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:])
}

func (c *TenantCache) enabled() bool {
	return c.config.Enabled && c.redis != nil
}

// GetByAPIKey 先查缓存，未命中时回源并回填。
func (c *TenantCache) GetByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error) {
	if !c.enabled() {
		return c.next.GetByAPIKey(ctx, apiKey)
	}

	key := c.key(apiKey)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tenant model.Tenant
		if err := json.Unmarshal(data, &tenant); err == nil {
			tenant.APIKey = apiKey
			return &tenant, nil
		}
		logger.Warnw("failed to unmarshal cached tenant", "key", key)
		// 删除损坏的缓存
		_ = c.redis.Del(ctx, key).Err()
	case errors.Is(err, goredis.Nil):
		logger.Debugw("tenant cache miss", "key", key)
	default:
		// Redis 不可用时降级为直接查库
		logger.Warnw("failed to read tenant cache", "error", err.Error(), "key", key)
	}

	tenant, err := c.next.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, tenant)
	return tenant, nil
}

func (c *TenantCache) set(ctx context.Context, key string, tenant *model.Tenant) {
	data, err := json.Marshal(tenant)
	if err != nil {
		logger.Warnw("failed to marshal tenant for cache", "error", err.Error())
		return
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to write tenant cache", "error", err.Error(), "key", key)
	}
}

// Invalidate 删除指定 API Key 的缓存。
func (c *TenantCache) Invalidate(ctx context.Context, apiKey string) error {
	if !c.enabled() {
		return nil
	}
	return c.redis.Del(ctx, c.key(apiKey)).Err()
}
