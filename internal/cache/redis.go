package cache

import (
	"context"
	"encoding/json"
	"time"

	"HackathonSync/internal/config"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "hackathonsync:"
	versionKey = keyPrefix + "list:version"
	defaultTTL = 10 * time.Minute
)

// RedisCache 仓储层查询结果缓存。只存未计算状态的赛事快照；
// 每次同步后 Bump 版本号，旧版本的键自然过期。
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 连接并 ping；失败时返回错误，由调用方决定是否降级为不缓存
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "连接Redis %s失败", cfg.Addr)
	}
	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get 命中时把 JSON 解到 dest
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "读取缓存%s失败", key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "解析缓存%s失败", key)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "序列化缓存%s失败", key)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "写入缓存%s失败", key)
	}
	return nil
}

// Version 当前数据版本，未初始化为 0
func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "读取缓存版本失败")
	}
	return v, nil
}

// Bump 数据变更后递增版本
func (c *RedisCache) Bump(ctx context.Context) error {
	return errors.Wrap(c.client.Incr(ctx, versionKey).Err(), "更新缓存版本失败")
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
