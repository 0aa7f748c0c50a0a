package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/courserec/core"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"required"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RedisStore 是 Redis 实现的 Store，生产环境用于保存课程目录快照。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 建立连接并 Ping 一次；不可达时返回 UNAVAILABLE。
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "redis: ping "+cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient 复用已有 client（测试或共享连接池）
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, wrapRedisErr("get", err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return wrapRedisErr("set", r.client.Set(ctx, key, value, expiration(ttl)).Err())
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return wrapRedisErr("del", r.client.Del(ctx, key).Err())
}

func (r *RedisStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapRedisErr("mget", err)
	}

	result := make(map[string][]byte, len(keys))
	for i, k := range keys {
		if s, ok := vals[i].(string); ok {
			result[k] = []byte(s)
		}
	}
	return result, nil
}

func (r *RedisStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	if len(kvs) == 0 {
		return nil
	}
	exp := expiration(ttl)
	pipe := r.client.Pipeline()
	for k, v := range kvs {
		pipe.Set(ctx, k, v, exp)
	}
	_, err := pipe.Exec(ctx)
	return wrapRedisErr("pipeline set", err)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func expiration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}

func wrapRedisErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "redis: "+op, err)
}

var _ core.Store = (*RedisStore)(nil)
