// Package cache stores rendered images keyed by a hash of the request that
// produced them. Backends: file system, Redis, or a no-op.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache 是渲染结果缓存的最小接口。未命中时返回 (nil, false, nil)。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key 生成形如 prefix:sha256(parts...) 的缓存键。
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash computes the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Options selects and configures a backend for New.
type Options struct {
	Kind  string // "none"、"file" 或 "redis"
	Dir   string
	Redis RedisOptions
}

// New 按 Kind 创建缓存，空 Kind 等同于 "none"。
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Kind {
	case "", "none":
		return NewNullCache(), nil
	case "file":
		return NewFileCache(opts.Dir)
	case "redis":
		return NewRedisCache(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("未知的缓存类型 %q", opts.Kind)
	}
}
