package cache

import (
	"context"
	"errors"
	"strings"
)

// LookupRecorder 记录缓存命中
type LookupRecorder interface {
	RecordCacheLookup(keyPrefix string, hit bool)
}

// MonitoredCache 为 Get 统计命中率，按 key 的第一段前缀（如 auth:admin）分组
type MonitoredCache struct {
	CacheService
	recorder LookupRecorder
}

// NewMonitoredCache 包装缓存，recorder 为 nil 时直接返回原缓存
func NewMonitoredCache(inner CacheService, recorder LookupRecorder) CacheService {
	if recorder == nil {
		return inner
	}
	return &MonitoredCache{CacheService: inner, recorder: recorder}
}

func (c *MonitoredCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := c.CacheService.Get(ctx, key, dest)
	switch {
	case err == nil:
		c.recorder.RecordCacheLookup(keyPrefix(key), true)
	case errors.Is(err, ErrCacheMiss):
		c.recorder.RecordCacheLookup(keyPrefix(key), false)
	}
	return err
}

// keyPrefix 取前两段，避免把用户 ID 之类写进标签
func keyPrefix(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 {
		return parts[0]
	}
	return parts[0] + ":" + parts[1]
}
