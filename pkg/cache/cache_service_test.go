package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Admin bool `json:"admin"`
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	c := NewRedisCache(rdb, "test:")
	ctx := context.Background()

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "role:u1", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "role:u1", entry{Admin: true}, time.Minute))
	assert.True(t, mr.Exists("test:role:u1"))

	require.NoError(t, c.Get(ctx, "role:u1", &got))
	assert.True(t, got.Admin)

	ok, err := c.Exists(ctx, "role:u1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "role:u1", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "role:u2", entry{}, time.Minute))
	require.NoError(t, c.Delete(ctx, "role:u2"))
	ok, err = c.Exists(ctx, "role:u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", entry{Admin: true}, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.True(t, got.Admin)

	require.NoError(t, c.Set(ctx, "expired", entry{}, time.Nanosecond))
	time.Sleep(time.Millisecond)
	assert.ErrorIs(t, c.Get(ctx, "expired", &got), ErrCacheMiss)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ := c.Exists(ctx, "k")
	assert.False(t, ok)
}

type lookups map[string][2]int

func (l lookups) RecordCacheLookup(prefix string, hit bool) {
	v := l[prefix]
	if hit {
		v[0]++
	} else {
		v[1]++
	}
	l[prefix] = v
}

func TestMonitoredCacheCountsLookups(t *testing.T) {
	rec := lookups{}
	c := NewMonitoredCache(NewMemoryCache(), rec)
	ctx := context.Background()

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "auth:admin:u1", &got), ErrCacheMiss)
	require.NoError(t, c.Set(ctx, "auth:admin:u1", entry{Admin: true}, time.Minute))
	require.NoError(t, c.Get(ctx, "auth:admin:u1", &got))
	assert.True(t, got.Admin)

	assert.Equal(t, [2]int{1, 1}, rec["auth:admin"])

	inner := NewMemoryCache()
	assert.Equal(t, inner, NewMonitoredCache(inner, nil))
}
