package cache

import (
	"context"
	"testing"

	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) *InMemoryCache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	key := GenerateKey(PrefixPlan, "plan_1")
	assert.Equal(t, "plan:v1::plan_1", key)

	c.Set(ctx, key, "basic", 0)
	value, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "basic", value)

	c.Delete(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestInMemoryCacheDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	c.Set(ctx, GenerateKey(PrefixPlan, "a"), 1, 0)
	c.Set(ctx, GenerateKey(PrefixPlan, "b"), 2, 0)
	c.Set(ctx, GenerateKey(PrefixSetupFee, "latest"), 3, 0)

	c.DeleteByPrefix(ctx, PrefixPlan)

	_, ok := c.Get(ctx, GenerateKey(PrefixPlan, "a"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixSetupFee, "latest"))
	assert.True(t, ok)
}

func TestDisabledCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
