package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

func testCache(t *testing.T, ttl time.Duration) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestKey(t *testing.T) {
	a := models.WorkItem{ID: 1, Title: "t", Description: "d"}
	b := models.WorkItem{ID: 1, Title: "t", Description: "d"}
	assert.Equal(t, Key(a), Key(b))
	assert.True(t, strings.HasPrefix(Key(a), "relnotes:summary:1:"))

	// Any content change produces a different key, so edits miss.
	edited := a
	edited.Description = "d2"
	assert.NotEqual(t, Key(a), Key(edited))

	retitled := a
	retitled.Title = "t2"
	assert.NotEqual(t, Key(a), Key(retitled))
}

func TestGetPut(t *testing.T) {
	c, _ := testCache(t, time.Hour)
	ctx := context.Background()
	item := models.WorkItem{ID: 7, Title: "Fix crash", Description: "details"}

	_, ok := c.Get(ctx, item)
	assert.False(t, ok, "fresh cache must miss")

	c.Put(ctx, item, "A concise summary.")

	text, ok := c.Get(ctx, item)
	require.True(t, ok)
	assert.Equal(t, "A concise summary.", text)
}

func TestGet_MissAfterContentChange(t *testing.T) {
	c, _ := testCache(t, time.Hour)
	ctx := context.Background()
	item := models.WorkItem{ID: 7, Title: "Fix crash", Description: "details"}

	c.Put(ctx, item, "A concise summary.")

	item.Description = "details, updated after review"
	_, ok := c.Get(ctx, item)
	assert.False(t, ok, "edited item must miss and be re-summarized")
}

func TestPut_IgnoresEmptySummary(t *testing.T) {
	c, mr := testCache(t, time.Hour)
	item := models.WorkItem{ID: 7, Title: "t", Description: "d"}

	c.Put(context.Background(), item, "")
	assert.False(t, mr.Exists(Key(item)))
}

func TestTTLExpiry(t *testing.T) {
	c, mr := testCache(t, time.Minute)
	ctx := context.Background()
	item := models.WorkItem{ID: 7, Title: "t", Description: "d"}

	c.Put(ctx, item, "summary")
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, item)
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestGet_TreatsBackendErrorAsMiss(t *testing.T) {
	c, mr := testCache(t, time.Hour)
	ctx := context.Background()
	item := models.WorkItem{ID: 7, Title: "t", Description: "d"}

	c.Put(ctx, item, "summary")
	mr.Close()

	_, ok := c.Get(ctx, item)
	assert.False(t, ok, "a dead cache is a miss, never an error")
}

func TestPing(t *testing.T) {
	c, mr := testCache(t, time.Hour)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
