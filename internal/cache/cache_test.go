// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, ttl time.Duration, maxSize int) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl, maxSize)
	require.NoError(t, err, "Open()")
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := openTestCache(t, time.Hour, 0)

	require.NoError(t, c.Put("model-a", "prompt", "response text"))

	got, ok, err := c.Get("model-a", "prompt")
	require.NoError(t, err)
	assert.True(t, ok, "expected cache hit")
	assert.Equal(t, "response text", got)
}

func TestCache_MissOnDifferentModel(t *testing.T) {
	c := openTestCache(t, time.Hour, 0)

	require.NoError(t, c.Put("model-a", "prompt", "response"))

	_, ok, err := c.Get("model-b", "prompt")
	require.NoError(t, err)
	assert.False(t, ok, "cache hit across models")

	_, ok, err = c.Get("model-a", "other prompt")
	require.NoError(t, err)
	assert.False(t, ok, "cache hit across prompts")
}

func TestCache_Replace(t *testing.T) {
	c := openTestCache(t, time.Hour, 0)

	require.NoError(t, c.Put("m", "p", "old"))
	require.NoError(t, c.Put("m", "p", "new"))

	got, ok, err := c.Get("m", "p")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", got)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "replace must not grow the cache")
}

func TestCache_TTLExpiry(t *testing.T) {
	c := openTestCache(t, time.Nanosecond, 0)

	require.NoError(t, c.Put("m", "p", "stale"))
	time.Sleep(10 * time.Millisecond)

	_, ok, err := c.Get("m", "p")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must miss")
}

func TestCache_SizeCap(t *testing.T) {
	c := openTestCache(t, time.Hour, 3)

	for i := 0; i < 6; i++ {
		require.NoError(t, c.Put("m", fmt.Sprintf("prompt-%d", i), "r"))
	}

	n, err := c.Len()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 3, "size cap not enforced")
}

func TestCache_Purge(t *testing.T) {
	c := openTestCache(t, time.Nanosecond, 0)

	require.NoError(t, c.Put("m", "p1", "r"))
	require.NoError(t, c.Put("m", "p2", "r"))
	time.Sleep(10 * time.Millisecond)

	removed, err := c.Purge()
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestCache_UseAfterClose(t *testing.T) {
	c := openTestCache(t, time.Hour, 0)
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Put("m", "p", "r"), ErrClosed)
	_, _, err := c.Get("m", "p")
	assert.ErrorIs(t, err, ErrClosed)
}
