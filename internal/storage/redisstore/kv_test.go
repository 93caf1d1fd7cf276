package redisstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKV(t *testing.T) *KV {
	t.Helper()
	addr := os.Getenv("TASKFLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TASKFLOW_TEST_REDIS_ADDR not set")
	}
	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.Prefix = fmt.Sprintf("taskflow:test:%d:", time.Now().UnixNano())
	cfg.TTL = time.Minute

	kv, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKV(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "token", "abc"))
	require.NoError(t, kv.Set(ctx, "user", `{"id":1}`))

	v, ok, err := kv.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, kv.Delete(ctx, "token", "user"))
	_, ok, err = kv.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, cfg)
	assert.Error(t, err)
}
