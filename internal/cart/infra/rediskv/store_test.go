package rediskv

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient(Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl), mr
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, 0)

	_, ok, err := s.Get(ctx, "@goMarketplace:products")
	require.NoError(t, err)
	require.False(t, ok, "missing key must be reported as absent, not as an error")

	require.NoError(t, s.Set(ctx, "@goMarketplace:products", `[{"id":"a","quantity":1}]`))

	v, ok, err := s.Get(ctx, "@goMarketplace:products")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"a","quantity":1}]`, v)

	raw, err := mr.Get("@goMarketplace:products")
	require.NoError(t, err)
	require.Equal(t, v, raw)

	require.NoError(t, s.Ping(ctx))
}

func TestStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, time.Hour)

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, 0)
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, s.Set(ctx, "k", "v"))
}

func TestWaitReady(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	rdb := NewClient(Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, WaitReady(context.Background(), rdb, 3, log))

	mr.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, WaitReady(ctx, rdb, 3, log))
}
