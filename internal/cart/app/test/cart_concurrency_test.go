package app_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/breaker"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/sqlitekv"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func openTestStore(t *testing.T) *sqlitekv.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart.db")
	store, err := sqlitekv.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestService(t *testing.T, storage app.Storage) *app.Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := app.Open(context.Background(), storage, app.WithLogger(log))
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestCart_ConcurrentAddToCart_PersistsEveryIncrement(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newTestService(t, breaker.New(store, breaker.DefaultSettings("cart-test"), nil))

	productID := uuid.NewString()

	const N = 100
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := svc.AddToCart(gctx, domain.Product{ID: productID, Title: "Mug", Price: 9.9})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddToCart failed: %v", err)
	}

	svc.Close()
	reopened := newTestService(t, store)
	items, err := reopened.Products(ctx)
	if err != nil {
		t.Fatalf("Products failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != N {
		t.Fatalf("expected one item with quantity=%d, got %+v", N, items)
	}
}

func TestCart_ConcurrentIncrementDecrement_Balances(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newTestService(t, store)

	productID := uuid.NewString()
	if _, err := svc.AddToCart(ctx, domain.Product{ID: productID, Price: 1}); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	// Lift the quantity so concurrent decrements never remove the item.
	const N = 50
	for i := 0; i < N; i++ {
		if _, err := svc.Increment(ctx, productID); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := svc.Increment(gctx, productID)
			return err
		})
		g.Go(func() error {
			_, err := svc.Decrement(gctx, productID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent increment/decrement failed: %v", err)
	}

	items, err := svc.Products(ctx)
	if err != nil {
		t.Fatalf("Products failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != N+1 {
		t.Fatalf("expected quantity=%d, got %+v", N+1, items)
	}
}
