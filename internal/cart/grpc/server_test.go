package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/infra/memkv"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type plainFormatter struct{}

func (plainFormatter) Currency(amount decimal.Decimal) string { return "$" + amount.StringFixed(2) }

func newTestClient(t *testing.T) (*Client, *app.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := app.Open(context.Background(), memkv.New(), app.WithLogger(log))
	if err != nil {
		t.Fatalf("open cart: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(log)))
	RegisterCartServiceServer(srv, NewServer(svc, summaryapp.NewPresenter(plainFormatter{}, nil, "")))
	go func() { _ = srv.Serve(lis) }()

	conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		svc.Close()
	})
	return NewClient(conn), svc
}

func TestCartRPCs(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	items, err := c.GetCart(ctx)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}

	if _, err := c.AddToCart(ctx, domain.Product{ID: "a", Title: "Apple", Price: 10}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.Increment(ctx, "a"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	items, err = c.AddToCart(ctx, domain.Product{ID: "b", Title: "Bread", Price: 5})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(items) != 2 || items[0].Quantity != 2 || items[1].Quantity != 1 {
		t.Fatalf("unexpected items %+v", items)
	}

	view, err := c.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if view.TotalPrice != "$25.00" || view.TotalQuantity != 3 || view.QuantityLabel != "3 itens" {
		t.Fatalf("unexpected summary %+v", view)
	}

	items, err = c.Decrement(ctx, "b")
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("b should be removed, got %+v", items)
	}
}

func TestCartRPCErrors(t *testing.T) {
	ctx := context.Background()
	c, svc := newTestClient(t)

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"unknown id -> NotFound", func() error { _, err := c.Increment(ctx, "ghost"); return err }, codes.NotFound},
		{"decrement unknown -> NotFound", func() error { _, err := c.Decrement(ctx, "ghost"); return err }, codes.NotFound},
		{"empty id -> InvalidArgument", func() error { _, err := c.Increment(ctx, ""); return err }, codes.InvalidArgument},
		{"negative price -> InvalidArgument", func() error {
			_, err := c.AddToCart(ctx, domain.Product{ID: "x", Price: -1})
			return err
		}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(tt.call()); got != tt.want {
				t.Fatalf("code = %s, want %s", got, tt.want)
			}
		})
	}

	svc.Close()
	if _, err := c.GetCart(ctx); status.Code(err) != codes.Unavailable {
		t.Fatalf("closed service: code = %s, want Unavailable", status.Code(err))
	}
}

func TestWatchSummary(t *testing.T) {
	c, svc := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	views := make(chan summaryapp.View, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.WatchSummary(ctx, func(v summaryapp.View) error {
			views <- v
			return nil
		})
	}()

	first := <-views
	if first.TotalQuantity != 0 {
		t.Fatalf("initial summary = %+v", first)
	}

	if _, err := svc.AddToCart(ctx, domain.Product{ID: "c", Price: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	select {
	case v := <-views:
		if v.TotalPrice != "$3.00" || v.TotalQuantity != 1 {
			t.Fatalf("unexpected summary %+v", v)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for summary update")
	}

	svc.Close()
	if err := <-done; status.Code(err) != codes.Unavailable && !errors.Is(err, io.EOF) {
		t.Fatalf("stream should end with Unavailable, got %v", err)
	}
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{domain.ErrInvalidItem, codes.InvalidArgument},
		{domain.ErrItemNotFound, codes.NotFound},
		{app.ErrClosed, codes.Unavailable},
		{fmt.Errorf("add_to_cart: persist cart: %w", app.ErrStorageUnavailable), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(mapErr(tt.err)); got != tt.want {
			t.Errorf("mapErr(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
