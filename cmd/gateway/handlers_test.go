package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeCart struct {
	items []domain.LineItem
	added []domain.Product
	err   error
}

func (f *fakeCart) GetCart(ctx context.Context) ([]domain.LineItem, error) { return f.items, f.err }

func (f *fakeCart) AddToCart(ctx context.Context, p domain.Product) ([]domain.LineItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, p)
	f.items = append(f.items, domain.LineItem{ID: p.ID, Title: p.Title, Price: p.Price, Quantity: 1})
	return f.items, nil
}

func (f *fakeCart) Increment(ctx context.Context, id string) ([]domain.LineItem, error) {
	if id != "a" {
		return nil, status.Error(codes.NotFound, "item not found in cart")
	}
	return []domain.LineItem{{ID: "a", Quantity: 2}}, nil
}

func (f *fakeCart) Decrement(ctx context.Context, id string) ([]domain.LineItem, error) {
	return nil, f.err
}

func (f *fakeCart) GetSummary(ctx context.Context) (summaryapp.View, error) {
	return summaryapp.View{TotalPrice: "R$ 25,00", TotalQuantity: 3, QuantityLabel: "3 itens"}, f.err
}

func serve(t *testing.T, c cartClient, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	(&handler{cart: c, log: slog.New(slog.NewTextHandler(io.Discard, nil))}).routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlers(t *testing.T) {
	t.Run("empty cart renders []", func(t *testing.T) {
		rec := serve(t, &fakeCart{}, http.MethodGet, "/v1/cart", "")
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"items":[]}` {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("add to cart", func(t *testing.T) {
		c := &fakeCart{}
		rec := serve(t, c, http.MethodPost, "/v1/cart/items", `{"id":"c","title":"Cup","image_url":"u","price":3}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if len(c.added) != 1 || c.added[0].ImageURL != "u" || c.added[0].Price != 3 {
			t.Fatalf("unexpected product %+v", c.added)
		}
	})

	t.Run("bad JSON -> 400", func(t *testing.T) {
		rec := serve(t, &fakeCart{}, http.MethodPost, "/v1/cart/items", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d", rec.Code)
		}
	})

	t.Run("increment unknown -> 404", func(t *testing.T) {
		rec := serve(t, &fakeCart{}, http.MethodPost, "/v1/cart/items/zzz/increment", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d", rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "NOT_FOUND" {
			t.Fatalf("body %s (%v)", rec.Body.String(), err)
		}
	})

	t.Run("upstream down -> 503", func(t *testing.T) {
		rec := serve(t, &fakeCart{err: status.Error(codes.Unavailable, "closed")}, http.MethodPost, "/v1/cart/items/a/decrement", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status %d", rec.Code)
		}
	})

	t.Run("summary", func(t *testing.T) {
		rec := serve(t, &fakeCart{}, http.MethodGet, "/v1/cart/summary", "")
		var v summaryapp.View
		if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if v.TotalQuantity != 3 || v.QuantityLabel != "3 itens" {
			t.Fatalf("unexpected view %+v", v)
		}
	})
}
