package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type cartClient interface {
	GetCart(ctx context.Context) ([]domain.LineItem, error)
	AddToCart(ctx context.Context, p domain.Product) ([]domain.LineItem, error)
	Increment(ctx context.Context, id string) ([]domain.LineItem, error)
	Decrement(ctx context.Context, id string) ([]domain.LineItem, error)
	GetSummary(ctx context.Context) (summaryapp.View, error)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	cart cartClient
	log  *slog.Logger
}

func (h *handler) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/cart", h.getCart)
	mux.HandleFunc("POST /v1/cart/items", h.addToCart)
	mux.HandleFunc("POST /v1/cart/items/{id}/increment", h.increment)
	mux.HandleFunc("POST /v1/cart/items/{id}/decrement", h.decrement)
	mux.HandleFunc("GET /v1/cart/summary", h.summary)
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.GetCart(r.Context())
	h.writeItems(w, items, err)
}

func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}
	items, err := h.cart.AddToCart(r.Context(), p)
	h.writeItems(w, items, err)
}

func (h *handler) increment(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Increment(r.Context(), r.PathValue("id"))
	h.writeItems(w, items, err)
}

func (h *handler) decrement(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Decrement(r.Context(), r.PathValue("id"))
	h.writeItems(w, items, err)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.GetSummary(r.Context())
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) writeItems(w http.ResponseWriter, items []domain.LineItem, err error) {
	if err != nil {
		h.writeGRPCError(w, err)
		return
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *handler) writeGRPCError(w http.ResponseWriter, err error) {
	httpStatus, code, msg := httpStatusFromGRPC(err)
	if httpStatus >= http.StatusInternalServerError {
		h.log.Error("cart call failed", slog.String("code", code), slog.Any("err", err))
	}
	h.writeError(w, httpStatus, code, msg)
}

func (h *handler) writeError(w http.ResponseWriter, httpStatus int, code, msg string) {
	writeJSON(w, httpStatus, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, httpStatus int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(v)
}

// httpStatusFromGRPC maps a gRPC error to an HTTP status, a stable error code
// and a client-safe message.
func httpStatusFromGRPC(err error) (int, string, string) {
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable, "UNAVAILABLE", "upstream timeout"
		}
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	switch st.Code() {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "INVALID_ARGUMENT", st.Message()
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", st.Message()
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", "cart service unavailable"
	case codes.Canceled:
		return 499, "CANCELED", "request canceled"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}
