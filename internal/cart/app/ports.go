package app

import (
	"context"
	"errors"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
)

// ErrStorageUnavailable marks storage failures that are expected to clear on
// their own, such as an open circuit breaker.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Storage is the durable key-value store the cart is persisted to.
// Get reports ok=false with a nil error when the key is absent.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by storages that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.CartChanged) error
}
