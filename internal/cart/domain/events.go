package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	OpAddToCart = "add_to_cart"
	OpIncrement = "increment"
	OpDecrement = "decrement"
)

// CartChanged is emitted after a mutation has been persisted.
type CartChanged struct {
	EventID    string     `json:"event_id"`
	Op         string     `json:"op"`
	ItemID     string     `json:"item_id"`
	Items      []LineItem `json:"items"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewCartChanged(op, itemID string, items []LineItem, at time.Time) CartChanged {
	return CartChanged{
		EventID:    uuid.NewString(),
		Op:         op,
		ItemID:     itemID,
		Items:      items,
		OccurredAt: at.UTC(),
	}
}
