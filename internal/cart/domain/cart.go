package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrInvalidItem  = errors.New("invalid item")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Product is what a caller hands to AddToCart: a line item without quantity.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

type LineItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidItem)
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return fmt.Errorf("%w: price must be a non-negative number, got %v", ErrInvalidItem, p.Price)
	}
	return nil
}

// Cart is an insertion-ordered map of line items keyed by id.
// Every item it holds has Quantity >= 1.
type Cart struct {
	order []string
	items map[string]*LineItem
}

func NewCart() *Cart {
	return &Cart{items: make(map[string]*LineItem)}
}

// FromItems builds a cart from a stored list, rejecting duplicate ids and
// quantities below one.
func FromItems(items []LineItem) (*Cart, error) {
	c := NewCart()
	for i, it := range items {
		if err := (Product{ID: it.ID, Price: it.Price}).Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %d: %w: quantity must be at least 1, got %d", i, ErrInvalidItem, it.Quantity)
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("item %d: %w: duplicate id %q", i, ErrInvalidItem, it.ID)
		}
		cp := it
		c.items[it.ID] = &cp
		c.order = append(c.order, it.ID)
	}
	return c, nil
}

// Add inserts p with quantity 1, or increments it when the id is already present.
func (c *Cart) Add(p Product) (LineItem, error) {
	if err := p.Validate(); err != nil {
		return LineItem{}, err
	}
	if _, ok := c.items[p.ID]; ok {
		return c.Increment(p.ID)
	}

	it := &LineItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
	c.items[p.ID] = it
	c.order = append(c.order, p.ID)
	return *it, nil
}

func (c *Cart) Increment(id string) (LineItem, error) {
	it, ok := c.items[id]
	if !ok {
		return LineItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	it.Quantity++
	return *it, nil
}

// Decrement lowers the quantity of id by one. An item at quantity 1 is removed
// and returned with Quantity 0.
func (c *Cart) Decrement(id string) (LineItem, error) {
	it, ok := c.items[id]
	if !ok {
		return LineItem{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	if it.Quantity > 1 {
		it.Quantity--
		return *it, nil
	}

	delete(c.items, id)
	if idx := slices.Index(c.order, id); idx >= 0 {
		c.order = slices.Delete(c.order, idx, idx+1)
	}
	removed := *it
	removed.Quantity = 0
	return removed, nil
}

func (c *Cart) Get(id string) (LineItem, bool) {
	it, ok := c.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *it, true
}

func (c *Cart) Len() int {
	return len(c.order)
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

func (c *Cart) Clone() *Cart {
	cp := &Cart{
		order: slices.Clone(c.order),
		items: make(map[string]*LineItem, len(c.items)),
	}
	for id, it := range c.items {
		v := *it
		cp.items[id] = &v
	}
	return cp
}

// MarshalJSON encodes the cart as a JSON array of line items; an empty cart is [].
func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	loaded, err := FromItems(items)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}
