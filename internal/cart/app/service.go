package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
)

const DefaultStorageKey = "@goMarketplace:products"

var (
	ErrClosed      = errors.New("cart service closed")
	ErrCorruptCart = errors.New("stored cart is corrupt")
)

type Option func(*Service)

func WithStorageKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service owns the session cart. A single writer goroutine executes every
// request in arrival order, so persistence writes never interleave.
type Service struct {
	storage   Storage
	key       string
	log       *slog.Logger
	publisher EventPublisher
	now       func() time.Time

	requests  chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// state is only touched by the writer goroutine.
type state struct {
	cart *domain.Cart
	subs map[chan []domain.LineItem]struct{}
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context, st *state) ([]domain.LineItem, error)
	reply chan result
}

type result struct {
	items []domain.LineItem
	err   error
}

// Open hydrates the cart from storage and starts the writer. A missing key
// yields an empty cart.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Service, error) {
	s := &Service{
		storage:  storage,
		key:      DefaultStorageKey,
		log:      slog.Default(),
		now:      time.Now,
		requests: make(chan request),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("cart loaded", slog.String("key", s.key), slog.Int("items", cart.Len()))

	go s.run(&state{
		cart: cart,
		subs: make(map[chan []domain.LineItem]struct{}),
	})
	return s, nil
}

func (s *Service) load(ctx context.Context) (*domain.Cart, error) {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || raw == "" {
		return domain.NewCart(), nil
	}

	cart := domain.NewCart()
	if err := json.Unmarshal([]byte(raw), cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	return cart, nil
}

func (s *Service) run(st *state) {
	defer close(s.stopped)
	defer func() {
		for ch := range st.subs {
			close(ch)
		}
	}()

	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			if err := req.ctx.Err(); err != nil {
				req.reply <- result{err: err}
				continue
			}
			items, err := req.fn(req.ctx, st)
			req.reply <- result{items: items, err: err}
		}
	}
}

func (s *Service) do(ctx context.Context, fn func(ctx context.Context, st *state) ([]domain.LineItem, error)) ([]domain.LineItem, error) {
	req := request{ctx: ctx, fn: fn, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-s.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The writer always answers a request it has accepted.
	res := <-req.reply
	return res.items, res.err
}

// Close stops the writer and closes every subscription. It is safe to call
// more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

// Products returns the current line items in insertion order.
func (s *Service) Products(ctx context.Context) ([]domain.LineItem, error) {
	return s.do(ctx, func(_ context.Context, st *state) ([]domain.LineItem, error) {
		return st.cart.Items(), nil
	})
}

// AddToCart inserts the product with quantity 1, or increments it when the
// id is already in the cart.
func (s *Service) AddToCart(ctx context.Context, p domain.Product) ([]domain.LineItem, error) {
	return s.mutate(ctx, domain.OpAddToCart, p.ID, func(c *domain.Cart) error {
		_, err := c.Add(p)
		return err
	})
}

// Increment returns domain.ErrItemNotFound when id is not in the cart.
func (s *Service) Increment(ctx context.Context, id string) ([]domain.LineItem, error) {
	return s.mutate(ctx, domain.OpIncrement, id, func(c *domain.Cart) error {
		_, err := c.Increment(id)
		return err
	})
}

// Decrement removes the item when its quantity is 1. Returns
// domain.ErrItemNotFound when id is not in the cart.
func (s *Service) Decrement(ctx context.Context, id string) ([]domain.LineItem, error) {
	return s.mutate(ctx, domain.OpDecrement, id, func(c *domain.Cart) error {
		_, err := c.Decrement(id)
		return err
	})
}

// mutate applies fn to a copy of the cart, persists the copy and only then
// makes it current. On any error the current cart is unchanged.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(*domain.Cart) error) ([]domain.LineItem, error) {
	return s.do(ctx, func(ctx context.Context, st *state) ([]domain.LineItem, error) {
		next := st.cart.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		if err := s.persist(ctx, next); err != nil {
			s.log.Error("persist cart failed",
				slog.String("op", op),
				slog.String("item_id", id),
				slog.Any("err", err),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		st.cart = next
		items := next.Items()
		for ch := range st.subs {
			offer(ch, slices.Clone(items))
		}
		s.publish(ctx, domain.NewCartChanged(op, id, items, s.now()))

		s.log.Debug("cart mutated", slog.String("op", op), slog.String("item_id", id), slog.Int("items", len(items)))
		return items, nil
	})
}

func (s *Service) persist(ctx context.Context, cart *domain.Cart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev domain.CartChanged) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish cart event failed",
			slog.String("event_id", ev.EventID),
			slog.String("op", ev.Op),
			slog.Any("err", err),
		)
	}
}

// Subscribe returns a feed that first yields the current items and then the
// items after every persisted mutation. Slow readers only ever see the latest
// snapshot. The feed is closed by cancel or by Close.
func (s *Service) Subscribe(ctx context.Context) (<-chan []domain.LineItem, func(), error) {
	ch := make(chan []domain.LineItem, 1)

	_, err := s.do(ctx, func(_ context.Context, st *state) ([]domain.LineItem, error) {
		st.subs[ch] = struct{}{}
		offer(ch, st.cart.Items())
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_, _ = s.do(context.Background(), func(_ context.Context, st *state) ([]domain.LineItem, error) {
				if _, ok := st.subs[ch]; ok {
					delete(st.subs, ch)
					close(ch)
				}
				return nil, nil
			})
		})
	}
	return ch, cancel, nil
}

// offer replaces any unread snapshot in ch with items. Only the writer sends
// on subscriber channels.
func offer(ch chan []domain.LineItem, items []domain.LineItem) {
	select {
	case <-ch:
	default:
	}
	ch <- items
}
