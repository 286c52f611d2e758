package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	"github.com/sony/gobreaker"
)

var ErrUnavailable = fmt.Errorf("%w: circuit open", app.ErrStorageUnavailable)

type Settings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MinRequests and FailureRatio decide when the breaker trips.
	MinRequests  uint32
	FailureRatio float64
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.5,
	}
}

// Store guards another storage with a circuit breaker. While the breaker is
// open, calls fail fast with ErrUnavailable.
type Store struct {
	next app.Storage
	cb   *gobreaker.CircuitBreaker
}

type getResult struct {
	value string
	ok    bool
}

func New(next app.Storage, st Settings, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.MaxRequests,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= st.MinRequests && failureRatio >= st.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("storage circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &Store{next: next, cb: cb}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		v, ok, err := s.next.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return getResult{value: v, ok: ok}, nil
	})
	if err != nil {
		return "", false, mapErr(err)
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Set(ctx, key, value)
	})
	return mapErr(err)
}

// Ping bypasses the breaker so health probes observe the real backend.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.next.(app.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func mapErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}
