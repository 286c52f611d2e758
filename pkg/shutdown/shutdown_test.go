package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithSignalsCancelsWithParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithSignals(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled with parent")
	}
}

func TestGraceful(t *testing.T) {
	t.Run("stop in time", func(t *testing.T) {
		err := Graceful(time.Second, func(ctx context.Context) error { return nil }, func() {
			t.Fatal("force must not run")
		})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("timeout forces", func(t *testing.T) {
		forced := false
		release := make(chan struct{})
		defer close(release)
		err := Graceful(10*time.Millisecond, func(ctx context.Context) error {
			<-release
			return nil
		}, func() { forced = true })
		if !errors.Is(err, context.DeadlineExceeded) || !forced {
			t.Fatalf("err=%v forced=%v", err, forced)
		}
	})
}
