package uwb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/uwbd/uwbd/internal/uwb"
)

func TestDispatcherRunsCommandsInOrder(t *testing.T) {
	t.Parallel()

	d := uwb.NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Post(context.Background(), func(context.Context) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
			if err != nil {
				t.Errorf("Post(%d): %v", i, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("len(order) = %d, want 5", len(order))
	}
}

func TestDispatcherPostBlocksUntilDone(t *testing.T) {
	t.Parallel()

	d := uwb.NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var ran bool
	err := d.Post(context.Background(), func(context.Context) {
		time.Sleep(10 * time.Millisecond)
		ran = true
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !ran {
		t.Error("Post should not return until fn has completed")
	}
}

func TestDispatcherPostAfterCloseFailsFast(t *testing.T) {
	t.Parallel()

	d := uwb.NewDispatcher()
	d.Close()

	err := d.Post(context.Background(), func(context.Context) {
		t.Error("fn must not run once the dispatcher is closed")
	})
	if err != uwb.ErrDispatcherClosed {
		t.Errorf("err = %v, want ErrDispatcherClosed", err)
	}
}

func TestDispatcherPostRespectsCallerContextCancellation(t *testing.T) {
	t.Parallel()

	d := uwb.NewDispatcher()
	// No Run goroutine: the queued command can never execute, so Post must
	// return once the caller's context is cancelled rather than block
	// forever.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Post(ctx, func(context.Context) {})
	if err == nil {
		t.Error("expected context deadline error, got nil")
	}
}
