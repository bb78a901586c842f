package readiness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWaitReturnsImmediatelyWhenSet(t *testing.T) {
	e := New()
	e.Set()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := e.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
}

func TestSetReleasesAllWaiters(t *testing.T) {
	e := New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	const waiters = 5
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.Wait(ctx)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	e.Set()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("waiter error = %v", err)
		}
	}
}

func TestClearRearms(t *testing.T) {
	e := New()
	e.Set()
	e.Clear()

	if e.IsSet() {
		t.Fatal("IsSet() = true after Clear")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := e.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestSetIdempotent(t *testing.T) {
	e := New()
	e.Set()
	e.Set() // must not panic on double close
	if !e.IsSet() {
		t.Error("IsSet() = false after Set")
	}

	e.Clear()
	e.Clear()
	if e.IsSet() {
		t.Error("IsSet() = true after Clear")
	}
}

func TestDoneChannelFollowsLevel(t *testing.T) {
	e := New()
	done := e.Done()

	select {
	case <-done:
		t.Fatal("Done() closed before Set")
	default:
	}

	e.Set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after Set")
	}
}
