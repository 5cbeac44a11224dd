package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

func comparison(id string) Event {
	return model.ComparisonEvent{
		EventID:  id,
		FamilyID: "fam",
		Category: model.CategoryVisibleHousehold,
		Outcome:  model.OutcomeA,
		Weight:   5,
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, comparison("event1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	event := <-q.Dequeue(ctx)
	if event.EventID != "event1" {
		t.Errorf("expected event1, got %v", event.EventID)
	}
	if event.Category != model.CategoryVisibleHousehold {
		t.Errorf("expected category to survive the queue, got %q", event.Category)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"event1", "event2"} {
		if err := q.Enqueue(ctx, comparison(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if err := q.Enqueue(ctx, comparison("event3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l, c := q.Len(), q.Capacity(); l != 2 || c != 2 {
		t.Errorf("expected length 2 of capacity 2, got %d of %d", l, c)
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 10, 100
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, comparison(fmt.Sprintf("e-%d-%d", id, j))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(); l != producers*perProducer {
		t.Fatalf("expected %d queued events, got %d", producers*perProducer, l)
	}

	_ = q.Close()
	received := 0
	for range q.Dequeue(ctx) {
		received++
	}
	if received != producers*perProducer {
		t.Errorf("expected to drain %d events, got %d", producers*perProducer, received)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if err := q.Enqueue(ctx, comparison("before")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, comparison("after")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	ch := q.Dequeue(ctx)
	if e, ok := <-ch; !ok || e.EventID != "before" {
		t.Errorf("expected queued event to drain after close, got %v %v", e.EventID, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("expected dequeue channel to close once drained")
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, comparison("late")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	dctx, dcancel := context.WithCancel(context.Background())
	ch := q.Dequeue(dctx)
	dcancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no event after cancellation")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel did not close after cancellation")
	}
}
