package queue

import (
	"sync"
	"testing"
)

// fitOutcome stands in for the pipeline results the pool collects
type fitOutcome struct {
	AreaID int64
	State  string
}

func TestFIFOOrder(t *testing.T) {
	q := New[fitOutcome]()

	q.Push(fitOutcome{AreaID: 1, State: "fitted"})
	q.Push(fitOutcome{AreaID: 2, State: "fallback"}, fitOutcome{AreaID: 3, State: "fitted"})

	for want := int64(1); want <= 3; want++ {
		got := q.Pop()
		if got.AreaID != want {
			t.Fatalf("Pop() area = %d, want %d", got.AreaID, want)
		}
	}
	if !q.Empty() {
		t.Error("queue should be empty after draining")
	}
}

func TestPopEmptyReturnsZero(t *testing.T) {
	q := New[fitOutcome]()
	if got := q.Pop(); got.AreaID != 0 || got.State != "" {
		t.Errorf("Pop() on empty queue = %+v, want zero value", got)
	}
}

func TestInterleavedPushPop(t *testing.T) {
	q := New[int]()

	q.Push(1, 2)
	if got := q.Pop(); got != 1 {
		t.Fatalf("Pop() = %d, want 1", got)
	}
	q.Push(3)
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}

	// drain fully so the internal buffer resets, then reuse
	if got := q.Pop(); got != 2 {
		t.Fatalf("Pop() = %d, want 2", got)
	}
	if got := q.Pop(); got != 3 {
		t.Fatalf("Pop() = %d, want 3", got)
	}
	q.Push(4)
	if got := q.Pop(); got != 4 {
		t.Fatalf("Pop() after reset = %d, want 4", got)
	}
}

func TestGetAndEmptyKeepsOrder(t *testing.T) {
	q := New[fitOutcome]()
	q.Push(fitOutcome{AreaID: 1}, fitOutcome{AreaID: 2}, fitOutcome{AreaID: 3})

	// a consumed prefix must not leak into the drain
	_ = q.Pop()

	items := q.GetAndEmpty()
	if len(items) != 2 {
		t.Fatalf("GetAndEmpty() returned %d items, want 2", len(items))
	}
	if items[0].AreaID != 2 || items[1].AreaID != 3 {
		t.Errorf("unexpected drain order: %+v", items)
	}
	if q.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", q.Len())
	}
}

func TestConcurrentPushers(t *testing.T) {
	q := New[fitOutcome]()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			q.Push(fitOutcome{AreaID: id})
		}(int64(i))
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", q.Len())
	}

	seen := make(map[int64]bool, 100)
	for _, item := range q.GetAndEmpty() {
		if seen[item.AreaID] {
			t.Fatalf("area %d delivered twice", item.AreaID)
		}
		seen[item.AreaID] = true
	}
	if len(seen) != 100 {
		t.Errorf("drained %d distinct items, want 100", len(seen))
	}
}

func TestConcurrentDrains(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	var wg sync.WaitGroup
	drains := make(chan []int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			drains <- q.GetAndEmpty()
		}()
	}
	wg.Wait()
	close(drains)

	// each item must be handed out exactly once across all drains
	total := 0
	for d := range drains {
		total += len(d)
	}
	if total != 100 {
		t.Errorf("drains returned %d items total, want 100", total)
	}
}
