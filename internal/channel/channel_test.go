package channel

import (
	"testing"
	"time"
)

type areaStub struct {
	ID int64
}

func TestBuffered_SendReceive(t *testing.T) {
	ch := NewBuffered[areaStub](2)

	ch.Send(areaStub{ID: 1})
	ch.Send(areaStub{ID: 2})
	if ch.Len() != 2 {
		t.Errorf("expected 2 buffered, got %d", ch.Len())
	}

	got := <-ch.Receive()
	if got.ID != 1 {
		t.Errorf("expected area 1 first, got %d", got.ID)
	}
	if ch.Len() != 1 {
		t.Errorf("expected 1 buffered, got %d", ch.Len())
	}
}

func TestBuffered_CloseDrains(t *testing.T) {
	ch := NewBuffered[areaStub](4)
	ch.Send(areaStub{ID: 1})
	ch.Send(areaStub{ID: 2})
	ch.Close()

	var ids []int64
	for a := range ch.Receive() {
		ids = append(ids, a.ID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("unexpected drain order: %v", ids)
	}
}

func TestUnbuffered_SendBlocksUntilReceived(t *testing.T) {
	ch := NewUnbuffered[areaStub]()
	if ch.Len() != 0 {
		t.Errorf("unbuffered Len must be 0, got %d", ch.Len())
	}

	done := make(chan struct{})
	go func() {
		ch.Send(areaStub{ID: 7})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("send completed before receive")
	case <-time.After(10 * time.Millisecond):
	}

	got := <-ch.Receive()
	if got.ID != 7 {
		t.Errorf("expected area 7, got %d", got.ID)
	}
	<-done
}

func TestNewReturnsChannel(t *testing.T) {
	ch := New[areaStub](8)
	go ch.Send(areaStub{ID: 3}) // unbuffered in debug builds

	got := <-ch.Receive()
	if got.ID != 3 {
		t.Errorf("expected area 3, got %d", got.ID)
	}
	ch.Close()
}
