package eventbus

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish("model-updated")

	if got := recv(t, a); got != "model-updated" {
		t.Fatalf("subscriber a got %v", got)
	}
	if got := recv(t, b); got != "model-updated" {
		t.Fatalf("subscriber b got %v", got)
	}
}

func TestPublishNonBlockingWhenBufferFull(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			bus.Publish(i)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	// The buffered prefix is still delivered in order.
	if got := recv(t, sub); got != 0 {
		t.Fatalf("first event %v, want 0", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	bus.Publish("ignored")
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel still open after close")
	}
	bus.Publish("dropped")
	if late := bus.Subscribe(); late == nil {
		t.Fatal("subscribe after close returned nil channel")
	} else if _, ok := <-late; ok {
		t.Fatal("late subscriber channel should be closed")
	}
}
