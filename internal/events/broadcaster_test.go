package events

import (
	"testing"
	"time"
)

func TestPublishFansOutToSubscribers(t *testing.T) {
	b := NewBroadcaster(8)
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish(Event{Type: TypeStatus, Message: "hello"})

	for i, sub := range []Subscriber{sub1, sub2} {
		select {
		case e := <-sub:
			if e.Message != "hello" {
				t.Fatalf("subscriber %d got %q", i, e.Message)
			}
			if e.At.IsZero() {
				t.Fatalf("subscriber %d event not timestamped", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(8)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Fill the subscriber buffer and keep going; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish(Event{Type: TypeStatus, Message: "flood"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestRecentRingIsBounded(t *testing.T) {
	b := NewBroadcaster(4)
	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: TypeStatus, Message: "m"})
	}
	if got := len(b.Recent()); got != 4 {
		t.Fatalf("len(Recent()) = %d, want 4", got)
	}
}

func TestResetClearsRecent(t *testing.T) {
	b := NewBroadcaster(8)
	b.Publish(Event{Type: TypeStatus, Message: "old run"})
	b.Reset()
	if got := len(b.Recent()); got != 0 {
		t.Fatalf("len(Recent()) = %d, want 0 after reset", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(8)
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", b.SubscriberCount())
	}
}
