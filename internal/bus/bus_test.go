package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageUpserted, Timestamp: time.Now(), Payload: MessageRef{ConversationID: "c1", MessageID: "m1"}})

	select {
	case evt := <-ch:
		if evt.Kind != KindMessageUpserted {
			t.Errorf("got kind %q, want %q", evt.Kind, KindMessageUpserted)
		}
		ref, ok := evt.Payload.(MessageRef)
		if !ok || ref.MessageID != "m1" {
			t.Errorf("payload = %v, want MessageRef m1", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transport.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageUpserted})
	b.Publish(Event{Kind: KindTransportTyping, Payload: true})

	select {
	case evt := <-ch:
		if evt.Kind != KindTransportTyping {
			t.Errorf("got kind %q, want %q", evt.Kind, KindTransportTyping)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// No cross-namespace delivery.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transport.", 10)
	unsub()
	unsub() // safe twice

	b.Publish(Event{Kind: KindTransportMessage, Payload: "hi"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transport.", 1)
	defer unsub()

	b.Publish(Event{Kind: KindTransportMessage, Payload: "one"})
	// Buffer full: must not block, must drop.
	b.Publish(Event{Kind: KindTransportMessage, Payload: "two"})

	evt := <-ch
	if evt.Payload != "one" {
		t.Errorf("got %v, want one", evt.Payload)
	}
}
