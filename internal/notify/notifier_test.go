package notify

import (
	"testing"
	"time"

	"github.com/okravchenko/dialog/internal/bus"
	"github.com/okravchenko/dialog/internal/store"
)

func TestBusNotifierPublishesRef(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("notify.", 4)
	defer unsub()

	n := NewBusNotifier(b, nil)
	n.Notify(store.Message{ID: "m1", ConversationID: "c1", Text: "hi"})

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindNotifyIncoming {
			t.Errorf("kind = %q", evt.Kind)
		}
		ref, ok := evt.Payload.(bus.MessageRef)
		if !ok || ref.ConversationID != "c1" || ref.MessageID != "m1" {
			t.Errorf("payload = %v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification event")
	}
}
