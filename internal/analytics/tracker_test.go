package analytics

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapTrackerEventNames(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewZapTracker(zap.New(core))

	tr.ChatOpened("c1")
	tr.MessageSent("c1", "m1")
	tr.MessageReceived("c1", "m2")
	tr.NetworkError("socket closed")
	tr.StorageError("disk full")

	want := []string{"chat_opened", "message_sent", "message_received", "network_error", "storage_error"}
	entries := logs.All()
	if len(entries) != len(want) {
		t.Fatalf("got %d log entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Message != name {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Message, name)
		}
	}

	fields := entries[1].ContextMap()
	if fields["conversation_id"] != "c1" || fields["message_id"] != "m1" {
		t.Errorf("message_sent fields = %v", fields)
	}
}
