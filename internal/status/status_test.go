package status

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLifecycleOrder(t *testing.T) {
	order := []Status{Sending, Sent, Delivered, Read}
	for i, s := range order {
		if s.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", s, s.Rank(), i)
		}
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}

	for i := 0; i < len(order); i++ {
		for j := 0; j < len(order); j++ {
			got := order[i].Before(order[j])
			if got != (i < j) {
				t.Errorf("%s.Before(%s) = %v, want %v", order[i], order[j], got, i < j)
			}
		}
	}
}

func TestUnknownStatus(t *testing.T) {
	var s Status = "pending"
	if s.Valid() {
		t.Error("unknown status reported valid")
	}
	if s.Rank() != -1 {
		t.Errorf("Rank() = %d, want -1", s.Rank())
	}
	if s.Before(Read) {
		t.Error("unknown status should not order before anything")
	}
	if Sending.Before(s) {
		t.Error("nothing should order before an unknown status")
	}
}

func TestTerminal(t *testing.T) {
	if !Read.Terminal() {
		t.Error("Read should be terminal")
	}
	for _, s := range []Status{Sending, Sent, Delivered} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestFixedDelayPolicyAppliesAllStages(t *testing.T) {
	p := FixedDelayPolicy{
		SentAfter:      5 * time.Millisecond,
		DeliveredAfter: 5 * time.Millisecond,
		ReadAfter:      5 * time.Millisecond,
	}

	var mu sync.Mutex
	var applied []Status
	done := make(chan struct{})

	p.Advance(context.Background(), "m1", func(id string, st Status) {
		if id != "m1" {
			t.Errorf("apply id = %q, want m1", id)
		}
		mu.Lock()
		applied = append(applied, st)
		last := len(applied)
		mu.Unlock()
		if last == 3 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stages")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []Status{Sent, Delivered, Read}
	for i, st := range want {
		if applied[i] != st {
			t.Errorf("stage %d = %s, want %s", i, applied[i], st)
		}
	}
}

func TestFixedDelayPolicyCancelled(t *testing.T) {
	p := FixedDelayPolicy{
		SentAfter:      50 * time.Millisecond,
		DeliveredAfter: 50 * time.Millisecond,
		ReadAfter:      50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var mu sync.Mutex
	calls := 0
	p.Advance(ctx, "m1", func(string, Status) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("got %d applies after cancellation, want 0", calls)
	}
}
