package dimmer

import "testing"

func TestPublisherThresholdBoundary(t *testing.T) {
	var slot Slot
	wake := make(chan struct{}, 1)
	p := NewPublisher(&slot, wake, 100)

	// Baseline starts at 0, so the first real sample passes the filter.
	p.OnSample(2000)
	if v, ok := slot.TryTake(); !ok || v != 2000 {
		t.Fatalf("first sample: slot = (%d,%v), want (2000,true)", v, ok)
	}
	drain(wake)

	// Exactly at the threshold: suppressed.
	p.OnSample(2100)
	if _, ok := slot.TryTake(); ok {
		t.Fatal("delta == threshold was published")
	}
	if len(wake) != 0 {
		t.Fatal("suppressed sample raised a wake")
	}

	// One past the threshold: published.
	p.OnSample(2101)
	if v, ok := slot.TryTake(); !ok || v != 2101 {
		t.Fatalf("delta == threshold+1: slot = (%d,%v), want (2101,true)", v, ok)
	}
	if len(wake) != 1 {
		t.Fatalf("wake count = %d, want 1", len(wake))
	}
}

func TestPublisherBaselineIsLastPublished(t *testing.T) {
	var slot Slot
	wake := make(chan struct{}, 1)
	p := NewPublisher(&slot, wake, 100)

	for _, raw := range []uint16{2000, 2050, 2150, 2140} {
		p.OnSample(raw)
	}

	// 2000 passes (vs baseline 0), 2050 is noise, 2150 passes (vs 2000),
	// 2140 is noise (vs 2150). Latest-wins leaves only 2150 pending.
	if v, ok := slot.TryTake(); !ok || v != 2150 {
		t.Fatalf("slot = (%d,%v), want (2150,true)", v, ok)
	}
	if _, ok := slot.TryTake(); ok {
		t.Fatal("more than one value pending after the sequence")
	}
}

func TestPublisherWakesCoalesce(t *testing.T) {
	var slot Slot
	wake := make(chan struct{}, 1)
	p := NewPublisher(&slot, wake, 100)

	p.OnSample(1000)
	p.OnSample(2000)
	p.OnSample(3000)

	if len(wake) != 1 {
		t.Fatalf("wake count = %d, want 1 after coalescing", len(wake))
	}
	if v, ok := slot.TryTake(); !ok || v != 3000 {
		t.Fatalf("slot = (%d,%v), want (3000,true)", v, ok)
	}
}

func TestPublisherSetThreshold(t *testing.T) {
	var slot Slot
	wake := make(chan struct{}, 1)
	p := NewPublisher(&slot, wake, 100)

	p.OnSample(2000)
	slot.TryTake()
	drain(wake)

	p.SetThreshold(10)
	if got := p.Threshold(); got != 10 {
		t.Fatalf("Threshold() = %d, want 10", got)
	}
	p.OnSample(2011)
	if v, ok := slot.TryTake(); !ok || v != 2011 {
		t.Fatalf("slot = (%d,%v), want (2011,true) after tightening", v, ok)
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
