// services/dimmer/publisher.go
package dimmer

import (
	"sync/atomic"

	"dimmercode-go/x/mathx"
)

// DefaultThreshold is the change filter in raw counts; ~2.4% of full scale
// on a 12-bit converter.
const DefaultThreshold uint16 = 100

// Publisher runs in the sampling context. It forwards a sample to the slot
// only when it moved more than the threshold away from the last forwarded
// value, then wakes the coordinator. Anything closer is treated as noise:
// no slot write, no wake.
type Publisher struct {
	slot      *Slot
	wake      chan<- struct{}
	threshold atomic.Uint32

	// last is the comparison baseline. Sampling context only; never read
	// from main context.
	last uint16
}

// NewPublisher binds a publisher to its slot and wake channel. The wake
// channel should have capacity 1; redundant wakes coalesce.
func NewPublisher(slot *Slot, wake chan<- struct{}, threshold uint16) *Publisher {
	p := &Publisher{slot: slot, wake: wake}
	p.threshold.Store(uint32(threshold))
	return p
}

// OnSample is the per-conversion callback. Bounded, non-blocking, total.
func (p *Publisher) OnSample(raw uint16) {
	if mathx.AbsDiffU16(raw, p.last) <= uint16(p.threshold.Load()) {
		return
	}
	// New baseline first: future comparisons use this sample even if the
	// slot still holds an unread one (latest wins).
	p.last = raw
	p.slot.Put(raw)
	select {
	case p.wake <- struct{}{}:
	default: // a wake is already pending
	}
}

// SetThreshold adjusts the change filter at runtime. Safe from main context
// while sampling runs.
func (p *Publisher) SetThreshold(t uint16) {
	p.threshold.Store(uint32(t))
}

// Threshold returns the current change filter.
func (p *Publisher) Threshold() uint16 {
	return uint16(p.threshold.Load())
}
