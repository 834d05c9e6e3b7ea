// services/dimmer/mailbox.go
package dimmer

import "sync/atomic"

// Slot is the single-slot mailbox between the sampling context and the main
// loop. The publisher is the sole writer, the coordinator the sole reader.
//
// The pending flag (bit 16) and the 12-bit payload share one atomic word, so
// a reader can never observe the flag set next to a half-written payload:
// the Store that raises the flag is the same Store that writes the payload.
type Slot struct {
	word atomic.Uint32
}

const slotFull = uint32(1) << 16

// Put deposits raw as the pending value, replacing any unread one.
// Called from the sampling callback; never blocks.
func (s *Slot) Put(raw uint16) {
	s.word.Store(slotFull | uint32(raw))
}

// TryTake removes and returns the pending value, if any. Main context only.
// A publish delivers to exactly one successful TryTake; later calls report
// empty until the next Put.
func (s *Slot) TryTake() (uint16, bool) {
	for {
		w := s.word.Load()
		if w&slotFull == 0 {
			return 0, false
		}
		if s.word.CompareAndSwap(w, 0) {
			return uint16(w), true
		}
		// A newer Put landed between Load and CAS; take that one instead.
	}
}

// Pending reports whether an unread value is waiting, without consuming it.
func (s *Slot) Pending() bool {
	return s.word.Load()&slotFull != 0
}
