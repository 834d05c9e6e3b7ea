package ramp

import (
	"time"

	"dimmercode-go/x/mathx"
)

// Step applies one intermediate level in [0..top].
type Step func(level uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear walks a level from 'from' to 'to' in 'steps' equal moves spread over
// durationMs, calling set for each move. The caller drives it from its own
// goroutine and supplies Tick for timing and cancellation.
// steps==0 or durationMs==0 snaps straight to 'to'.
func Linear(from, to, top uint16, durationMs uint32, steps uint16, tick Tick, set Step) {
	to = mathx.Min(to, top)
	if steps == 0 || durationMs == 0 {
		set(to)
		return
	}
	stepDurMs := durationMs / uint32(steps)
	if stepDurMs == 0 {
		stepDurMs = 1
	}
	stepDur := time.Duration(stepDurMs) * time.Millisecond

	delta := int32(to) - int32(from)
	for i := uint16(1); i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		lvl := int32(from) + delta*int32(i)/int32(steps)
		set(uint16(mathx.Clamp(lvl, 0, int32(top))))
	}
	if !tick(stepDur) {
		return
	}
	set(to)
}
