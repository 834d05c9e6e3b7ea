// services/dimmer/fader.go
package dimmer

import (
	"sync"
	"time"

	"dimmercode-go/services/dimmer/internal/core"
	"dimmercode-go/x/ramp"
)

// Fader moves the PWM level towards a target through a linear ramp instead
// of snapping. A new target cancels the ramp in flight and starts over from
// the last applied level, so the newest value always wins.
type Fader struct {
	pwm core.PWMOutput

	mu         sync.Mutex
	durationMs uint32
	steps      uint16
	level      uint16 // last applied level
	cancel     chan struct{}
	alive      bool
}

func NewFader(pwm core.PWMOutput, durationMs uint32, steps uint16) *Fader {
	return &Fader{pwm: pwm, durationMs: durationMs, steps: steps}
}

// SetParams reconfigures the fade. durationMs==0 or steps==0 makes To snap.
func (f *Fader) SetParams(durationMs uint32, steps uint16) {
	f.mu.Lock()
	f.durationMs = durationMs
	f.steps = steps
	f.mu.Unlock()
}

// To ramps the output to level. Returns immediately; the ramp runs in its
// own goroutine.
func (f *Fader) To(level uint16) {
	f.mu.Lock()
	if f.alive {
		close(f.cancel)
		f.alive = false
	}
	durationMs, steps := f.durationMs, f.steps
	from := f.level
	if durationMs == 0 || steps == 0 {
		f.level = level
		f.mu.Unlock()
		f.pwm.SetLevel(level)
		return
	}
	cancel := make(chan struct{})
	f.cancel, f.alive = cancel, true
	f.mu.Unlock()

	top := f.pwm.Top()
	go func() {
		tick := func(d time.Duration) bool {
			select {
			case <-cancel:
				return false
			case <-time.After(d):
				return true
			}
		}
		ramp.Linear(from, level, top, durationMs, steps, tick, func(lvl uint16) {
			f.mu.Lock()
			// A step can race its own cancellation when the tick timer and
			// the cancel fire together; a stale ramp must not write.
			if !f.alive || f.cancel != cancel {
				f.mu.Unlock()
				return
			}
			f.level = lvl
			f.mu.Unlock()
			f.pwm.SetLevel(lvl)
		})
		f.mu.Lock()
		if f.cancel == cancel {
			f.alive = false
		}
		f.mu.Unlock()
	}()
}

// Stop cancels any ramp in flight.
func (f *Fader) Stop() {
	f.mu.Lock()
	if f.alive {
		close(f.cancel)
		f.alive = false
	}
	f.mu.Unlock()
}

// Level returns the last applied level.
func (f *Fader) Level() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}
