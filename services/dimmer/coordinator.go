// services/dimmer/coordinator.go
package dimmer

import (
	"context"

	"dimmercode-go/services/dimmer/internal/core"
)

// Coordinator is the main-loop state machine. Each iteration parks on the
// wake channel (the low-power analogue: nothing runs until a wake arrives),
// then polls the slot exactly once. A spurious wake finds the slot empty and
// goes straight back to sleep with no side effects.
//
// There is exactly one coordinator per slot; it is the slot's only reader.
type Coordinator struct {
	slot *Slot
	wake <-chan struct{}
	pwm  core.PWMOutput

	// fader is optional; when nil the duty snaps via SetFraction.
	fader *Fader

	// onApply, when set, observes each consumed sample after the PWM update
	// (telemetry, debug reporting). Runs in the coordinator's context.
	onApply func(raw, level uint16, fraction float32)
}

func NewCoordinator(slot *Slot, wake <-chan struct{}, pwm core.PWMOutput) *Coordinator {
	return &Coordinator{slot: slot, wake: wake, pwm: pwm}
}

// WithFader routes duty updates through a fade ramp.
func (c *Coordinator) WithFader(f *Fader) *Coordinator {
	c.fader = f
	return c
}

// WithApplyHook registers the post-update observer.
func (c *Coordinator) WithApplyHook(fn func(raw, level uint16, fraction float32)) *Coordinator {
	c.onApply = fn
	return c
}

// Run blocks until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
		raw, ok := c.slot.TryTake()
		if !ok {
			continue // spurious wake
		}
		c.apply(raw)
	}
}

func (c *Coordinator) apply(raw uint16) {
	f := Fraction(raw)
	level := LevelForRaw(raw, c.pwm.Top())
	if c.fader != nil {
		c.fader.To(level)
	} else {
		c.pwm.SetFraction(f)
	}
	if c.onApply != nil {
		c.onApply(raw, level, f)
	}
}
