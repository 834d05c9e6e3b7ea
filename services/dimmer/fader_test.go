package dimmer

import (
	"testing"
	"time"

	"dimmercode-go/services/dimmer/internal/platform"
)

func newFaderPWM(t *testing.T) *platform.FakePWM {
	t.Helper()
	pwm := &platform.FakePWM{}
	if err := pwm.Configure(1000, 1000); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return pwm
}

func waitLevel(t *testing.T, f *Fader, want uint16) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if f.Level() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("fader level = %d, want %d", f.Level(), want)
}

func TestFaderSnapsWithoutParams(t *testing.T) {
	pwm := newFaderPWM(t)
	f := NewFader(pwm, 0, 0)

	f.To(600)
	if got, ok := pwm.LastLevel(); !ok || got != 600 {
		t.Fatalf("pwm level = (%d,%v), want (600,true)", got, ok)
	}
	if pwm.Updates() != 1 {
		t.Fatalf("updates = %d, want a single snap", pwm.Updates())
	}
}

func TestFaderRampsThroughSteps(t *testing.T) {
	pwm := newFaderPWM(t)
	f := NewFader(pwm, 40, 4)

	f.To(400)
	waitLevel(t, f, 400)

	levels := pwm.Levels()
	if len(levels) < 2 {
		t.Fatalf("levels = %v, want intermediate steps", levels)
	}
	if levels[len(levels)-1] != 400 {
		t.Fatalf("final level = %d, want 400", levels[len(levels)-1])
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] < levels[i-1] {
			t.Fatalf("ramp not monotone: %v", levels)
		}
	}
}

func TestFaderNewTargetCancelsRamp(t *testing.T) {
	pwm := newFaderPWM(t)
	f := NewFader(pwm, 200, 50)

	f.To(1000)
	f.SetParams(0, 0)
	f.To(100)

	waitLevel(t, f, 100)
	time.Sleep(20 * time.Millisecond)
	if got := f.Level(); got != 100 {
		t.Fatalf("level moved to %d after the old ramp should be dead", got)
	}
}

func TestFaderStop(t *testing.T) {
	pwm := newFaderPWM(t)
	f := NewFader(pwm, 500, 100)

	f.To(1000)
	f.Stop()
	settled := f.Level()
	time.Sleep(30 * time.Millisecond)
	if got := f.Level(); got != settled {
		t.Fatalf("level still moving after Stop: %d -> %d", settled, got)
	}
	// Stop is idempotent.
	f.Stop()
}
