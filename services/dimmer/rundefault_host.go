// services/dimmer/rundefault_host.go
//go:build !rp2040 && !rp2350

package dimmer

import (
	"context"

	"dimmercode-go/bus"
	"dimmercode-go/services/dimmer/internal/platform"
)

// RunDefault runs the service on host fakes. Board builds get the variant
// of this function that binds machine peripherals.
func RunDefault(ctx context.Context, conn *bus.Connection) {
	res, _ := platform.DefaultResources()
	Run(ctx, conn, res)
}

// HostControls drives the fake peripherals behind RunHost.
type HostControls struct {
	fk *platform.Fakes
}

// RunHost starts the service on host fakes in its own goroutine and returns
// handles for driving them. For simulators and demos.
func RunHost(ctx context.Context, conn *bus.Connection) *HostControls {
	res, fk := platform.DefaultResources()
	go Run(ctx, conn, res)
	return &HostControls{fk: fk}
}

// SetAnalog sets the raw value the fake ADC channel reads.
func (h *HostControls) SetAnalog(channel int, raw uint16) {
	h.fk.Reader(channel).SetRaw(raw)
}

// PWMLevel returns the last compare value written to the fake PWM on pin.
func (h *HostControls) PWMLevel(pin int) (uint16, bool) {
	return h.fk.PWM(pin).LastLevel()
}

// DebugOutput returns everything written to the fake debug port.
func (h *HostControls) DebugOutput() string {
	return h.fk.Debug.Written()
}

// SendConsole feeds a command line into the fake debug port's receive side.
func (h *HostControls) SendConsole(line string) {
	h.fk.Debug.InjectRX([]byte(line))
}
