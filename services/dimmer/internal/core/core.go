// services/dimmer/internal/core/core.go
package core

import (
	"context"

	"tinygo.org/x/drivers"
)

// ---- Sampling source ----

// MaxRaw is the full-scale raw sample (12-bit converters).
const MaxRaw uint16 = 4095

// AnalogSource produces raw samples in [0, MaxRaw] and invokes the registered
// callback once per completed conversion, in its own (interrupt-like)
// context. The callback must not block.
type AnalogSource interface {
	// Start begins continuous sampling. onSample fires per conversion.
	Start(onSample func(raw uint16)) error
	// Stop halts sampling; no callbacks fire after it returns.
	Stop()
}

// AnalogReader is a single-shot raw read, used by timer-paced sources.
type AnalogReader interface {
	ReadRaw() (uint16, error)
}

// ---- PWM output ----

// PWMOutput is a free-running PWM channel. Once configured, only the duty
// needs updating per cycle.
type PWMOutput interface {
	Configure(freqHz uint64, top uint16) error
	Top() uint16
	// SetLevel writes the compare register; levels above Top are clamped.
	SetLevel(level uint16)
	// SetFraction scales f in [0.0,1.0] onto [0,Top]. Out-of-range input is
	// clamped silently.
	SetFraction(f float32)
}

// ---- GPIO with interrupt support (ALERT/RDY pins) ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin is an input pin that can invoke a handler on an edge. The handler
// runs in interrupt context and must be short and non-blocking.
type IRQPin interface {
	ConfigureInput(pull Pull) error
	Get() bool
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// ---- Debug byte transport ----

// DebugPort is the optional human-readable reporting/console channel.
// Write blocks until the transport accepts the bytes (its own contract).
type DebugPort interface {
	Write(p []byte) (int, error)
	// Readable signals that at least one byte is pending.
	Readable() <-chan struct{}
	// RecvSomeContext reads what is available, bounded by ctx.
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// ---- Platform factories (injected into the service) ----

type ADCFactory interface {
	ByChannel(ch int) (AnalogReader, bool)
}

type PWMFactory interface {
	ByPin(pin int) (PWMOutput, bool)
}

type I2CFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

type PinFactory interface {
	ByNumber(n int) (IRQPin, bool)
}

// Resources bundles everything a platform provides to the dimmer service.
// Factories may be nil when the platform lacks the capability.
type Resources struct {
	ADC   ADCFactory
	PWM   PWMFactory
	I2C   I2CFactory
	Pins  PinFactory
	Debug DebugPort // nil => no reporting, no console
}
