// services/dimmer/internal/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"tinygo.org/x/drivers"

	"dimmercode-go/services/dimmer/internal/core"
)

// ----------------------------- ADC (host) ------------------------------------

// FakeReader implements core.AnalogReader with a settable value.
type FakeReader struct {
	v   atomic.Uint32
	mu  sync.Mutex
	err error
}

func (r *FakeReader) SetRaw(raw uint16) { r.v.Store(uint32(raw)) }

// SetErr makes subsequent reads fail with err; nil restores normal reads.
func (r *FakeReader) SetErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *FakeReader) ReadRaw() (uint16, error) {
	r.mu.Lock()
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return uint16(r.v.Load()), nil
}

// ----------------------------- PWM (host) ------------------------------------

// FakePWM implements core.PWMOutput and records every duty update.
type FakePWM struct {
	mu         sync.Mutex
	freqHz     uint64
	top        uint16
	configured bool
	levels     []uint16
	fractions  []float32
}

func (p *FakePWM) Configure(freqHz uint64, top uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if top == 0 {
		top = core.MaxRaw
	}
	p.freqHz = freqHz
	p.top = top
	p.configured = true
	return nil
}

func (p *FakePWM) Top() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

func (p *FakePWM) SetLevel(level uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if level > p.top {
		level = p.top
	}
	p.levels = append(p.levels, level)
}

func (p *FakePWM) SetFraction(f float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	p.fractions = append(p.fractions, f)
	p.levels = append(p.levels, uint16(f*float32(p.top)))
}

// LastLevel returns the most recent compare value and whether any was set.
func (p *FakePWM) LastLevel() (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.levels) == 0 {
		return 0, false
	}
	return p.levels[len(p.levels)-1], true
}

// LastFraction returns the most recent fraction and whether any was set.
func (p *FakePWM) LastFraction() (float32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.fractions) == 0 {
		return 0, false
	}
	return p.fractions[len(p.fractions)-1], true
}

// Updates returns how many duty writes happened.
func (p *FakePWM) Updates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.levels)
}

// Levels returns a copy of all compare values written, in order.
func (p *FakePWM) Levels() []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint16(nil), p.levels...)
}

// ----------------------------- GPIO IRQ (host) --------------------------------

// FakeIRQPin implements core.IRQPin. Driving the level with Set invokes the
// registered handler synchronously, ISR-style, when the edge matches.
type FakeIRQPin struct {
	mu      sync.Mutex
	level   bool
	irqEdge core.Edge
	irqFunc func()
}

func (p *FakeIRQPin) ConfigureInput(_ core.Pull) error { return nil }

func (p *FakeIRQPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakeIRQPin) SetIRQ(edge core.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakeIRQPin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = core.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// Set drives the pin level and fires the handler on a matching edge.
func (p *FakeIRQPin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	edge := p.irqEdge
	p.mu.Unlock()

	if irq == nil || old == level {
		return
	}
	rising := level
	switch {
	case edge == core.EdgeBoth,
		edge == core.EdgeRising && rising,
		edge == core.EdgeFalling && !rising:
		irq()
	}
}

// Pulse strobes the pin low then high (an open-drain ready pulse).
func (p *FakeIRQPin) Pulse() {
	p.Set(false)
	p.Set(true)
}

// ----------------------------- Debug port (host) ------------------------------

// FakeDebugPort implements core.DebugPort with in-memory buffers.
type FakeDebugPort struct {
	mu       sync.Mutex
	wr       bytes.Buffer
	rx       []byte
	readable chan struct{}
}

func NewFakeDebugPort() *FakeDebugPort {
	return &FakeDebugPort{readable: make(chan struct{}, 1)}
}

func (p *FakeDebugPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wr.Write(b)
}

// Written returns everything written so far.
func (p *FakeDebugPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wr.String()
}

// InjectRX appends bytes to the receive side and signals Readable.
func (p *FakeDebugPort) InjectRX(b []byte) {
	p.mu.Lock()
	p.rx = append(p.rx, b...)
	p.mu.Unlock()
	select {
	case p.readable <- struct{}{}:
	default:
	}
}

func (p *FakeDebugPort) Readable() <-chan struct{} { return p.readable }

func (p *FakeDebugPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		p.mu.Lock()
		if len(p.rx) > 0 {
			n := copy(buf, p.rx)
			p.rx = p.rx[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.readable:
		}
	}
}

// ----------------------------- I2C (host) ------------------------------------

// FakeADS1015Bus emulates just enough of an ADS1015 on the wire for the
// alert-source path: register writes are recorded, conversion reads return
// the programmed sample left-justified.
type FakeADS1015Bus struct {
	mu     sync.Mutex
	sample uint16
	ptr    byte
	Writes [][]byte
}

func (b *FakeADS1015Bus) SetSample(raw uint16) {
	b.mu.Lock()
	b.sample = raw
	b.mu.Unlock()
}

func (b *FakeADS1015Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w) > 0 {
		b.ptr = w[0]
		b.Writes = append(b.Writes, append([]byte(nil), w...))
	}
	if len(r) >= 2 && b.ptr == 0x00 {
		v := b.sample << 4
		r[0] = byte(v >> 8)
		r[1] = byte(v)
	}
	return nil
}

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// ----------------------------- Factories -------------------------------------

type hostADCFactory struct{ readers map[int]*FakeReader }

func (f *hostADCFactory) ByChannel(ch int) (core.AnalogReader, bool) {
	r, ok := f.readers[ch]
	return r, ok
}

type hostPWMFactory struct{ pwms map[int]*FakePWM }

func (f *hostPWMFactory) ByPin(pin int) (core.PWMOutput, bool) {
	p, ok := f.pwms[pin]
	if !ok {
		p = &FakePWM{}
		f.pwms[pin] = p
	}
	return p, true
}

type hostPinFactory struct{ pins map[int]*FakeIRQPin }

func (f *hostPinFactory) ByNumber(n int) (core.IRQPin, bool) {
	p, ok := f.pins[n]
	if !ok {
		p = &FakeIRQPin{level: true}
		f.pins[n] = p
	}
	return p, true
}

// Fakes hands tests direct access to the host-side implementations.
type Fakes struct {
	Readers map[int]*FakeReader
	PWMs    map[int]*FakePWM
	Pins    map[int]*FakeIRQPin
	ADS     *FakeADS1015Bus
	Debug   *FakeDebugPort
}

// Reader returns (creating if needed) the fake reader for a channel.
func (f *Fakes) Reader(ch int) *FakeReader {
	r, ok := f.Readers[ch]
	if !ok {
		r = &FakeReader{}
		f.Readers[ch] = r
	}
	return r
}

// PWM returns (creating if needed) the fake PWM for a pin.
func (f *Fakes) PWM(pin int) *FakePWM {
	p, ok := f.PWMs[pin]
	if !ok {
		p = &FakePWM{}
		f.PWMs[pin] = p
	}
	return p
}

// Pin returns (creating if needed) the fake IRQ pin for a number.
func (f *Fakes) Pin(n int) *FakeIRQPin {
	p, ok := f.Pins[n]
	if !ok {
		p = &FakeIRQPin{level: true}
		f.Pins[n] = p
	}
	return p
}

// DefaultResources builds inert host resources plus handles to the fakes.
func DefaultResources() (core.Resources, *Fakes) {
	fk := &Fakes{
		Readers: map[int]*FakeReader{0: {}},
		PWMs:    map[int]*FakePWM{},
		Pins:    map[int]*FakeIRQPin{},
		ADS:     &FakeADS1015Bus{},
		Debug:   NewFakeDebugPort(),
	}
	res := core.Resources{
		ADC:   &hostADCFactory{readers: fk.Readers},
		PWM:   &hostPWMFactory{pwms: fk.PWMs},
		I2C:   &hostI2CFactory{buses: map[string]drivers.I2C{"i2c0": fk.ADS}},
		Pins:  &hostPinFactory{pins: fk.Pins},
		Debug: fk.Debug,
	}
	return res, fk
}
