// services/dimmer/internal/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"sync"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"dimmercode-go/services/dimmer/internal/core"
	"dimmercode-go/x/mathx"
	"dimmercode-go/x/timex"
)

// -----------------------------------------------------------------------------
// ADC (on-chip, channels 0..3 on GP26..GP29)
// -----------------------------------------------------------------------------

type rp2ADCFactory struct {
	mu      sync.Mutex
	once    sync.Once
	readers map[int]*rp2Reader
}

func (f *rp2ADCFactory) ByChannel(ch int) (core.AnalogReader, bool) {
	if ch < 0 || ch > 3 {
		return nil, false
	}
	f.once.Do(machine.InitADC)
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.readers[ch]; ok {
		return r, true
	}
	var pin machine.Pin
	switch ch {
	case 0:
		pin = machine.ADC0
	case 1:
		pin = machine.ADC1
	case 2:
		pin = machine.ADC2
	case 3:
		pin = machine.ADC3
	}
	adc := machine.ADC{Pin: pin}
	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return nil, false
	}
	r := &rp2Reader{adc: adc}
	f.readers[ch] = r
	return r, true
}

type rp2Reader struct {
	adc machine.ADC
}

// ReadRaw narrows machine's left-justified 16-bit reading back to the
// converter's native 12 bits.
func (r *rp2Reader) ReadRaw() (uint16, error) {
	return r.adc.Get() >> 4, nil
}

// -----------------------------------------------------------------------------
// PWM (slice/channel per pin)
// -----------------------------------------------------------------------------

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
	Channel(pin machine.Pin) (uint8, error)
}

func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type rp2PWMFactory struct {
	mu   sync.Mutex
	outs map[int]*rp2PWM
}

func (f *rp2PWMFactory) ByPin(pin int) (core.PWMOutput, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.outs[pin]; ok {
		return p, true
	}
	slice, err := machine.PWMPeripheral(machine.Pin(pin))
	if err != nil {
		return nil, false
	}
	p := &rp2PWM{pin: pin, ctrl: pwmGroupBySlice(slice)}
	f.outs[pin] = p
	return p, true
}

type rp2PWM struct {
	mu    sync.Mutex
	pin   int
	ctrl  pwmCtrl
	chIdx uint8

	top   uint16 // logical resolution (0..top)
	hwTop uint32 // controller.Top() after Configure
}

func (p *rp2PWM) Configure(freqHz uint64, top uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	freqHz = mathx.Max(freqHz, 1)
	top = mathx.Max(top, 1)

	if err := p.ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(uint32(freqHz))}); err != nil {
		return err
	}
	machine.Pin(p.pin).Configure(machine.PinConfig{Mode: machine.PinPWM})
	ch, err := p.ctrl.Channel(machine.Pin(p.pin))
	if err != nil {
		return err
	}
	p.chIdx = ch
	p.top = top
	p.hwTop = p.ctrl.Top()
	return nil
}

func (p *rp2PWM) Top() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

func (p *rp2PWM) SetLevel(level uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.top == 0 || p.hwTop == 0 {
		return
	}
	level = mathx.Min(level, p.top)
	// Scale from logical [0..top] to hardware [0..hwTop].
	p.ctrl.Set(p.chIdx, (uint32(level)*p.hwTop)/uint32(p.top))
}

func (p *rp2PWM) SetFraction(f float32) {
	f = mathx.Clamp(f, 0, 1)
	p.mu.Lock()
	top := p.top
	p.mu.Unlock()
	p.SetLevel(uint16(f * float32(top)))
}

// -----------------------------------------------------------------------------
// GPIO IRQ pins
// -----------------------------------------------------------------------------

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (core.IRQPin, bool) {
	// Constrain to RP2's user GPIOs (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n)}, true
}

type rp2Pin struct {
	p machine.Pin
}

func (r *rp2Pin) ConfigureInput(pull core.Pull) error {
	var mode machine.PinMode
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) Get() bool { return r.p.Get() }

func (r *rp2Pin) SetIRQ(edge core.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e core.Edge) machine.PinChange {
	switch e {
	case core.EdgeRising:
		return machine.PinRising
	case core.EdgeFalling:
		return machine.PinFalling
	default:
		return machine.PinToggle
	}
}

// -----------------------------------------------------------------------------
// I2C
// -----------------------------------------------------------------------------

type rp2I2CFactory struct {
	mu    sync.Mutex
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.buses[id]; ok {
		return b, true
	}
	var hw *machine.I2C
	var sda, scl machine.Pin
	switch id {
	case "i2c0":
		hw = machine.I2C0
		sda, scl = machine.I2C0_SDA_PIN, machine.I2C0_SCL_PIN
	case "i2c1":
		hw = machine.I2C1
		sda, scl = machine.I2C1_SDA_PIN, machine.I2C1_SCL_PIN
	default:
		return nil, false
	}
	if err := hw.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       sda,
		SCL:       scl,
	}); err != nil {
		return nil, false
	}
	f.buses[id] = hw
	return hw, true
}

// -----------------------------------------------------------------------------
// Debug UART
// -----------------------------------------------------------------------------

type rp2DebugPort struct{ u *uartx.UART }

func (p *rp2DebugPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2DebugPort) Readable() <-chan struct{} { return p.u.Readable() }
func (p *rp2DebugPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

// -----------------------------------------------------------------------------
// Defaults used on Raspberry Pi Pico / Pico 2 (RP2 family)
// -----------------------------------------------------------------------------

// DefaultResources wires the on-chip peripherals: ADC channels 0..3, PWM by
// pin, i2c0/i2c1 at 400 kHz, and uart0 on the board-default pins for the
// debug console at 115200 baud.
func DefaultResources() core.Resources {
	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})
	return core.Resources{
		ADC:   &rp2ADCFactory{readers: map[int]*rp2Reader{}},
		PWM:   &rp2PWMFactory{outs: map[int]*rp2PWM{}},
		I2C:   &rp2I2CFactory{buses: map[string]drivers.I2C{}},
		Pins:  rp2PinFactory{},
		Debug: &rp2DebugPort{u: uartx.UART0},
	}
}
