// Package ads1015 provides a driver for the ADS1015 12-bit I2C ADC.
//
// The driver targets continuous conversion with the ALERT/RDY pin wired as a
// conversion-ready strobe: hi_thresh MSB set, lo_thresh MSB clear puts the
// comparator into ready-pulse mode, so the pin fires once per completed
// conversion and the host never polls.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package ads1015

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address is the default 7-bit address (ADDR pin to GND).
const Address = 0x48

// Register pointers.
const (
	regConversion = 0x00
	regConfig     = 0x01
	regLoThresh   = 0x02
	regHiThresh   = 0x03
)

// Config register fields (per datasheet).
const (
	cfgOS uint16 = 1 << 15 // write: start single conversion; read: idle

	cfgMuxShift = 12 // MUX[2:0]: 0x4..0x7 select AIN0..AIN3 vs GND
	cfgMuxAINn  = 0x4

	cfgPGAShift = 9 // PGA[2:0]

	cfgModeContinuous uint16 = 0 << 8
	cfgModeSingle     uint16 = 1 << 8

	cfgDRShift = 5 // DR[2:0]

	cfgCompQueOne     uint16 = 0x0 // assert after one conversion
	cfgCompQueDisable uint16 = 0x3
)

// Gain selects the programmable gain amplifier range.
type Gain uint8

const (
	Gain2_3 Gain = iota // ±6.144 V
	Gain1               // ±4.096 V
	Gain2               // ±2.048 V (default)
	Gain4               // ±1.024 V
	Gain8               // ±0.512 V
	Gain16              // ±0.256 V
)

// DataRate selects samples per second.
type DataRate uint8

const (
	Rate128 DataRate = iota
	Rate250
	Rate490
	Rate920
	Rate1600 // default
	Rate2400
	Rate3300
)

// Errors returned by the driver.
var (
	ErrInvalidChannel = errors.New("ads1015: invalid channel")
	ErrProtocol       = errors.New("ads1015: protocol error")
)

// Config controls conversion parameters. Zero values give the datasheet
// defaults noted above.
type Config struct {
	Address uint16 // defaults to 0x48
	Gain    Gain
	Rate    DataRate
}

// Device wraps an I2C connection to an ADS1015.
type Device struct {
	bus     drivers.I2C
	Address uint16

	gain Gain
	rate DataRate
	buf  [3]byte // reuse buffer to avoid allocations
}

// New creates the Device object only; it does not touch the hardware.
// The I2C bus must already be configured.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		gain:    Gain2,
		rate:    Rate1600,
	}
}

// Configure applies optional conversion parameters.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) == 0 {
		return
	}
	c := cfgs[0]
	if c.Address != 0 {
		d.Address = c.Address
	}
	d.gain = c.Gain
	d.rate = c.Rate
}

// configWord assembles the config register for the given channel and mode.
func (d *Device) configWord(channel int, mode uint16) uint16 {
	w := uint16(cfgMuxAINn|channel) << cfgMuxShift
	w |= uint16(d.gain) << cfgPGAShift
	w |= uint16(d.rate) << cfgDRShift
	w |= mode
	return w
}

// StartContinuous begins continuous conversion on channel (0..3) and arms
// the ALERT/RDY pin as a per-conversion ready strobe.
func (d *Device) StartContinuous(channel int) error {
	if channel < 0 || channel > 3 {
		return ErrInvalidChannel
	}
	// Ready-pulse mode: hi_thresh MSB = 1, lo_thresh MSB = 0.
	if err := d.writeReg(regHiThresh, 0x8000); err != nil {
		return err
	}
	if err := d.writeReg(regLoThresh, 0x0000); err != nil {
		return err
	}
	w := d.configWord(channel, cfgModeContinuous) | cfgCompQueOne
	return d.writeReg(regConfig, w)
}

// Stop ends continuous conversion by switching to single-shot idle with the
// comparator disabled.
func (d *Device) Stop() error {
	w := d.configWord(0, cfgModeSingle) | cfgCompQueDisable
	return d.writeReg(regConfig, w)
}

// ReadRaw returns the latest conversion as an unsigned 12-bit value (0..4095
// for unsigned inputs; negative differential readings clamp to 0).
func (d *Device) ReadRaw() (uint16, error) {
	d.buf[0] = regConversion
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:3]); err != nil {
		return 0, err
	}
	// 12-bit result left-justified in 16 bits, two's complement.
	v := int16(uint16(d.buf[1])<<8|uint16(d.buf[2])) >> 4
	if v < 0 {
		v = 0
	}
	return uint16(v), nil
}

func (d *Device) writeReg(reg uint8, val uint16) error {
	d.buf[0] = reg
	d.buf[1] = byte(val >> 8)
	d.buf[2] = byte(val)
	return d.bus.Tx(d.Address, d.buf[:3], nil)
}
