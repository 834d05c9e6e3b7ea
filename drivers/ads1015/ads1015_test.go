package ads1015

import (
	"testing"
)

// fakeI2C records writes and serves canned read bytes per transaction.
type fakeI2C struct {
	writes [][]byte
	addrs  []uint16
	reads  [][]byte // consumed in order when r is requested
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addrs = append(f.addrs, addr)
	f.writes = append(f.writes, append([]byte(nil), w...))
	if len(r) > 0 {
		if len(f.reads) == 0 {
			return ErrProtocol
		}
		copy(r, f.reads[0])
		f.reads = f.reads[1:]
	}
	return nil
}

func regWrite(t *testing.T, w []byte) (uint8, uint16) {
	t.Helper()
	if len(w) != 3 {
		t.Fatalf("expected 3-byte register write, got % x", w)
	}
	return w[0], uint16(w[1])<<8 | uint16(w[2])
}

func TestStartContinuousProgramsReadyPulse(t *testing.T) {
	bus := &fakeI2C{}
	d := New(bus)

	if err := d.StartContinuous(1); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}
	if len(bus.writes) != 3 {
		t.Fatalf("expected 3 register writes, got %d", len(bus.writes))
	}
	if reg, val := regWrite(t, bus.writes[0]); reg != regHiThresh || val != 0x8000 {
		t.Errorf("hi_thresh write: reg=%#x val=%#x", reg, val)
	}
	if reg, val := regWrite(t, bus.writes[1]); reg != regLoThresh || val != 0x0000 {
		t.Errorf("lo_thresh write: reg=%#x val=%#x", reg, val)
	}
	reg, val := regWrite(t, bus.writes[2])
	if reg != regConfig {
		t.Fatalf("expected config write, got reg %#x", reg)
	}
	// AIN1 vs GND, PGA ±2.048V, continuous, 1600 SPS, comparator after one.
	if want := uint16(0x5480); val != want {
		t.Errorf("config word = %#x, want %#x", val, want)
	}
	if bus.addrs[0] != Address {
		t.Errorf("address = %#x, want %#x", bus.addrs[0], Address)
	}
}

func TestStartContinuousRejectsBadChannel(t *testing.T) {
	d := New(&fakeI2C{})
	if err := d.StartContinuous(4); err != ErrInvalidChannel {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}

func TestReadRawShiftsAndClamps(t *testing.T) {
	bus := &fakeI2C{reads: [][]byte{{0x7F, 0xF0}, {0x80, 0x00}, {0x32, 0x10}}}
	d := New(bus)

	got, err := d.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got != 2047 {
		t.Errorf("full-scale read = %d, want 2047", got)
	}

	got, err = d.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got != 0 {
		t.Errorf("negative read should clamp to 0, got %d", got)
	}

	got, err = d.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got != 0x321 {
		t.Errorf("mid-scale read = %#x, want 0x321", got)
	}
}
