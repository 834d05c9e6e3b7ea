// services/dimmer/mapper.go
package dimmer

import (
	"dimmercode-go/services/dimmer/internal/core"
	"dimmercode-go/x/mathx"
)

// MaxRaw is the full-scale raw sample.
const MaxRaw = core.MaxRaw

// Fraction maps a raw sample onto [0.0, 1.0]. The clamp is defensive; the
// converter already bounds the domain.
func Fraction(raw uint16) float32 {
	if raw > MaxRaw {
		raw = MaxRaw
	}
	return float32(raw) / float32(MaxRaw)
}

// LevelForRaw maps a raw sample onto a PWM level in [0, top] using integer
// arithmetic. Rounding is floor (truncating division), so only raw==MaxRaw
// reaches top exactly.
func LevelForRaw(raw, top uint16) uint16 {
	return mathx.MapU16(raw, 0, MaxRaw, 0, top)
}
