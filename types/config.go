package types

// Dimmer configuration supplied on topic "config/dimmer".

type DimmerConfig struct {
	Source    SourceConfig `json:"source"`
	PWM       PWMConfig    `json:"pwm"`
	Threshold uint16       `json:"threshold"`       // raw counts; default 100
	Debug     bool         `json:"debug,omitempty"` // report consumed raws on the debug port
	Fade      *FadeConfig  `json:"fade,omitempty"`  // nil => snap to new duty
}

type SourceConfig struct {
	// "onchip" (built-in ADC) or "ads1015" (external I2C ADC with ALERT IRQ).
	Type string `json:"type"`

	// onchip
	Channel    int    `json:"channel,omitempty"`
	IntervalMs uint32 `json:"interval_ms,omitempty"` // sampling cadence; default 10

	// ads1015
	I2C      string `json:"i2c,omitempty"`       // bus id, e.g. "i2c0"
	Addr     uint16 `json:"addr,omitempty"`      // 7-bit address; default 0x48
	AlertPin int    `json:"alert_pin,omitempty"` // conversion-ready IRQ pin
}

type PWMConfig struct {
	Pin    int    `json:"pin"`
	FreqHz uint64 `json:"freq_hz,omitempty"` // default 1000
	Top    uint16 `json:"top,omitempty"`     // default 4095
}

type FadeConfig struct {
	DurationMs uint32 `json:"duration_ms"`
	Steps      uint16 `json:"steps"`
}
