package types

// ------------------------
// Dimmer telemetry
// ------------------------

// SampleValue is one raw analog reading that survived the change filter.
type SampleValue struct {
	Raw uint16 `json:"raw"` // 0..4095
	TS  int64  `json:"ts_ms"`
}

// DutyValue is the applied PWM duty after mapping.
type DutyValue struct {
	Raw      uint16  `json:"raw"`      // source sample
	Fraction float32 `json:"fraction"` // 0.0..1.0
	Level    uint16  `json:"level"`    // 0..Top, as written to the compare register
	TS       int64   `json:"ts_ms"`
}

// ------------------------
// Dimmer state (retained)
// ------------------------

type DimmerState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// ------------------------
// Control payloads
// ------------------------

type SetThreshold struct {
	Threshold uint16 `json:"threshold"` // raw counts
}

type SetFade struct {
	DurationMs uint32 `json:"duration_ms"` // 0 => snap
	Steps      uint16 `json:"steps"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
