package config

// Embedded per-device configuration. Key: device ID (placed in ctx under
// CtxDeviceKey). Val: raw JSON for that device. Populate at build time or
// by hand during development.

const cfgPico = `{
  "dimmer": {
    "source": {
      "type": "onchip",
      "channel": 0,
      "interval_ms": 10
    },
    "pwm": {
      "pin": 15,
      "freq_hz": 1000
    },
    "threshold": 100,
    "debug": true
  },
  "heartbeat": {
    "interval": 2
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
