package config

import (
	"context"
	"errors"

	"dimmercode-go/bus"

	"github.com/andreyvit/tinyjson"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key carrying the device ID
)

// EmbeddedConfigLookup resolves the raw config blob for a device. Tests
// override it; production uses the embedded table.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig parses the device's embedded JSON object and publishes each
// top-level key as a retained message on config/<key>. Services pick up
// their own section; late subscribers get it from retention.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("Error: config:", err.Error())
		}
	}()
}
