// services/dimmer/rundefault_rp2xxx.go
//go:build rp2040 || rp2350

package dimmer

import (
	"context"

	"dimmercode-go/bus"
	"dimmercode-go/services/dimmer/internal/platform"
)

// RunDefault runs the service on the board's peripherals: on-chip ADC, PWM
// slices, hardware I2C, and the debug UART.
func RunDefault(ctx context.Context, conn *bus.Connection) {
	Run(ctx, conn, platform.DefaultResources())
}
