// Command dimmer-sim: host-side walkthrough of the dimmer pipeline on fake
// peripherals.
//
//	go run ./cmd/dimmer-sim
package main

import (
	"context"
	"fmt"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/services/dimmer"
	"dimmercode-go/types"
)

func main() {
	b := bus.NewBus(16)
	dimConn := b.NewConnection("dimmer")
	simConn := b.NewConnection("sim")

	stateSub := simConn.Subscribe(bus.T("dimmer", "state"))
	valueSub := simConn.Subscribe(bus.T("dimmer", "value"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := dimmer.RunHost(ctx, dimConn)

	waitState(stateSub, "idle")
	simConn.Publish(simConn.NewMessage(bus.T("config", "dimmer"), types.DimmerConfig{
		Source:    types.SourceConfig{Type: "onchip", Channel: 0, IntervalMs: 2},
		PWM:       types.PWMConfig{Pin: 15},
		Threshold: 100,
		Debug:     true,
	}, false))
	waitState(stateSub, "ready")
	fmt.Println("sim: configured, sweeping the knob")

	// The two small moves sit inside the threshold and disappear; the rest
	// come out the other end as duty updates.
	for _, raw := range []uint16{2000, 2050, 2150, 2140, 4095, 1} {
		host.SetAnalog(0, raw)
		time.Sleep(20 * time.Millisecond)
	}

	deadline := time.After(time.Second)
drain:
	for {
		select {
		case m := <-valueSub.Channel():
			duty, ok := m.Payload.(types.DutyValue)
			if !ok {
				continue
			}
			fmt.Printf("sim: raw=%d level=%d fraction=%.3f\n", duty.Raw, duty.Level, duty.Fraction)
			if duty.Raw == 1 {
				break drain
			}
		case <-deadline:
			break drain
		}
	}
	fmt.Printf("sim: debug port saw %q\n", host.DebugOutput())
}

func waitState(sub *bus.Subscription, level string) {
	for m := range sub.Channel() {
		if st, ok := m.Payload.(types.DimmerState); ok && st.Level == level {
			return
		}
	}
}
