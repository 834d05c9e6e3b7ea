// Command pico-dimmer: dimmer bring-up for RP2040/Pico.
//
// Build/flash (TinyGo):
//
//	tinygo flash -target pico ./cmd/pico-dimmer
//
// Wiring assumptions (edit the embedded config as needed):
// - Potentiometer wiper on GP26 (ADC channel 0).
// - LED or lamp driver on GP15 (PWM).
// - Optional ADS1015 on I2C0 (SDA=GP4, SCL=GP5) with ALERT on a spare pin.
package main

import (
	"context"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/services/config"
	"dimmercode-go/services/dimmer"
	"dimmercode-go/services/heartbeat"
	"dimmercode-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(3 * time.Second)
	println("[main] bootstrapping bus ...")

	b := bus.NewBus(16)
	dimConn := b.NewConnection("dimmer")
	hbConn := b.NewConnection("heartbeat")
	cfgConn := b.NewConnection("config")
	uiConn := b.NewConnection("ui")

	stateSub := uiConn.Subscribe(bus.T("dimmer", "state"))
	valueSub := uiConn.Subscribe(bus.T("dimmer", "value"))

	ctx := context.Background()

	println("[main] starting services ...")
	go dimmer.RunDefault(ctx, dimConn)
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, hbConn)

	// Embedded config brings the dimmer up; retention covers the races.
	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, "pico")
	config.NewConfigService().Start(cfgCtx, cfgConn)

	for {
		select {
		case m := <-stateSub.Channel():
			if st, ok := m.Payload.(types.DimmerState); ok {
				println("[state]", st.Level, st.Status)
			}
		case m := <-valueSub.Channel():
			if duty, ok := m.Payload.(types.DutyValue); ok {
				println("[value] raw:", duty.Raw, "level:", duty.Level)
			}
		}
	}
}
