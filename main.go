// Minimal liveness build: bus plus heartbeat only. The device entry point
// proper lives in cmd/pico-dimmer.
package main

import (
	"context"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/services/heartbeat"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	b := bus.NewBus(8)
	hbConn := b.NewConnection("heartbeat")
	monConn := b.NewConnection("main")

	sub := monConn.Subscribe(bus.T("heartbeat", "beat"))

	hb := &heartbeat.Service{}
	_ = hb.Start(context.Background(), hbConn)

	for m := range sub.Channel() {
		if beat, ok := m.Payload.(heartbeat.Beat); ok {
			println("beat", beat.Seq)
		}
	}
}
