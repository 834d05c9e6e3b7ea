// services/dimmer/internal/source/alert.go
package source

import (
	"sync/atomic"

	"dimmercode-go/drivers/ads1015"
	"dimmercode-go/services/dimmer/internal/core"
)

// AlertSource couples an ADS1015 in continuous mode to its ALERT/RDY pin.
// The pin IRQ handler does the minimum work an interrupt may: a non-blocking
// channel send. A worker goroutine picks that up, reads the conversion over
// I2C, and invokes the callback. Strobes that arrive while the worker is
// busy coalesce; the worker always reads the latest conversion anyway.
type AlertSource struct {
	dev     *ads1015.Device
	pin     core.IRQPin
	channel int

	isrQ  chan struct{}
	stopC chan struct{}
	done  chan struct{}
	drops uint32 // strobes coalesced because one was already queued
}

func NewAlertSource(dev *ads1015.Device, pin core.IRQPin, channel int) *AlertSource {
	return &AlertSource{
		dev:     dev,
		pin:     pin,
		channel: channel,
		isrQ:    make(chan struct{}, 1),
	}
}

func (a *AlertSource) Start(onSample func(raw uint16)) error {
	if err := a.pin.ConfigureInput(core.PullUp); err != nil {
		return err
	}
	if err := a.dev.StartContinuous(a.channel); err != nil {
		return err
	}
	// ALERT is open-drain, active low in ready-pulse mode.
	if err := a.pin.SetIRQ(core.EdgeFalling, func() {
		select {
		case a.isrQ <- struct{}{}:
		default:
			atomic.AddUint32(&a.drops, 1)
		}
	}); err != nil {
		_ = a.dev.Stop()
		return err
	}

	a.stopC = make(chan struct{})
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		for {
			select {
			case <-a.stopC:
				return
			case <-a.isrQ:
				raw, err := a.dev.ReadRaw()
				if err != nil {
					continue
				}
				onSample(raw)
			}
		}
	}()
	return nil
}

func (a *AlertSource) Stop() {
	if a.stopC == nil {
		return
	}
	_ = a.pin.ClearIRQ()
	close(a.stopC)
	<-a.done
	a.stopC = nil
	_ = a.dev.Stop()
}

// Drops reports how many ready strobes coalesced.
func (a *AlertSource) Drops() uint32 {
	return atomic.LoadUint32(&a.drops)
}
