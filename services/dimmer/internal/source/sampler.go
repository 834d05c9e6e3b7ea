// services/dimmer/internal/source/sampler.go
package source

import (
	"time"

	"dimmercode-go/services/dimmer/internal/core"
)

// Sampler paces an AnalogReader at a fixed interval, standing in for a
// converter that free-runs in hardware. The callback fires once per read,
// on the sampler goroutine; read errors skip the callback for that cycle.
type Sampler struct {
	reader   core.AnalogReader
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewSampler(reader core.AnalogReader, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &Sampler{reader: reader, interval: interval}
}

func (s *Sampler) Start(onSample func(raw uint16)) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		tick := time.NewTicker(s.interval)
		defer tick.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-tick.C:
				raw, err := s.reader.ReadRaw()
				if err != nil {
					continue
				}
				onSample(raw)
			}
		}
	}()
	return nil
}

func (s *Sampler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}
