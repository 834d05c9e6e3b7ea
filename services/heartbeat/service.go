package heartbeat

import (
	"context"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/x/timex"
)

var (
	topicConfig = bus.T("config", "heartbeat")
	topicBeat   = bus.T("heartbeat", "beat")
)

// Beat is one liveness tick.
type Beat struct {
	Seq uint32 `json:"seq"`
	TS  int64  `json:"ts_ms"`
}

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	var seq uint32
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicBeat, Beat{Seq: seq, TS: timex.NowMs()}, false))
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval"].(float64); ok {
					if d := time.Duration(iv * float64(time.Second)); d > 0 {
						tick.Reset(d)
						println("Info: heartbeat interval set")
					}
				}
			}
		}
	}
}

// Start launches the heartbeat loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
