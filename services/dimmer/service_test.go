package dimmer

import (
	"context"
	"strings"
	"testing"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/services/dimmer/internal/platform"
	"dimmercode-go/types"
)

type harness struct {
	t     *testing.T
	tc    *bus.Connection
	fk    *platform.Fakes
	state *bus.Subscription
	value *bus.Subscription
}

func startService(t *testing.T) (*harness, context.CancelFunc) {
	t.Helper()
	b := bus.NewBus(16)
	svcConn := b.NewConnection("dimmer")
	tc := b.NewConnection("test")
	res, fk := platform.DefaultResources()

	h := &harness{
		t:     t,
		tc:    tc,
		fk:    fk,
		state: tc.Subscribe(topicState),
		value: tc.Subscribe(topicValue),
	}
	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, svcConn, res)
	return h, cancel
}

func (h *harness) waitState(level string) types.DimmerState {
	h.t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-h.state.Channel():
			st, ok := msg.Payload.(types.DimmerState)
			if !ok {
				h.t.Fatalf("state payload %T", msg.Payload)
			}
			if st.Level == level {
				return st
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for state %q", level)
		}
	}
}

func (h *harness) waitValue(raw uint16) types.DutyValue {
	h.t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-h.value.Channel():
			duty, ok := msg.Payload.(types.DutyValue)
			if !ok {
				h.t.Fatalf("value payload %T", msg.Payload)
			}
			if duty.Raw == raw {
				return duty
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for value %d", raw)
		}
	}
}

func (h *harness) expectNoValue(d time.Duration) {
	h.t.Helper()
	select {
	case msg := <-h.value.Channel():
		h.t.Fatalf("unexpected value message %+v", msg.Payload)
	case <-time.After(d):
	}
}

func (h *harness) configure(cfg types.DimmerConfig) {
	h.t.Helper()
	h.tc.Publish(h.tc.NewMessage(topicConfig, cfg, false))
	h.waitState("ready")
}

func (h *harness) request(topic bus.Topic, payload any) *bus.Message {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := h.tc.RequestWait(ctx, h.tc.NewMessage(topic, payload, false))
	if err != nil {
		h.t.Fatalf("request on %v: %v", topic, err)
	}
	return reply
}

func onchipConfig() types.DimmerConfig {
	return types.DimmerConfig{
		Source: types.SourceConfig{Type: "onchip", Channel: 0, IntervalMs: 1},
		PWM:    types.PWMConfig{Pin: 5},
	}
}

func TestServicePipelineEndToEnd(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	cfg := onchipConfig()
	cfg.Debug = true
	h.configure(cfg)

	// First sample differs from the zero baseline by more than the
	// threshold, so it flows through immediately.
	h.fk.Reader(0).SetRaw(2000)
	duty := h.waitValue(2000)
	if duty.Fraction < 0.48 || duty.Fraction > 0.49 {
		t.Fatalf("fraction = %v, want ~0.4884", duty.Fraction)
	}

	// Within the default threshold of the last published value: suppressed.
	h.fk.Reader(0).SetRaw(2050)
	h.expectNoValue(30 * time.Millisecond)

	// Past the threshold again.
	h.fk.Reader(0).SetRaw(2150)
	duty = h.waitValue(2150)
	if duty.Fraction < 0.52 || duty.Fraction > 0.53 {
		t.Fatalf("fraction = %v, want ~0.525", duty.Fraction)
	}
	if lvl, ok := h.fk.PWM(5).LastLevel(); !ok || lvl != 2150 {
		t.Fatalf("pwm level = (%d,%v), want (2150,true)", lvl, ok)
	}

	// Debug reporting writes each applied raw value in decimal.
	out := h.fk.Debug.Written()
	if !strings.Contains(out, "2000\n") || !strings.Contains(out, "2150\n") {
		t.Fatalf("debug output = %q, want 2000 and 2150 lines", out)
	}
	if strings.Contains(out, "2050") {
		t.Fatalf("suppressed sample reported: %q", out)
	}
}

func TestServiceReadNow(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	reply := h.request(topicReadNow, nil)
	if e, ok := reply.Payload.(types.ErrorReply); !ok || e.OK {
		t.Fatalf("read_now before any sample: %+v", reply.Payload)
	}

	h.configure(onchipConfig())
	h.fk.Reader(0).SetRaw(3000)
	h.waitValue(3000)

	reply = h.request(topicReadNow, nil)
	duty, ok := reply.Payload.(types.DutyValue)
	if !ok || duty.Raw != 3000 {
		t.Fatalf("read_now reply = %+v, want duty for 3000", reply.Payload)
	}
}

func TestServiceSetThreshold(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")

	// Before configuration there is no publisher to adjust.
	ctx, rcancel := context.WithTimeout(context.Background(), time.Second)
	reply, err := h.tc.RequestWait(ctx, h.tc.NewMessage(topicSetThreshold, types.SetThreshold{Threshold: 10}, false))
	rcancel()
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if e, ok := reply.Payload.(types.ErrorReply); !ok || e.OK {
		t.Fatalf("set_threshold before config: %+v", reply.Payload)
	}

	h.configure(onchipConfig())
	h.fk.Reader(0).SetRaw(2000)
	h.waitValue(2000)

	reply = h.request(topicSetThreshold, types.SetThreshold{Threshold: 10})
	if okr, ok := reply.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("set_threshold reply = %+v", reply.Payload)
	}

	// A change of 15 clears the new threshold of 10.
	h.fk.Reader(0).SetRaw(2015)
	h.waitValue(2015)
}

func TestServiceSetFade(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	h.configure(onchipConfig())

	reply := h.request(topicSetFade, types.SetFade{DurationMs: 30, Steps: 3})
	if okr, ok := reply.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("set_fade reply = %+v", reply.Payload)
	}

	h.fk.Reader(0).SetRaw(3000)
	h.waitValue(3000)

	// The ramp settles on the exact target level.
	deadline := time.Now().Add(time.Second)
	for {
		if lvl, ok := h.fk.PWM(5).LastLevel(); ok && lvl == 3000 {
			break
		}
		if time.Now().After(deadline) {
			lvl, _ := h.fk.PWM(5).LastLevel()
			t.Fatalf("pwm level = %d, want ramp to settle at 3000", lvl)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServiceAlertSource(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	h.configure(types.DimmerConfig{
		Source: types.SourceConfig{Type: "ads1015", Channel: 1, AlertPin: 3},
		PWM:    types.PWMConfig{Pin: 2},
	})

	h.fk.ADS.SetSample(1500)
	h.fk.Pin(3).Pulse()
	duty := h.waitValue(1500)
	if duty.Level != 1500 {
		t.Fatalf("level = %d, want 1500", duty.Level)
	}
}

func TestServiceRejectsBadConfig(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	h.tc.Publish(h.tc.NewMessage(topicConfig, types.DimmerConfig{
		Source: types.SourceConfig{Type: "nonesuch"},
	}, false))
	st := h.waitState("error")
	if st.Error == "" {
		t.Fatal("error state carries no detail")
	}

	// A good config afterwards still brings the service up.
	h.configure(onchipConfig())
}

func TestServiceReconfigure(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	h.configure(onchipConfig())
	h.fk.Reader(0).SetRaw(1000)
	h.waitValue(1000)

	// Reconfigure onto another PWM pin; the old pipeline is torn down and
	// the baseline starts over.
	cfg := onchipConfig()
	cfg.PWM.Pin = 9
	h.configure(cfg)
	h.fk.Reader(0).SetRaw(1200)
	h.waitValue(1200)
	if lvl, ok := h.fk.PWM(9).LastLevel(); !ok || lvl != 1200 {
		t.Fatalf("new pwm level = (%d,%v), want (1200,true)", lvl, ok)
	}
}

func TestServiceConsoleCommands(t *testing.T) {
	h, cancel := startService(t)
	defer cancel()

	h.waitState("idle")
	h.configure(onchipConfig())
	h.fk.Reader(0).SetRaw(2000)
	h.waitValue(2000)

	h.fk.Debug.InjectRX([]byte("th 10\n"))
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(h.fk.Debug.Written(), "ok\n") {
		if time.Now().After(deadline) {
			t.Fatalf("console never answered: %q", h.fk.Debug.Written())
		}
		time.Sleep(time.Millisecond)
	}

	// The loosened threshold lets a small change through.
	h.fk.Reader(0).SetRaw(2015)
	h.waitValue(2015)
}
