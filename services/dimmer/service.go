// services/dimmer/service.go
package dimmer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dimmercode-go/bus"
	"dimmercode-go/drivers/ads1015"
	"dimmercode-go/errcode"
	"dimmercode-go/services/dimmer/internal/console"
	"dimmercode-go/services/dimmer/internal/core"
	"dimmercode-go/services/dimmer/internal/source"
	"dimmercode-go/types"
	"dimmercode-go/x/conv"
	"dimmercode-go/x/strx"
	"dimmercode-go/x/timex"
)

// Bus topics.
var (
	topicConfig       = bus.T("config", "dimmer")
	topicState        = bus.T("dimmer", "state")
	topicValue        = bus.T("dimmer", "value")
	topicSetThreshold = bus.T("dimmer", "control", "set_threshold")
	topicSetFade      = bus.T("dimmer", "control", "set_fade")
	topicReadNow      = bus.T("dimmer", "control", "read_now")
)

// Run starts the dimmer service and blocks until ctx is done. It waits for
// configuration on config/dimmer, then owns the sampling source, the
// slot/publisher/coordinator chain, and the PWM output.
func Run(ctx context.Context, conn *bus.Connection, res core.Resources) {
	s := &service{conn: conn, res: res}
	s.loop(ctx)
}

type service struct {
	conn *bus.Connection
	res  core.Resources

	// Active pipeline; nil until the first valid config.
	src    core.AnalogSource
	pwm    core.PWMOutput
	pub    *Publisher
	fader  *Fader
	cancel context.CancelFunc

	mu       sync.Mutex
	lastDuty types.DutyValue
	hasDuty  bool
	debugOn  bool
}

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	thSub := s.conn.Subscribe(topicSetThreshold)
	fadeSub := s.conn.Subscribe(topicSetFade)
	readSub := s.conn.Subscribe(topicReadNow)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(thSub)
	defer s.conn.Unsubscribe(fadeSub)
	defer s.conn.Unsubscribe(readSub)

	if s.res.Debug != nil {
		go console.Run(ctx, s.res.Debug, s)
	}

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.DimmerConfig
			if err := decodePayload(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-thSub.Channel():
			var p types.SetThreshold
			if err := decodePayload(msg.Payload, &p); err != nil || s.pub == nil {
				s.replyErr(msg, errcode.InvalidPayload)
				continue
			}
			s.pub.SetThreshold(p.Threshold)
			s.replyOK(msg)

		case msg := <-fadeSub.Channel():
			var p types.SetFade
			if err := decodePayload(msg.Payload, &p); err != nil || s.fader == nil {
				s.replyErr(msg, errcode.InvalidPayload)
				continue
			}
			s.fader.SetParams(p.DurationMs, p.Steps)
			s.replyOK(msg)

		case msg := <-readSub.Channel():
			s.mu.Lock()
			duty, ok := s.lastDuty, s.hasDuty
			s.mu.Unlock()
			if !ok {
				s.replyErr(msg, errcode.NotReady)
				continue
			}
			_ = s.conn.Reply(msg, duty, false)
		}
	}
}

// applyConfig tears down any running pipeline and builds the configured one.
func (s *service) applyConfig(ctx context.Context, cfg types.DimmerConfig) error {
	s.teardown()

	if s.res.PWM == nil {
		return &errcode.E{C: errcode.Unsupported, Op: "pwm", Msg: "no pwm factory"}
	}
	pwm, ok := s.res.PWM.ByPin(cfg.PWM.Pin)
	if !ok {
		return &errcode.E{C: errcode.UnknownPin, Op: "pwm"}
	}
	freq := cfg.PWM.FreqHz
	if freq == 0 {
		freq = 1000
	}
	top := cfg.PWM.Top
	if top == 0 {
		top = MaxRaw
	}
	if err := pwm.Configure(freq, top); err != nil {
		return err
	}

	src, err := s.buildSource(cfg.Source)
	if err != nil {
		return err
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	slot := &Slot{}
	wake := make(chan struct{}, 1)
	pub := NewPublisher(slot, wake, threshold)
	fader := NewFader(pwm, 0, 0)
	if cfg.Fade != nil {
		fader.SetParams(cfg.Fade.DurationMs, cfg.Fade.Steps)
	}
	coord := NewCoordinator(slot, wake, pwm).
		WithFader(fader).
		WithApplyHook(s.onApply)

	runCtx, cancel := context.WithCancel(ctx)
	go coord.Run(runCtx)
	if err := src.Start(pub.OnSample); err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.debugOn = cfg.Debug
	s.hasDuty = false
	s.src, s.pwm, s.pub, s.fader, s.cancel = src, pwm, pub, fader, cancel
	s.mu.Unlock()
	return nil
}

func (s *service) buildSource(cfg types.SourceConfig) (core.AnalogSource, error) {
	switch cfg.Type {
	case "ads1015":
		if s.res.I2C == nil || s.res.Pins == nil {
			return nil, &errcode.E{C: errcode.Unsupported, Op: "source", Msg: "no i2c"}
		}
		i2c, ok := s.res.I2C.ByID(strx.Coalesce(cfg.I2C, "i2c0"))
		if !ok {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "source", Msg: "unknown i2c bus"}
		}
		pin, ok := s.res.Pins.ByNumber(cfg.AlertPin)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "source"}
		}
		dev := ads1015.New(i2c)
		if cfg.Addr != 0 {
			dev.Configure(ads1015.Config{Address: cfg.Addr})
		}
		return source.NewAlertSource(&dev, pin, cfg.Channel), nil

	case "", "onchip":
		if s.res.ADC == nil {
			return nil, &errcode.E{C: errcode.Unsupported, Op: "source", Msg: "no adc"}
		}
		reader, ok := s.res.ADC.ByChannel(cfg.Channel)
		if !ok {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "source", Msg: "bad adc channel"}
		}
		return source.NewSampler(reader, time.Duration(cfg.IntervalMs)*time.Millisecond), nil

	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "source", Msg: "unknown source type"}
	}
}

// onApply runs in the coordinator's context after each PWM update.
func (s *service) onApply(raw, level uint16, fraction float32) {
	duty := types.DutyValue{
		Raw:      raw,
		Fraction: fraction,
		Level:    level,
		TS:       timex.NowMs(),
	}
	s.mu.Lock()
	s.lastDuty = duty
	s.hasDuty = true
	debug := s.debugOn
	s.mu.Unlock()

	s.conn.Publish(s.conn.NewMessage(topicValue, duty, false))

	if debug && s.res.Debug != nil {
		// Decimal raw value, newline-terminated, no allocations beyond the
		// scratch buffer.
		var buf [8]byte
		out := conv.Utoa(buf[:7], uint64(raw))
		out = append(out, '\n')
		_, _ = s.res.Debug.Write(out)
	}
}

func (s *service) teardown() {
	s.mu.Lock()
	src, fader, cancel := s.src, s.fader, s.cancel
	s.src, s.pwm, s.pub, s.fader, s.cancel = nil, nil, nil, nil, nil
	s.mu.Unlock()

	if src != nil {
		src.Stop()
	}
	if fader != nil {
		fader.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// ---- console.Handler (runs on the console goroutine) ----

func (s *service) SetThreshold(t uint16) {
	s.mu.Lock()
	pub := s.pub
	s.mu.Unlock()
	if pub != nil {
		pub.SetThreshold(t)
	}
}

func (s *service) SetFade(durationMs uint32, steps uint16) {
	s.mu.Lock()
	fader := s.fader
	s.mu.Unlock()
	if fader != nil {
		fader.SetParams(durationMs, steps)
	}
}

// ---- helpers ----

func (s *service) publishState(level, status string, err error) {
	st := types.DimmerState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

func (s *service) replyOK(req *bus.Message) {
	_ = s.conn.Reply(req, types.OKReply{OK: true}, false)
}

func (s *service) replyErr(req *bus.Message, c errcode.Code) {
	_ = s.conn.Reply(req, types.ErrorReply{OK: false, Error: string(c)}, false)
}

// decodePayload accepts a typed struct, JSON bytes/strings, or a decoded
// JSON map and fills dst.
func decodePayload[T any](src any, dst *T) error {
	if v, ok := src.(T); ok {
		*dst = v
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
