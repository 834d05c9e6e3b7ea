// services/dimmer/internal/console/console.go
package console

import (
	"bytes"
	"context"
	"time"

	"dimmercode-go/services/dimmer/internal/core"
	"dimmercode-go/x/conv"
)

const maxLine = 64

// Handler receives parsed console commands. Implementations run in the
// console goroutine and should return quickly.
type Handler interface {
	SetThreshold(t uint16)
	SetFade(durationMs uint32, steps uint16)
}

// Run reads newline-terminated commands from the debug port until ctx is
// done. Carriage returns are ignored; overlong lines are truncated.
//
// Commands:
//
//	th <raw>           set the change threshold
//	fade <ms> <steps>  fade duty changes over <ms> in <steps> moves
//	fade off           snap duty changes
//
// Each command is answered with "ok\n" or "err\n".
func Run(ctx context.Context, port core.DebugPort, h Handler) {
	buf := make([]byte, maxLine)
	var line []byte

	for {
		select {
		case <-ctx.Done():
			return
		case <-port.Readable():
			// Bound the blocking wait to assist shutdown.
			rctx, rcancel := context.WithTimeout(ctx, 250*time.Millisecond)
			n, _ := port.RecvSomeContext(rctx, buf)
			rcancel()
			if n <= 0 {
				continue
			}
			for i := 0; i < n; i++ {
				switch b := buf[i]; b {
				case '\n':
					dispatch(port, h, line)
					line = line[:0]
				case '\r':
					// ignore
				default:
					if len(line) < maxLine {
						line = append(line, b)
					}
				}
			}
		}
	}
}

func dispatch(port core.DebugPort, h Handler, line []byte) {
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return
	}
	ok := false
	switch string(fields[0]) {
	case "th":
		if len(fields) == 2 {
			if v, valid := conv.ParseUint(fields[1], uint64(core.MaxRaw)); valid {
				h.SetThreshold(uint16(v))
				ok = true
			}
		}
	case "fade":
		switch {
		case len(fields) == 2 && string(fields[1]) == "off":
			h.SetFade(0, 0)
			ok = true
		case len(fields) == 3:
			ms, okMs := conv.ParseUint(fields[1], 60_000)
			steps, okSteps := conv.ParseUint(fields[2], 1000)
			if okMs && okSteps {
				h.SetFade(uint32(ms), uint16(steps))
				ok = true
			}
		}
	}
	if ok {
		_, _ = port.Write([]byte("ok\n"))
	} else {
		_, _ = port.Write([]byte("err\n"))
	}
}
