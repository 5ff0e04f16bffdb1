// Package serial implements the link-cable tap behind SB/SC: a device
// with no real peer that logs outgoing bytes and immediately completes
// every transfer, which is how test ROMs and homebrew commonly use the
// serial port as a text console. Adapted from the teacher's
// jeebie/serial/logsink.go; the completion contract differs from the
// teacher's (see Tap.completeTransfer) to match spec.md §4.7 exactly.
package serial

import (
	"log/slog"

	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/bit"
)

// Tap is a dummy serial device: it has no link partner, so every
// transfer "completes" against an implied 0xFF from the other end. It
// logs output a line at a time, splitting on '\n'/'\r'/NUL.
type Tap struct {
	irqHandler func()
	sb, sc     byte
	logger     *slog.Logger
	line       []byte
}

// NewTap creates a serial tap. irq is invoked synchronously on every
// transfer completion and should be wired to request the Serial
// interrupt.
func NewTap(irq func()) *Tap {
	return &Tap{irqHandler: irq, logger: slog.Default()}
}

func (t *Tap) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return t.sb
	case addr.SC:
		return t.sc
	default:
		panic("serial: invalid read address")
	}
}

func (t *Tap) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		t.sb = value
	case addr.SC:
		t.sc = value
		t.maybeTransfer()
	default:
		panic("serial: invalid write address")
	}
}

// Tick is a no-op: this tap completes transfers synchronously on the SC
// write rather than modeling the ~8192Hz bit clock, per spec.md §4.7's
// scenario 6 ("writing 0x81 to SC emits the byte immediately").
func (t *Tap) Tick(cycles int) {}

func (t *Tap) maybeTransfer() {
	if !bit.IsSet(7, t.sc) || !bit.IsSet(0, t.sc) {
		return
	}
	t.emit(t.sb)
	t.completeTransfer()
}

func (t *Tap) emit(b byte) {
	if b == 0 || b == '\n' || b == '\r' {
		if len(t.line) > 0 {
			t.logger.Info("serial", "line", string(t.line))
			t.line = t.line[:0]
		}
		return
	}
	t.line = append(t.line, b)
}

// completeTransfer clears SB to the no-peer value and SC to 0 entirely
// (not just the start bit, which is the teacher's behavior) — spec.md
// §4.7 requires the whole register to read back as 0 once a transfer has
// completed.
func (t *Tap) completeTransfer() {
	t.sb = 0xFF
	t.sc = 0
	if t.irqHandler != nil {
		t.irqHandler()
	}
}
