package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvarnsveden/dmgcore/internal/addr"
)

func TestTransferCompletionClearsSBAndSC(t *testing.T) {
	fired := false
	tap := NewTap(func() { fired = true })

	tap.Write(addr.SB, 'A')
	tap.Write(addr.SC, 0x81) // start bit + internal clock

	assert.Equal(t, byte(0xFF), tap.Read(addr.SB), "SB must read back as the no-peer value after completion")
	assert.Equal(t, byte(0), tap.Read(addr.SC), "SC must read back entirely clear, not just its start bit")
	assert.True(t, fired, "a completed transfer must raise the serial interrupt")
}

func TestTransferRequiresBothStartBitAndInternalClock(t *testing.T) {
	fired := false
	tap := NewTap(func() { fired = true })

	tap.Write(addr.SB, 'A')
	tap.Write(addr.SC, 0x80) // start bit set, but external clock selected

	assert.False(t, fired, "a transfer must not complete without the internal clock bit set")
	assert.Equal(t, byte('A'), tap.Read(addr.SB))
}

func TestTickIsANoOp(t *testing.T) {
	tap := NewTap(nil)
	tap.Write(addr.SB, 'Z')
	tap.Tick(1000)
	assert.Equal(t, byte('Z'), tap.Read(addr.SB), "Tick must not itself trigger or alter a transfer")
}
