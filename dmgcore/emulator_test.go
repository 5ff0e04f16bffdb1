package dmgcore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/memory"
)

func TestNewSeedsPowerOnRegisters(t *testing.T) {
	e := New()

	assert.Equal(t, uint16(0x0100), e.CPU().PC())
	assert.Equal(t, byte(0xCF), e.bus.mem.Read(addr.P1))
	assert.Equal(t, byte(0x91), e.bus.mem.Read(addr.LCDC))
	assert.Equal(t, byte(0x02), e.bus.mem.Read(addr.STAT))
	assert.Equal(t, byte(0xFC), e.bus.mem.Read(addr.BGP))
}

func TestRunFrameAdvancesAtLeastOneFrameOfCycles(t *testing.T) {
	e := New()
	before := e.FrameCount()

	e.RunFrame()

	assert.Equal(t, before+1, e.FrameCount())
	assert.True(t, e.InstructionCount() > 0, "running a frame must execute at least one instruction")
}

func TestNewWithFileBootROMStartsAtZero(t *testing.T) {
	boot := make([]byte, 256)
	e := newEmulator(memory.NewCartridge(nil), boot)

	assert.Equal(t, uint16(0x0000), e.CPU().PC())
}

func TestNewWithFileNoBootROMStartsAtEntryPoint(t *testing.T) {
	e := newEmulator(memory.NewCartridge(nil), nil)

	assert.Equal(t, uint16(0x0100), e.CPU().PC())
}
