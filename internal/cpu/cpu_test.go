package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a flat 64KiB address space standing in for *memory.Bus, with
// just enough interrupt bookkeeping to exercise dispatchInterrupt.
type fakeBus struct {
	mem [0x10000]byte
	ie  uint8
	iff uint8
}

func (b *fakeBus) Read(addr uint16) byte  { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, v byte) { b.mem[addr] = v }
func (b *fakeBus) RequestedInterrupts() uint8 {
	return b.ie & b.iff & 0x1F
}
func (b *fakeBus) ClearInterrupt(bitPos uint8) {
	b.iff &^= 1 << bitPos
}

func newTestCPU(program ...uint8) (*CPU, *fakeBus) {
	bus := &fakeBus{}
	copy(bus.mem[0x0100:], program)
	c := New(bus)
	c.SetPC(0x0100)
	return c, bus
}

func TestFlagLowNibbleAlwaysZero(t *testing.T) {
	c, _ := newTestCPU()
	c.setF(0xFF)
	assert.Zero(t, uint8(c.af)&0x0F, "F's low nibble must always read zero")
}

func TestLoadRegisterToRegister(t *testing.T) {
	// LD B,A (0x47)
	c, _ := newTestCPU(0x47)
	c.setA(0x42)
	cycles := c.execute()
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint8(0x42), c.bc.high())
}

func TestIncDecFlagLaw(t *testing.T) {
	c, _ := newTestCPU()
	c.setA(0x0F)
	result := c.inc8(c.a())
	assert.Equal(t, uint8(0x10), result)
	assert.True(t, c.isSet(flagH), "half-carry must be set crossing the nibble boundary")
	assert.False(t, c.isSet(flagN))

	result = c.dec8(result)
	assert.Equal(t, uint8(0x0F), result)
	assert.True(t, c.isSet(flagN))
}

func TestCompareLeavesAccumulatorUnchanged(t *testing.T) {
	c, _ := newTestCPU()
	c.setA(0x10)
	c.cp(0x10)
	assert.Equal(t, uint8(0x10), c.a(), "CP must not modify A")
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagN))
}

func TestSubAndCompareAgreeOnFlags(t *testing.T) {
	a, value := uint8(0x3E), uint8(0x0F)

	c1, _ := newTestCPU()
	c1.setA(a)
	c1.sub(value)
	flagsFromSub := c1.f()

	c2, _ := newTestCPU()
	c2.setA(a)
	c2.cp(value)
	flagsFromCP := c2.f()

	assert.Equal(t, flagsFromSub, flagsFromCP, "CP must compute identical flags to SUB")
}

func TestAddToHLCarryThresholds(t *testing.T) {
	c, _ := newTestCPU()
	c.setHL(0x0FFF)
	c.addToHL(0x0001)
	assert.Equal(t, uint16(0x1000), c.getHL())
	assert.True(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagC))

	c.setHL(0xFFFF)
	c.addToHL(0x0001)
	assert.Equal(t, uint16(0x0000), c.getHL())
	assert.True(t, c.isSet(flagC))
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.sp = 0xFFFE
	c.setBC(0xBEEF)
	c.push(c.getBC())
	assert.Equal(t, uint16(0xBEEF), c.pop())
}

func TestPushPopAFMasksLowNibble(t *testing.T) {
	c, bus := newTestCPU(0xF5, 0xF1) // PUSH AF ; POP AF
	c.sp = 0xFFFE
	c.setA(0x12)
	c.setF(0xFF) // low nibble would be garbage if not masked

	c.execute() // PUSH AF
	c.execute() // POP AF

	assert.Zero(t, uint8(c.af)&0x0F)
	_ = bus
}

func TestDAAAfterBCDAddition(t *testing.T) {
	c, _ := newTestCPU()
	c.setA(0x45)
	c.addToA(0x38) // 0x45 + 0x38 = 0x7D in raw binary (45 + 38 = 83 BCD)
	c.daa()
	assert.Equal(t, uint8(0x83), c.a())
	assert.False(t, c.isSet(flagC))
}

func TestInterruptDispatchPriorityOrder(t *testing.T) {
	c, bus := newTestCPU()
	c.sp = 0xFFFE
	c.ime = true
	bus.ie = 0x1F
	bus.iff = 0x06 // bits 1 (LCD STAT) and 2 (Timer) both pending

	cycles, handled := c.dispatchInterrupt()
	require.True(t, handled)
	assert.Equal(t, 20, cycles)
	assert.Equal(t, interruptVectors[1], c.PC(), "lower bit index must win priority")
	assert.Equal(t, uint8(0x04), bus.iff, "only the dispatched interrupt's IF bit clears")
}

func TestHaltWithPendingInterruptAndIMEOffSetsHaltBug(t *testing.T) {
	c, bus := newTestCPU(0x76, 0x00, 0x00) // HALT ; NOP ; NOP
	c.ime = false
	bus.ie = 0x01
	bus.iff = 0x01

	c.execute() // HALT
	assert.False(t, c.halted, "HALT with IME off and a pending interrupt must not actually halt")
	assert.True(t, c.haltBug)

	startPC := c.PC()
	opcode := c.fetch()
	assert.Equal(t, uint8(0x00), opcode)
	assert.Equal(t, startPC, c.PC(), "the halt-bug latch must re-read the same byte without advancing PC")
}

func TestEIDelaysInterruptEnableByOneInstruction(t *testing.T) {
	c, bus := newTestCPU(0xFB, 0x00, 0x00) // EI ; NOP ; NOP
	bus.ie = 0x01
	bus.iff = 0x01

	c.Step() // executes EI; IME must not be live yet
	assert.False(t, c.IME())

	c.Step() // executes the instruction immediately after EI
	assert.True(t, c.IME(), "IME becomes active once the instruction after EI has run")
}

func TestStopResetsDiv(t *testing.T) {
	c, bus := newTestCPU(0x10, 0x00)
	bus.mem[0xFF04] = 0x7F

	c.execute()
	assert.True(t, c.stopped)
	assert.Equal(t, uint8(0), bus.mem[0xFF04])
}

func TestCBBitTestPreservesCarry(t *testing.T) {
	c, _ := newTestCPU(0xCB, 0x47) // BIT 0,A
	c.setA(0x00)
	c.setFlag(flagC)

	c.execute()
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagC), "BIT must not disturb the carry flag")
}

func TestCBResSetRoundTrip(t *testing.T) {
	c, _ := newTestCPU(0xCB, 0xC7, 0xCB, 0x87) // SET 0,A ; RES 0,A
	c.setA(0x00)

	c.execute()
	assert.Equal(t, uint8(0x01), c.a())

	c.execute()
	assert.Equal(t, uint8(0x00), c.a())
}
