// Package cpu implements the Sharp LR35902 instruction set: fetch/decode/
// execute, the 8- and 16-bit register file, flag semantics, and the
// interrupt/HALT state machine described in spec.md §4.1.
package cpu

// Bus is the memory-mapped surface the CPU executes against. It is
// satisfied by *memory.Bus; kept as an interface here so the instruction
// decoder has no import-cycle dependency on the memory package.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestedInterrupts() uint8 // IE & IF & 0x1F
	ClearInterrupt(bitPos uint8)
}

// Flag is one of the four flag bits packed into the high nibble of F.
type Flag uint8

const (
	flagZ Flag = 0x80
	flagN Flag = 0x40
	flagH Flag = 0x20
	flagC Flag = 0x10
)

// Interrupt vectors, in dispatch priority order (spec.md §4.1).
var interruptVectors = [5]uint16{0x0040, 0x0048, 0x0050, 0x0058, 0x0060}

// illegalOpcodes behave as NOP per spec.md §4.1.
var illegalOpcodes = map[uint8]bool{
	0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
	0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
}

// register index {B=0,C=1,D=2,E=3,H=4,L=5,(HL)=6,A=7}, used by every
// "register or indirect-HL" instruction family (spec.md §4.1).
const (
	regB = iota
	regC
	regD
	regE
	regH
	regL
	regHLInd
	regA
)

// CPU holds the full architectural state of the Sharp LR35902: the six
// 16-bit registers, the halt/interrupt state machine, and a reference to
// the bus it executes against.
type CPU struct {
	bus Bus

	af, bc, de, hl, sp, pc Register16

	ime     bool
	halted  bool
	haltBug bool
	stopped bool

	// imeEnableDelay implements EI's one-instruction latency (spec.md §9
	// open question, resolved in favor of hardware-accurate delayed
	// enable): set to 2 when EI executes, counted down at the end of
	// each Step call, so ime goes live once the instruction after EI has
	// fully run (the Step call that executes it) rather than when it is
	// merely fetched.
	imeEnableDelay int

	currentOpcode uint16
}

// New returns a CPU wired to bus, with registers zeroed (the caller is
// expected to set power-on values on the bus itself; the CPU has no
// power-on register state of its own beyond PC, which the boot ROM or
// cartridge entry point determines).
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// SetPC seeds the program counter, used at power-on (0x0000 with a boot
// ROM present, 0x0100 otherwise).
func (c *CPU) SetPC(pc uint16) { c.pc = Register16(pc) }

// PC returns the current program counter, for disassembly/debugging.
func (c *CPU) PC() uint16 { return uint16(c.pc) }

// Halted reports whether the CPU is in the HALT low-power state.
func (c *CPU) Halted() bool { return c.halted }

// IME reports the interrupt master enable flag.
func (c *CPU) IME() bool { return c.ime }

func (c *CPU) a() uint8 { return c.af.high() }
func (c *CPU) f() uint8 { return c.af.low() & 0xF0 }
func (c *CPU) setA(v uint8) { c.af.setHigh(v) }

// setF forces the low nibble to zero, per spec.md §3 invariant.
func (c *CPU) setF(v uint8) { c.af.setLow(v & 0xF0) }

func (c *CPU) setFlag(f Flag)   { c.setF(c.f() | uint8(f)) }
func (c *CPU) resetFlag(f Flag) { c.setF(c.f() &^ uint8(f)) }
func (c *CPU) isSet(f Flag) bool {
	return c.f()&uint8(f) != 0
}
func (c *CPU) setFlagTo(f Flag, cond bool) {
	if cond {
		c.setFlag(f)
	} else {
		c.resetFlag(f)
	}
}
func (c *CPU) carryBit() uint8 {
	if c.isSet(flagC) {
		return 1
	}
	return 0
}

// readR reads one of the eight register-index operands; index 6 routes
// through the bus via (HL), which is why (HL) instructions cost extra
// cycles relative to their register counterparts.
func (c *CPU) readR(i int) uint8 {
	switch i {
	case regB:
		return c.bc.high()
	case regC:
		return c.bc.low()
	case regD:
		return c.de.high()
	case regE:
		return c.de.low()
	case regH:
		return c.hl.high()
	case regL:
		return c.hl.low()
	case regHLInd:
		return c.bus.Read(uint16(c.hl))
	case regA:
		return c.a()
	}
	panic("cpu: invalid register index")
}

func (c *CPU) writeR(i int, v uint8) {
	switch i {
	case regB:
		c.bc.setHigh(v)
	case regC:
		c.bc.setLow(v)
	case regD:
		c.de.setHigh(v)
	case regE:
		c.de.setLow(v)
	case regH:
		c.hl.setHigh(v)
	case regL:
		c.hl.setLow(v)
	case regHLInd:
		c.bus.Write(uint16(c.hl), v)
	case regA:
		c.setA(v)
	}
}

// fetch reads the byte at PC and advances PC, except when the halt-bug
// latch is set: the byte is read but PC does not move, and the latch
// clears (spec.md §4.1, the documented HALT-with-pending-interrupt
// anomaly).
func (c *CPU) fetch() uint8 {
	v := c.bus.Read(uint16(c.pc))
	if c.haltBug {
		c.haltBug = false
		return v
	}
	c.pc++
	return v
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return combine(hi, lo)
}

func (c *CPU) fetchSigned() int8 {
	return int8(c.fetch())
}

// Step services a pending interrupt if one exists, otherwise executes
// exactly one instruction (or, if halted, advances four idle cycles).
// It returns the number of T-cycles consumed, per spec.md §2 control flow.
func (c *CPU) Step() int {
	if cycles, handled := c.dispatchInterrupt(); handled {
		c.tickImeDelay()
		return cycles
	}

	if c.halted {
		c.tickImeDelay()
		return 4
	}

	cycles := c.execute()
	c.tickImeDelay()
	return cycles
}

// tickImeDelay counts down EI's latency, checked at the END of Step so
// that IME only becomes live once the instruction after EI has fully
// executed (not merely been fetched) — it must be true by the time the
// NEXT Step call's dispatchInterrupt check runs, which is also the
// first moment any external caller can observe it via IME().
func (c *CPU) tickImeDelay() {
	if c.imeEnableDelay > 0 {
		c.imeEnableDelay--
		if c.imeEnableDelay == 0 {
			c.ime = true
		}
	}
}

// dispatchInterrupt implements spec.md §4.1's interrupt dispatch, checked
// before every fetch.
func (c *CPU) dispatchInterrupt() (int, bool) {
	requested := c.bus.RequestedInterrupts()
	if requested != 0 {
		c.halted = false
	} else {
		return 0, false
	}

	if !c.ime {
		return 0, false
	}

	var bitPos uint8
	for bitPos = 0; bitPos < 5; bitPos++ {
		if requested&(1<<bitPos) != 0 {
			break
		}
	}

	c.ime = false
	c.bus.ClearInterrupt(bitPos)
	c.push(uint16(c.pc))
	c.pc = Register16(interruptVectors[bitPos])

	return 20, true
}

func (c *CPU) push(v uint16) {
	c.sp--
	c.bus.Write(uint16(c.sp), uint8(v>>8))
	c.sp--
	c.bus.Write(uint16(c.sp), uint8(v))
}

func (c *CPU) pop() uint16 {
	lo := c.bus.Read(uint16(c.sp))
	c.sp++
	hi := c.bus.Read(uint16(c.sp))
	c.sp++
	return combine(hi, lo)
}
