// Package memory implements the DMG's 64KiB memory-mapped address space:
// region decoding, the boot-ROM overlay, OAM DMA, and the I/O register
// block. Grounded on the teacher's jeebie/memory/mem.go region-map
// approach, generalized to the gating and DMA-stall rules spec.md §4.2
// and §4.5 require.
package memory

import (
	"fmt"
	"log/slog"

	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/bit"
)

type region uint8

const (
	regionROM region = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// videoState is the slice of video.PPU the bus needs to gate VRAM/OAM
// visibility, kept as an interface to avoid an import cycle between
// memory and video (the same pattern cpu.Bus uses against *memory.Bus).
type videoState interface {
	Mode() uint8
	LCDEnabled() bool
}

// Bus is the full DMG memory map: cartridge ROM, VRAM, external RAM, work
// RAM, OAM, and the I/O register block, wired to the timer, DMA engine,
// joypad, APU register shell and serial tap sub-components.
type Bus struct {
	cart *Cartridge

	vram [0x2000]byte
	wram [0x2000]byte
	oam  [0xA0]byte
	hram [0x7F]byte
	io   [0x80]byte

	regionMap [256]region

	bootROM    []byte
	bootActive bool

	timer  Timer
	dma    dma
	joypad Joypad
	apu    apu

	serial SerialPort
	video  videoState

	ifReg uint8
	ieReg uint8
}

// SerialPort is the minimal interface for the device behind SB/SC,
// satisfied by *serial.Tap.
type SerialPort interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Tick(cycles int)
}

// New returns a Bus with no cartridge loaded and no boot ROM: PC should be
// seeded at 0x0100 by the caller in this configuration.
func New() *Bus {
	b := &Bus{cart: NewCartridge(nil), joypad: newJoypad()}
	b.initRegionMap()
	return b
}

// LoadBootROM overlays a 256-byte boot ROM at 0x0000-0x00FF, readable
// until the guest writes to addr.BootROMDisable (0xFF50), matching
// spec.md §4.2's boot-ROM overlay rule.
func (b *Bus) LoadBootROM(data []byte) {
	b.bootROM = data
	b.bootActive = len(data) > 0
}

// LoadCartridge replaces the currently mapped cartridge.
func (b *Bus) LoadCartridge(cart *Cartridge) {
	b.cart = cart
}

// AttachSerial wires the serial tap behind SB/SC.
func (b *Bus) AttachSerial(s SerialPort) { b.serial = s }

// AttachVideo wires the PPU this bus gates VRAM/OAM visibility against.
func (b *Bus) AttachVideo(v videoState) { b.video = v }

func (b *Bus) initRegionMap() {
	for i := 0x00; i <= 0x7F; i++ {
		b.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		b.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		b.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		b.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		b.regionMap[i] = regionEcho
	}
	b.regionMap[0xFE] = regionOAM
	b.regionMap[0xFF] = regionIO
}

// Tick advances the timer, OAM DMA counter and serial tap by the same
// number of T-cycles the CPU just consumed (spec.md §2).
func (b *Bus) Tick(cycles int) {
	if fired := b.timer.Tick(cycles); fired {
		b.RequestInterrupt(addr.TimerInterrupt)
	}
	b.dma.tick(cycles)
	if b.serial != nil {
		b.serial.Tick(cycles)
	}
}

// RequestedInterrupts returns IE & IF, masked to the five real interrupt
// bits, satisfying cpu.Bus.
func (b *Bus) RequestedInterrupts() uint8 {
	return b.ieReg & b.ifReg & 0x1F
}

// ClearInterrupt clears one bit of IF, called by the CPU once it has
// begun servicing that interrupt.
func (b *Bus) ClearInterrupt(bitPos uint8) {
	b.ifReg = bit.Reset(bitPos, b.ifReg)
}

// RequestInterrupt sets one bit of IF; used by every sub-component that
// can raise an interrupt (timer, DMA-adjacent serial tap, joypad, PPU).
func (b *Bus) RequestInterrupt(i addr.Interrupt) {
	b.ifReg |= uint8(i)
}

// HandleKeyPress / HandleKeyRelease forward host input to the joypad,
// requesting the joypad interrupt on any press edge.
func (b *Bus) HandleKeyPress(key JoypadKey) {
	if b.joypad.press(key) {
		b.RequestInterrupt(addr.JoypadInterrupt)
	}
}

func (b *Bus) HandleKeyRelease(key JoypadKey) {
	b.joypad.release(key)
}

// dmaBlocks reports whether an in-flight OAM DMA hides this address from
// the CPU: every region except HRAM reads 0xFF while the 640-cycle stall
// is counting down (spec.md §4.5). Writes are never gated by this — see
// Write below.
func (b *Bus) dmaBlocks(address uint16) bool {
	return b.dma.active && !(address >= 0xFF80 && address <= 0xFFFE)
}

func (b *Bus) Read(address uint16) byte {
	if b.dmaBlocks(address) {
		return 0xFF
	}
	if b.bootActive && address < uint16(len(b.bootROM)) && address < 0x0100 {
		return b.bootROM[address]
	}

	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return b.cart.Read(address)
	case regionVRAM:
		if b.vramBlocked() {
			return 0xFF
		}
		return b.vram[address-0x8000]
	case regionWRAM:
		return b.wram[address-0xC000]
	case regionEcho:
		return b.wram[address-0xE000]
	case regionOAM:
		if address > 0xFE9F {
			return 0xFF // unusable area
		}
		if b.oamBlocked() {
			return 0xFF
		}
		return b.oam[address-0xFE00]
	case regionIO:
		return b.readIO(address)
	}
	panic(fmt.Sprintf("memory: unmapped read at 0x%04X", address))
}

func (b *Bus) Write(address uint16, value byte) {
	switch b.regionMap[address>>8] {
	case regionROM:
		b.cart.Write(address, value)
	case regionExtRAM:
		b.cart.Write(address, value)
	case regionVRAM:
		if !b.vramBlocked() {
			b.vram[address-0x8000] = value
		}
	case regionWRAM:
		b.wram[address-0xC000] = value
	case regionEcho:
		b.wram[address-0xE000] = value
	case regionOAM:
		if address > 0xFE9F || b.oamBlocked() {
			return
		}
		b.oam[address-0xFE00] = value
	case regionIO:
		b.writeIO(address, value)
	default:
		panic(fmt.Sprintf("memory: unmapped write at 0x%04X", address))
	}
}

// vramBlocked reports whether the CPU's view of VRAM is currently
// inert, per spec.md §4.2: true only while the LCD is on and the PPU is
// in mode 3 (Drawing).
func (b *Bus) vramBlocked() bool {
	return b.video != nil && b.video.LCDEnabled() && b.video.Mode() == 3
}

// oamBlocked mirrors vramBlocked for OAM: modes 2 (OAM scan) and 3
// (Drawing) both make OAM inert while the LCD is on.
func (b *Bus) oamBlocked() bool {
	if b.video == nil || !b.video.LCDEnabled() {
		return false
	}
	mode := b.video.Mode()
	return mode == 2 || mode == 3
}

func (b *Bus) readIO(address uint16) byte {
	switch address {
	case addr.P1:
		return b.joypad.read(b.io[address-0xFF00])
	case addr.SB, addr.SC:
		return b.serial.Read(address)
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		return b.timer.Read(address)
	case addr.IF:
		return b.ifReg | 0xE0
	case addr.IE:
		return b.ieReg
	}

	if address >= addr.AudioStart && address <= addr.AudioEnd {
		return b.apu.read(address)
	}
	if address >= 0xFF80 && address <= 0xFFFE {
		return b.hram[address-0xFF80]
	}
	return b.io[address-0xFF00]
}

func (b *Bus) writeIO(address uint16, value byte) {
	switch address {
	case addr.P1:
		b.joypad.write(value)
		b.io[address-0xFF00] = value & 0x30
		return
	case addr.SB, addr.SC:
		b.serial.Write(address, value)
		return
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		b.timer.Write(address, value)
		return
	case addr.IF:
		b.ifReg = value & 0x1F
		return
	case addr.IE:
		b.ieReg = value
		return
	case addr.DMA:
		b.startDMA(value)
		return
	case addr.BootROMDisable:
		b.bootActive = false
		return
	}

	if address >= addr.AudioStart && address <= addr.AudioEnd {
		b.apu.write(address, value)
		return
	}
	if address >= 0xFF80 && address <= 0xFFFE {
		b.hram[address-0xFF80] = value
		return
	}
	if address == 0xFF7F {
		slog.Debug("memory: write to undocumented I/O register", "addr", fmt.Sprintf("0x%04X", address))
	}
	b.io[address-0xFF00] = value
}

func (b *Bus) startDMA(sourcePage byte) {
	b.dma.start(sourcePage)
	source := uint16(sourcePage) << 8
	for i := uint16(0); i < 160; i++ {
		b.oam[i] = b.dmaSourceByte(source + i)
	}
	b.io[addr.DMA-0xFF00] = sourcePage
}

// dmaSourceByte reads the DMA source bypassing the in-flight DMA gate
// that Read applies to normal CPU accesses (spec.md §4.5: the transfer
// itself is exempt from its own stall).
func (b *Bus) dmaSourceByte(address uint16) byte {
	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return b.cart.Read(address)
	case regionVRAM:
		return b.vram[address-0x8000]
	case regionWRAM:
		return b.wram[address-0xC000]
	case regionEcho:
		return b.wram[address-0xE000]
	default:
		return 0xFF
	}
}
