// Package video implements the DMG PPU's scanline state machine and
// pixel compositing, grounded on the teacher's jeebie/video/gpu.go mode
// timing and tile/background/window/sprite addressing, restructured
// around spec.md §4.6's exact algorithm (stable-sorted sprite selection
// instead of the teacher's per-pixel SpritePriorityBuffer class).
package video

import (
	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/bit"
)

// Mode is the PPU's current rendering stage; its numeric value matches
// STAT bits 1-0.
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeDraw   Mode = 3
)

const (
	oamScanCycles  = 80
	drawCycles     = 172
	hblankCycles   = 204
	lineCycles     = oamScanCycles + drawCycles + hblankCycles // 456
	vblankLines    = 10
	visibleLines   = 144
	totalLines     = visibleLines + vblankLines
)

// Bus is the memory surface the PPU reads tile/sprite/palette data from
// and writes LY/STAT to, kept as an interface for the same reason
// cpu.Bus is: no import cycle against *memory.Bus.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(i addr.Interrupt)
}

// PPU renders one scanline at a time into a FrameBuffer, stepped in
// T-cycles by the frame driver alongside the CPU and timer.
type PPU struct {
	bus Bus
	fb  *FrameBuffer

	mode       Mode
	line       int
	cycles     int
	vblankLine int
	windowLine int
	drawn      bool

	bgColorIndex [size]uint8 // per-pixel raw BG/window color index, for sprite priority
	lcdWasOn     bool

	// OnPixel, if set, is invoked from emit each time a layer writes a
	// pixel during drawScanline: once for every background pixel, then
	// again for each window and sprite pixel drawn over it, so one pixel
	// can be reported several times and the last call carries the index
	// that ends up in the frame buffer. The index is the raw 2-bit color
	// index before palette resolution; which palette applies is not
	// passed.
	OnPixel func(x, y int, colorIndex uint8)
}

// New returns a PPU wired to bus, powered on in Mode 2 at line 0 — the
// STAT/LY power-on values spec.md §6 documents (STAT=0x02, LY=0x00).
func New(bus Bus) *PPU {
	return &PPU{
		bus:      bus,
		fb:       newFrameBuffer(),
		mode:     ModeOAM,
		line:     0,
		lcdWasOn: true,
	}
}

// Mode reports the current PPU mode, used by memory.Bus to gate
// VRAM/OAM CPU visibility.
func (p *PPU) Mode() uint8 { return uint8(p.mode) }

// LCDEnabled reports LCDC bit 7.
func (p *PPU) LCDEnabled() bool {
	return bit.IsSet(7, p.bus.Read(addr.LCDC))
}

// FrameBuffer returns the most recently completed frame.
func (p *PPU) FrameBuffer() *FrameBuffer { return p.fb }

// Tick advances the PPU state machine by cycles T-cycles, per spec.md
// §4.6's Mode2(80)/Mode3(172)/Mode0(204)/Mode1(10x456) timing.
func (p *PPU) Tick(cycles int) {
	if !p.LCDEnabled() {
		if p.lcdWasOn {
			p.disableLCD()
		}
		return
	}
	if !p.lcdWasOn {
		p.mode = ModeOAM
		p.cycles = 0
		p.lcdWasOn = true
	}

	p.cycles += cycles

	switch p.mode {
	case ModeHBlank:
		if p.cycles < hblankCycles {
			return
		}
		p.cycles -= hblankCycles
		p.setLY(p.line + 1)

		if p.line == visibleLines {
			p.setMode(ModeVBlank)
			p.vblankLine = 0
			p.windowLine = 0
			p.bus.RequestInterrupt(addr.VBlankInterrupt)
			if p.statInterruptEnabled(4) {
				p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
			}
			return
		}
		p.setMode(ModeOAM)
		if p.statInterruptEnabled(5) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}

	case ModeVBlank:
		for p.cycles >= lineCycles {
			p.cycles -= lineCycles
			p.vblankLine++
			if p.vblankLine >= vblankLines {
				p.setMode(ModeOAM)
				p.setLY(0)
				if p.statInterruptEnabled(5) {
					p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
				}
				return
			}
			p.setLY(visibleLines + p.vblankLine)
		}

	case ModeOAM:
		if p.cycles < oamScanCycles {
			return
		}
		p.cycles -= oamScanCycles
		p.setMode(ModeDraw)
		p.drawn = false

	case ModeDraw:
		if !p.drawn {
			p.drawScanline()
			p.drawn = true
		}
		if p.cycles < drawCycles {
			return
		}
		p.cycles -= drawCycles
		p.setMode(ModeHBlank)
		if p.statInterruptEnabled(3) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
}

// statInterruptEnabled checks one of STAT's three selectable
// mode-change interrupt sources (bits 3, 4, 5).
func (p *PPU) statInterruptEnabled(bitPos uint8) bool {
	return bit.IsSet(bitPos, p.bus.Read(addr.STAT))
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	stat := p.bus.Read(addr.STAT)
	stat = stat&0xFC | byte(m)
	p.bus.Write(addr.STAT, stat)
}

func (p *PPU) setLY(line int) {
	p.line = line
	p.bus.Write(addr.LY, byte(line))
	p.compareLYC()
}

func (p *PPU) compareLYC() {
	ly := p.bus.Read(addr.LY)
	lyc := p.bus.Read(addr.LYC)
	stat := p.bus.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(2, stat)
		if bit.IsSet(6, stat) {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat = bit.Reset(2, stat)
	}
	p.bus.Write(addr.STAT, stat)
}

// disableLCD implements spec.md §4.6's LCD-disabled behavior: the PPU
// halts, LY resets to 0, STAT's mode bits read 0, and the display goes
// blank (white) until LCDC bit 7 is set again.
func (p *PPU) disableLCD() {
	p.lcdWasOn = false
	p.mode = ModeHBlank
	p.line = 0
	p.cycles = 0
	p.windowLine = 0
	p.bus.Write(addr.LY, 0)
	stat := p.bus.Read(addr.STAT)
	p.bus.Write(addr.STAT, stat&0xFC)

	for i := range p.fb.pixels {
		p.fb.pixels[i] = DefaultPalette[0]
	}
}

// lcdcBit reads one bit of LCDC.
func (p *PPU) lcdcBit(pos uint8) bool {
	return bit.IsSet(pos, p.bus.Read(addr.LCDC))
}

func (p *PPU) drawScanline() {
	p.drawBackground()
	if p.lcdcBit(5) {
		p.drawWindow()
	} else {
		p.windowLine = 0
	}
	if p.lcdcBit(1) {
		p.drawSprites()
	}
}

func (p *PPU) emit(x, y int, colorIndex uint8, palette uint16) {
	pal := p.bus.Read(palette)
	shade := (pal >> (colorIndex * 2)) & 0x03
	p.fb.set(x, y, DefaultPalette[shade])
	if p.OnPixel != nil {
		p.OnPixel(x, y, colorIndex)
	}
}

// tileAddress resolves a background/window tile index to its row's VRAM
// address, honoring LCDC bit 4's signed/unsigned addressing mode
// (spec.md §4.6).
func (p *PPU) tileAddress(tileIndex byte, pixelRow int) uint16 {
	rowOffset := uint16(pixelRow * 2)
	if p.lcdcBit(4) {
		return addr.TileData0 + uint16(tileIndex)*16 + rowOffset
	}
	return uint16(int32(addr.TileData2) + int32(int8(tileIndex))*16 + int32(rowOffset))
}

func (p *PPU) drawBackground() {
	y := p.line
	if !p.lcdcBit(0) {
		for x := 0; x < Width; x++ {
			p.bgColorIndex[y*Width+x] = 0
			p.emit(x, y, 0, addr.BGP)
		}
		return
	}

	tileMap := addr.TileMap0
	if p.lcdcBit(3) {
		tileMap = addr.TileMap1
	}

	scx := p.bus.Read(addr.SCX)
	scy := p.bus.Read(addr.SCY)
	mapY := (y + int(scy)) & 0xFF
	tileRow := mapY / 8
	pixelRow := mapY % 8

	for x := 0; x < Width; x++ {
		mapX := (x + int(scx)) & 0xFF
		tileCol := mapX / 8
		pixelCol := mapX % 8

		tileIndex := p.bus.Read(tileMap + uint16(tileRow*32+tileCol))
		rowAddr := p.tileAddress(tileIndex, pixelRow)
		low := p.bus.Read(rowAddr)
		high := p.bus.Read(rowAddr + 1)

		colorIndex := decodePixel(low, high, pixelCol)
		p.bgColorIndex[y*Width+x] = colorIndex
		p.emit(x, y, colorIndex, addr.BGP)
	}
}

func (p *PPU) drawWindow() {
	wy := p.bus.Read(addr.WY)
	wx := int(p.bus.Read(addr.WX)) - 7

	if int(wy) > p.line {
		return
	}
	if wx >= Width {
		p.windowLine++
		return
	}

	tileMap := addr.TileMap0
	if p.lcdcBit(6) {
		tileMap = addr.TileMap1
	}

	tileRow := p.windowLine / 8
	pixelRow := p.windowLine % 8
	y := p.line

	for screenX := maxInt(wx, 0); screenX < Width; screenX++ {
		winX := screenX - wx
		tileCol := winX / 8
		pixelCol := winX % 8

		tileIndex := p.bus.Read(tileMap + uint16(tileRow*32+tileCol))
		rowAddr := p.tileAddress(tileIndex, pixelRow)
		low := p.bus.Read(rowAddr)
		high := p.bus.Read(rowAddr + 1)

		colorIndex := decodePixel(low, high, pixelCol)
		p.bgColorIndex[y*Width+screenX] = colorIndex
		p.emit(screenX, y, colorIndex, addr.BGP)
	}
	p.windowLine++
}

// decodePixel combines the low/high bit planes of a tile row into a
// 2-bit color index; pixelCol 0 is the leftmost pixel (bit 7).
func decodePixel(low, high byte, pixelCol int) uint8 {
	bitPos := uint8(7 - pixelCol)
	var v uint8
	if bit.IsSet(bitPos, low) {
		v |= 1
	}
	if bit.IsSet(bitPos, high) {
		v |= 2
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
