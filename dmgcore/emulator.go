package dmgcore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/cpu"
	"github.com/kvarnsveden/dmgcore/internal/memory"
	"github.com/kvarnsveden/dmgcore/internal/serial"
	"github.com/kvarnsveden/dmgcore/internal/video"
)

// CyclesPerFrame is the fixed T-cycle length of one DMG frame
// (456 cycles/line * 154 lines), used by RunFrame to know when to stop.
const CyclesPerFrame = 70224

// Emulator owns the wired CPU/Bus/PPU and drives them one frame at a
// time; the root type the CLI and host layer talk to. Grounded on the
// teacher's root jeebie.Emulator, generalized from its debugger-aware
// RunUntilFrame/updateTimers loop to this repo's Step()-driven CPU,
// which already folds interrupt dispatch into CPU.Step and the
// period-based timer into memory.Bus.Tick.
type Emulator struct {
	bus *bus

	frameCount       uint64
	instructionCount uint64
}

// New returns an emulator with no cartridge loaded, power-on register
// state, and PC at 0x0100 (no boot ROM).
func New() *Emulator {
	return newEmulator(memory.NewCartridge(nil), nil)
}

// NewWithFile loads romPath as a flat cartridge image. If bootPath is
// non-empty it is loaded as a boot ROM overlay and PC starts at 0x0000
// instead of the post-boot power-on state (spec.md §6's optional boot
// ROM toggle).
func NewWithFile(romPath, bootPath string) (*Emulator, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("dmgcore: reading cartridge: %w", err)
	}

	var boot []byte
	if bootPath != "" {
		boot, err = os.ReadFile(bootPath)
		if err != nil {
			return nil, fmt.Errorf("dmgcore: reading boot ROM: %w", err)
		}
	}

	cart := memory.NewCartridge(data)
	slog.Info("cartridge loaded", "title", cart.Title(), "bytes", len(data))

	return newEmulator(cart, boot), nil
}

func newEmulator(cart *memory.Cartridge, boot []byte) *Emulator {
	mem := memory.New()
	mem.LoadCartridge(cart)

	c := cpu.New(mem)
	ppu := video.New(mem)
	mem.AttachVideo(ppu)
	mem.AttachSerial(serial.NewTap(func() { mem.RequestInterrupt(addr.SerialInterrupt) }))

	if len(boot) > 0 {
		mem.LoadBootROM(boot)
		c.SetPC(0x0000)
		slog.Info("boot ROM attached", "bytes", len(boot))
	} else {
		c.SetPC(0x0100)
		setPowerOnRegisters(mem)
	}

	return &Emulator{bus: newBus(mem, c, ppu)}
}

// setPowerOnRegisters seeds the I/O register block with the documented
// power-on values (spec.md §6), used whenever no boot ROM runs.
func setPowerOnRegisters(mem *memory.Bus) {
	mem.Write(addr.P1, 0xCF)
	mem.Write(addr.TIMA, 0x00)
	mem.Write(addr.TMA, 0x00)
	mem.Write(addr.TAC, 0x00)
	mem.Write(addr.LCDC, 0x91)
	mem.Write(addr.STAT, 0x02)
	mem.Write(addr.SCY, 0x00)
	mem.Write(addr.SCX, 0x00)
	mem.Write(addr.LYC, 0x00)
	mem.Write(addr.BGP, 0xFC)
	mem.Write(addr.OBP0, 0xFF)
	mem.Write(addr.OBP1, 0xFF)
	mem.Write(addr.WY, 0x00)
	mem.Write(addr.WX, 0x00)
	mem.Write(addr.IE, 0x00)
}

// RunFrame runs CPU instructions, each already ticking the bus and PPU
// by its own cycle count, until at least one full frame's worth of
// T-cycles has elapsed (spec.md §2's frame-driver control flow; HALT
// idle ticks and interrupt dispatch are handled inside CPU.Step itself).
func (e *Emulator) RunFrame() {
	total := 0
	for total < CyclesPerFrame {
		total += e.bus.tickInstruction()
		e.instructionCount++
	}
	e.frameCount++
}

// HandleKeyPress / HandleKeyRelease forward host input to the joypad.
func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.bus.mem.HandleKeyPress(key)
}

func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.bus.mem.HandleKeyRelease(key)
}

// FrameBuffer returns the most recently completed frame.
func (e *Emulator) FrameBuffer() *video.FrameBuffer { return e.bus.ppu.FrameBuffer() }

// SetOnPixel installs a callback invoked during scanline drawing each
// time a layer writes a pixel (see video.PPU.OnPixel); a pixel covered
// by the window or a sprite is reported more than once.
func (e *Emulator) SetOnPixel(fn func(x, y int, colorIndex uint8)) {
	e.bus.ppu.OnPixel = fn
}

// FrameCount and InstructionCount report running totals, used for
// headless-mode progress logging.
func (e *Emulator) FrameCount() uint64       { return e.frameCount }
func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }

// CPU exposes the underlying CPU for disassembly/debugging callers.
func (e *Emulator) CPU() *cpu.CPU { return e.bus.cpu }
