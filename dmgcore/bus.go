// Package dmgcore wires the CPU, memory bus and PPU into a runnable
// emulator, grounded on the teacher's root jeebie package (bus.go,
// emulator.go) but built around this repo's Step()-per-instruction CPU
// and Tick(cycles)-driven Bus/PPU instead of the teacher's Exec()/GPU
// pair.
package dmgcore

import (
	"github.com/kvarnsveden/dmgcore/internal/cpu"
	"github.com/kvarnsveden/dmgcore/internal/memory"
	"github.com/kvarnsveden/dmgcore/internal/video"
)

// bus couples the three components that must stay in cycle-lockstep:
// every CPU instruction's cycle count feeds the memory bus (timer, DMA,
// serial) and the PPU identically, per spec.md §2's control flow.
type bus struct {
	cpu *cpu.CPU
	mem *memory.Bus
	ppu *video.PPU
}

func newBus(mem *memory.Bus, c *cpu.CPU, ppu *video.PPU) *bus {
	return &bus{cpu: c, mem: mem, ppu: ppu}
}

// tickInstruction executes one CPU step and advances the memory bus and
// PPU by the same number of T-cycles it consumed. Returns that count.
func (b *bus) tickInstruction() int {
	cycles := b.cpu.Step()
	b.mem.Tick(cycles)
	b.ppu.Tick(cycles)
	return cycles
}
