package host

import (
	"log/slog"

	"github.com/kvarnsveden/dmgcore/dmgcore"
)

// RunHeadless drives emu for exactly frames frames with no terminal and
// no frame-rate pacing, for running test ROMs (Blargg/Mooneye-style)
// non-interactively. Grounded on the teacher's cmd/jeebie headless path,
// trimmed of its snapshot-to-disk option: spec.md §6's external
// collaborator contract only asks for a batch run that exits cleanly.
func RunHeadless(emu *dmgcore.Emulator, frames int) error {
	for i := 0; i < frames; i++ {
		emu.RunFrame()
		if (i+1)%60 == 0 {
			slog.Info("headless progress", "frame", i+1, "total", frames)
		}
	}
	slog.Info("headless run complete", "frames", frames, "instructions", emu.InstructionCount())
	return nil
}
