// Package host implements the two ways a user drives an Emulator: an
// interactive tcell terminal renderer and a headless batch runner.
// Grounded on the teacher's jeebie/backend/terminal and jeebie/render
// packages, trimmed from their split-screen debugger layout (register
// dump, disassembly view, log pane) down to the half-block game screen
// and keyboard input spec.md §6 actually requires, since the debugger
// GUI is an explicit Non-goal.
package host

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/kvarnsveden/dmgcore/dmgcore"
	"github.com/kvarnsveden/dmgcore/internal/memory"
	"github.com/kvarnsveden/dmgcore/internal/timing"
	"github.com/kvarnsveden/dmgcore/internal/video"
)

// shadeColors resolves the four DMG color-index shades to tcell
// true-color values via go-colorful, the teacher's indirect tcell
// dependency (tcell itself only consumes it for its own color math) —
// wired directly here to turn the PPU's ARGB8888 palette into tcell's
// RGB color space instead of hand-rolling the conversion.
func shadeColors() [4]tcell.Color {
	var colors [4]tcell.Color
	for i, c := range video.DefaultPalette {
		r := float64(uint8(c>>16)) / 255
		g := float64(uint8(c>>8)) / 255
		b := float64(uint8(c)) / 255
		tr, tg, tb := colorful.Color{R: r, G: g, B: b}.Clamped().RGB255()
		colors[i] = tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))
	}
	return colors
}

// shadeIndex maps a resolved framebuffer color back to its 0-3 DMG
// shade, for picking the right half-block style.
func shadeIndex(c video.Color) int {
	for i, p := range video.DefaultPalette {
		if p == c {
			return i
		}
	}
	return 0
}

// TerminalRenderer drives an Emulator interactively, rendering the
// 160x144 frame as 160x72 rows of half-block characters (two vertically
// stacked pixels per cell) and translating keyboard input to joypad
// presses.
type TerminalRenderer struct {
	screen   tcell.Screen
	emulator *dmgcore.Emulator
	limiter  timing.Limiter
	colors   [4]tcell.Color
	running  bool
}

// NewTerminalRenderer initializes a tcell screen bound to emu.
func NewTerminalRenderer(emu *dmgcore.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("host: initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("host: initializing terminal: %w", err)
	}

	return &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		limiter:  timing.NewAdaptiveLimiter(),
		colors:   shadeColors(),
		running:  true,
	}, nil
}

// Run blocks, advancing one frame at a time at the DMG's native frame
// rate until the user quits or the process receives a termination
// signal.
func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("host: terminal renderer stopping")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	events := make(chan tcell.Event, 16)
	go t.screen.ChannelEvents(events, nil)

	for t.running {
		select {
		case <-signals:
			slog.Info("host: received termination signal")
			return nil
		case ev := <-events:
			t.handleEvent(ev)
		default:
			t.emulator.RunFrame()
			t.render()
			t.screen.Show()
			t.limiter.WaitForNextFrame()
		}
	}

	return nil
}

func (t *TerminalRenderer) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			t.running = false
		case tcell.KeyEnter:
			t.emulator.HandleKeyPress(memory.JoypadStart)
		case tcell.KeyRight:
			t.emulator.HandleKeyPress(memory.JoypadRight)
		case tcell.KeyLeft:
			t.emulator.HandleKeyPress(memory.JoypadLeft)
		case tcell.KeyUp:
			t.emulator.HandleKeyPress(memory.JoypadUp)
		case tcell.KeyDown:
			t.emulator.HandleKeyPress(memory.JoypadDown)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'a', 'A':
				t.emulator.HandleKeyPress(memory.JoypadA)
			case 's', 'S':
				t.emulator.HandleKeyPress(memory.JoypadB)
			case 'q', 'Q':
				t.emulator.HandleKeyPress(memory.JoypadSelect)
			}
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

// render composites the current frame into the terminal as half-block
// rows: cell (x, row) gets its top pixel's color as foreground and its
// bottom pixel's as background, with '▀' drawing the top half.
func (t *TerminalRenderer) render() {
	fb := t.emulator.FrameBuffer()

	for row := 0; row < video.Height/2; row++ {
		topY := row * 2
		bottomY := topY + 1
		for x := 0; x < video.Width; x++ {
			top := shadeIndex(fb.At(x, topY))
			bottom := shadeIndex(fb.At(x, bottomY))

			style := tcell.StyleDefault.Foreground(t.colors[top]).Background(t.colors[bottom])
			t.screen.SetContent(x, row, '▀', nil, style)
		}
	}
}
