package memory

import "github.com/kvarnsveden/dmgcore/internal/bit"

// JoypadKey names a button on the Game Boy input matrix.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad implements the P1 register's matrix-select semantics (spec.md
// §4.3): bits 4-5 select which button group bits 0-3 read back as, and a
// press (1->0 transition) of any button raises the joypad interrupt,
// whichever group is selected. Adapted from the teacher's standalone
// jeebie/memory/joypad.go, which this bus wires explicitly rather than
// duplicating the same logic inline as jeebie/memory/mem.go also did.
type Joypad struct {
	buttons uint8 // low nibble: A,B,Select,Start; 1 = released
	dpad    uint8 // low nibble: Right,Left,Up,Down; 1 = released
	select_ uint8 // raw selection bits as last written (bits 4-5)
}

func newJoypad() Joypad {
	return Joypad{buttons: 0x0F, dpad: 0x0F}
}

// read composes the P1 register value: bits 6-7 always 1, bits 4-5
// whatever was last written, bits 0-3 from whichever group (or both,
// ANDed) is selected.
func (j *Joypad) read(raw byte) byte {
	result := uint8(0xC0) | j.select_

	selectDpad := !bit.IsSet(4, raw)
	selectButtons := !bit.IsSet(5, raw)

	switch {
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	case selectButtons:
		result |= j.buttons & 0x0F
	case selectDpad:
		result |= j.dpad & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

func (j *Joypad) write(value byte) {
	j.select_ = value & 0x30
}

// press clears the key's bit (pressed = 0) and reports whether this was
// a release->press edge, so the caller can raise the joypad interrupt.
func (j *Joypad) press(key JoypadKey) bool {
	before := j.stateFor(key)
	j.setBit(key, false)
	return before
}

func (j *Joypad) release(key JoypadKey) {
	j.setBit(key, true)
}

func (j *Joypad) stateFor(key JoypadKey) bool {
	if key >= JoypadA {
		return bit.IsSet(uint8(key-JoypadA), j.buttons)
	}
	return bit.IsSet(uint8(key), j.dpad)
}

func (j *Joypad) setBit(key JoypadKey, released bool) {
	var idx uint8
	isButton := key >= JoypadA
	if isButton {
		idx = uint8(key - JoypadA)
	} else {
		idx = uint8(key)
	}

	if isButton {
		if released {
			j.buttons = bit.Set(idx, j.buttons)
		} else {
			j.buttons = bit.Reset(idx, j.buttons)
		}
		return
	}
	if released {
		j.dpad = bit.Set(idx, j.dpad)
	} else {
		j.dpad = bit.Reset(idx, j.dpad)
	}
}
