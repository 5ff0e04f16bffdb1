package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvarnsveden/dmgcore/internal/addr"
)

type fakeVideo struct {
	mode       uint8
	lcdEnabled bool
}

func (v *fakeVideo) Mode() uint8      { return v.mode }
func (v *fakeVideo) LCDEnabled() bool { return v.lcdEnabled }

type fakeSerial struct{}

func (fakeSerial) Read(uint16) byte   { return 0 }
func (fakeSerial) Write(uint16, byte) {}
func (fakeSerial) Tick(int)           {}

func newTestBus() *Bus {
	b := New()
	b.AttachSerial(fakeSerial{})
	return b
}

func TestWorkRAMEchoesAcrossBothRegions(t *testing.T) {
	b := newTestBus()
	b.Write(0xC010, 0x42)
	assert.Equal(t, byte(0x42), b.Read(0xE010), "the echo region must mirror WRAM")
}

func TestVRAMBlockedOnlyDuringModeDrawingWithLCDOn(t *testing.T) {
	b := newTestBus()
	video := &fakeVideo{mode: 3, lcdEnabled: true}
	b.AttachVideo(video)
	b.vram[0] = 0x55

	assert.Equal(t, byte(0xFF), b.Read(0x8000), "VRAM reads must be blocked in mode 3")

	video.mode = 0
	assert.Equal(t, byte(0x55), b.Read(0x8000), "VRAM reads must resume once out of mode 3")
}

func TestOAMDMABlocksEverythingButHRAM(t *testing.T) {
	b := newTestBus()
	b.wram[0] = 0xAB // backing byte for 0xC000, unreachable while DMA is active
	b.hram[0] = 0x11

	b.Write(addr.DMA, 0x00) // starts a DMA burst from page 0x00

	assert.Equal(t, byte(0xFF), b.Read(0xC000), "non-HRAM reads must be blocked while DMA is in flight")
	assert.Equal(t, byte(0x11), b.Read(0xFF80), "HRAM stays visible during DMA")
}

func TestOAMDMADoesNotBlockWrites(t *testing.T) {
	b := newTestBus()
	b.Write(addr.DMA, 0x00) // starts a DMA burst

	b.Write(0xC000, 0x7E)
	assert.Equal(t, byte(0x7E), b.wram[0], "writes must not be gated by an in-flight DMA")
}

func TestJoypadInterruptRequestedOnPressEdge(t *testing.T) {
	b := newTestBus()
	b.HandleKeyPress(JoypadA)
	assert.NotEqual(t, uint8(0), b.ifReg&0x10, "pressing a key must set the joypad IF bit")
}

func TestTimerOverflowRequestsTimerInterrupt(t *testing.T) {
	b := newTestBus()
	b.Write(addr.TAC, 0x05) // enabled, 16-cycle period
	b.Write(addr.TIMA, 0xFF)

	b.Tick(16)

	assert.Equal(t, byte(0), b.Read(addr.TIMA))
	assert.NotEqual(t, uint8(0), b.ifReg&0x04, "TIMA overflow must set the timer IF bit")
}

func TestBootROMOverlayDisablesOnWriteTo0xFF50(t *testing.T) {
	b := newTestBus()
	b.LoadBootROM([]byte{0xAA, 0xBB})

	assert.Equal(t, byte(0xAA), b.Read(0x0000))

	b.Write(addr.BootROMDisable, 0x01)
	assert.Equal(t, byte(0xFF), b.Read(0x0000), "once disabled, 0x0000 must fall through to cartridge ROM")
}
