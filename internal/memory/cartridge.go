package memory

const (
	titleAddress = 0x134
	titleLength  = 16
)

// Cartridge is a flat, unbanked ROM image plus 8KiB of external RAM.
// spec.md §1's Non-goals exclude memory bank controllers, so this drops
// the teacher's jeebie/memory/cartridge.go MBC dispatch (MBC1/2/3/5,
// battery-backed saves, RTC) entirely rather than adapting it: none of
// SPEC_FULL.md's components need bank switching, and keeping the dead
// MBC interface around just to satisfy an unused Non-goal would be
// exactly the kind of unwired teacher code the exercise asks to trim.
type Cartridge struct {
	rom   [0x8000]byte
	ram   [0x2000]byte
	title string
}

// NewCartridge loads data as a flat ROM image, or an empty cartridge
// (every ROM byte reads 0xFF) if data is nil.
func NewCartridge(data []byte) *Cartridge {
	c := &Cartridge{}
	for i := range c.rom {
		c.rom[i] = 0xFF
	}
	copy(c.rom[:], data)

	if len(data) >= titleAddress+titleLength {
		c.title = string(data[titleAddress : titleAddress+titleLength])
	}
	return c
}

// Title returns the cartridge header's game title, for the logging
// context in dmgcore's startup path.
func (c *Cartridge) Title() string { return c.title }

func (c *Cartridge) Read(address uint16) byte {
	switch {
	case address < 0x8000:
		return c.rom[address]
	case address >= 0xA000 && address <= 0xBFFF:
		return c.ram[address-0xA000]
	default:
		return 0xFF
	}
}

// Write only affects external RAM; this cartridge has no MBC registers
// to bank-switch into ROM space.
func (c *Cartridge) Write(address uint16, value byte) {
	if address >= 0xA000 && address <= 0xBFFF {
		c.ram[address-0xA000] = value
	}
}
