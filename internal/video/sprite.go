package video

import (
	"sort"

	"github.com/kvarnsveden/dmgcore/internal/addr"
	"github.com/kvarnsveden/dmgcore/internal/bit"
)

// oamEntry is one sprite's raw attribute bytes plus its scan-order
// index, grounded on the teacher's jeebie/video/oam.go Sprite type but
// trimmed to just what selection and compositing need.
type oamEntry struct {
	y, x, tile, flags byte
	oamIndex          int
}

// drawSprites implements spec.md §4.6's selection/priority algorithm:
// scan OAM in index order collecting up to 10 sprites whose Y range
// covers the current line, stable-sort them ascending by X (ties keep
// OAM order), then composite back-to-front so the lowest-X (and, on a
// tie, lowest-OAM-index) sprite ends up drawn last and wins the pixel.
func (p *PPU) drawSprites() {
	spriteHeight := 8
	if p.lcdcBit(2) {
		spriteHeight = 16
	}

	var visible []oamEntry
	for i := 0; i < 40 && len(visible) < 10; i++ {
		base := addr.OAMStart + uint16(i*4)
		y := int(p.bus.Read(base)) - 16
		if y > p.line || y+spriteHeight <= p.line {
			continue
		}
		visible = append(visible, oamEntry{
			y:        p.bus.Read(base),
			x:        p.bus.Read(base + 1),
			tile:     p.bus.Read(base + 2),
			flags:    p.bus.Read(base + 3),
			oamIndex: i,
		})
	}

	sort.SliceStable(visible, func(a, b int) bool {
		return visible[a].x < visible[b].x
	})

	y := p.line
	for i := len(visible) - 1; i >= 0; i-- {
		p.drawSprite(visible[i], spriteHeight, y)
	}
}

func (p *PPU) drawSprite(s oamEntry, height, y int) {
	spriteY := int(s.y) - 16
	spriteX := int(s.x) - 8

	flipX := bit.IsSet(5, s.flags)
	flipY := bit.IsSet(6, s.flags)
	aboveBG := !bit.IsSet(7, s.flags)

	palette := addr.OBP0
	if bit.IsSet(4, s.flags) {
		palette = addr.OBP1
	}

	pixelY := y - spriteY
	if flipY {
		pixelY = height - 1 - pixelY
	}

	tileIndex := s.tile
	if height == 16 {
		tileIndex &^= 0x01
	}
	rowAddr := addr.TileData0 + uint16(tileIndex)*16 + uint16(pixelY*2)
	low := p.bus.Read(rowAddr)
	high := p.bus.Read(rowAddr + 1)

	for col := 0; col < 8; col++ {
		x := spriteX + col
		if x < 0 || x >= Width {
			continue
		}

		pixelCol := col
		if flipX {
			pixelCol = 7 - col
		}
		colorIndex := decodePixel(low, high, pixelCol)
		if colorIndex == 0 {
			continue // transparent
		}
		if !aboveBG && p.bgColorIndex[y*Width+x] != 0 {
			continue // background wins priority
		}

		p.emit(x, y, colorIndex, palette)
	}
}
