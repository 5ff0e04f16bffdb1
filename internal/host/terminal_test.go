package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kvarnsveden/dmgcore/internal/video"
)

func TestShadeColorsOrdersLightToDark(t *testing.T) {
	colors := shadeColors()

	_, _, whiteB := colors[0].RGB()
	_, _, blackB := colors[3].RGB()

	assert.True(t, whiteB > blackB, "shade 0 (white) must resolve brighter than shade 3 (black)")
}

func TestShadeIndexRoundTripsDefaultPalette(t *testing.T) {
	for i, c := range video.DefaultPalette {
		assert.Equal(t, i, shadeIndex(c))
	}
}

func TestShadeIndexDefaultsToZeroForUnknownColor(t *testing.T) {
	assert.Equal(t, 0, shadeIndex(video.Color(0x12345678)))
}
