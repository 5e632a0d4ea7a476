package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

func TestDiamondSquareHeightDoublesDimensions(t *testing.T) {
	sh := shape.NewFlat(2, 2)
	h := grid.New[int32](sh)
	h.ForEach(func(x, y int, _ int32) { h.Set(x, y, 50) })

	out := diamondSquareHeight(h)
	assert.Equal(t, h.Height()*2, out.Height())
	for i := 0; i < out.Height(); i++ {
		assert.Equal(t, h.RowWidth(0)*2, out.RowWidth(i))
	}
}

func TestDiamondSquareHeightIsAUniformValueOnAFlatField(t *testing.T) {
	sh := shape.NewFlat(3, 3)
	h := grid.New[int32](sh)
	h.ForEach(func(x, y int, _ int32) { h.Set(x, y, 120) })

	out := diamondSquareHeight(h)
	out.ForEach(func(_, _ int, v int32) {
		assert.Equal(t, int32(120), v)
	})
}

func TestDiamondSquarePlatesReplicatesEachSourceCellIntoA2x2Block(t *testing.T) {
	sh := shape.NewFlat(2, 2)
	m := grid.New[world.PlateID](sh)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 3)
	m.Set(1, 1, 4)

	out := diamondSquarePlates(m)
	require.Equal(t, 4, out.Height())
	assert.Equal(t, world.PlateID(1), out.At(0, 0))
	assert.Equal(t, world.PlateID(1), out.At(0, 1))
	assert.Equal(t, world.PlateID(1), out.At(1, 0))
	assert.Equal(t, world.PlateID(1), out.At(1, 1))
	assert.Equal(t, world.PlateID(4), out.At(2, 2))
	assert.Equal(t, world.PlateID(4), out.At(3, 3))
}

func TestDiamondSquareStageDoublesWorldAndPreservesPlateMetadata(t *testing.T) {
	sh := shape.NewFlat(4, 4)
	w := world.New(sh, 12)
	w.Height.ForEach(func(x, y int, _ int32) { w.Height.Set(x, y, 200) })
	w.OceanicPlates = map[world.PlateID]bool{5: true}
	w.PlateDirections = []world.Vec2{{DLat: 1, DLon: 0}}
	w.PlateCenters = []shape.LatLon{{Lat: 10, Lon: 20}}

	out, err := DiamondSquare().Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, w.Height.Height()*2, out.Height.Height())
	assert.Equal(t, w.OceanicPlates, out.OceanicPlates)
	require.Len(t, out.PlateDirections, 1)
	assert.Equal(t, w.PlateDirections[0], out.PlateDirections[0])
}
