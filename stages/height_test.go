package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

func flatHeightWorld(values []int32, width int) *world.World {
	sh := shape.NewFlat(width, len(values)/width)
	w := world.New(sh, 12)
	i := 0
	w.Height.ForEach(func(x, y int, _ int32) {
		w.Height.Set(x, y, values[i])
		i++
	})
	return w
}

func TestPercentileUsesNearestRank(t *testing.T) {
	sh := shape.NewFlat(5, 1)
	h := grid.New[int32](sh)
	for i, v := range []int32{10, 20, 30, 40, 50} {
		h.Set(0, i, v)
	}
	assert.Equal(t, int32(10), percentile(h, 0))
	assert.Equal(t, int32(50), percentile(h, 100))
	assert.Equal(t, int32(30), percentile(h, 50))
}

func TestWaterLevelShiftsHeightBySubtractedPercentile(t *testing.T) {
	w := flatHeightWorld([]int32{10, 20, 30, 40}, 4)
	out, err := WaterLevel(0).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int32(0), out.Height.At(0, 0))
	assert.Equal(t, int32(30), out.Height.At(0, 3))
}

func TestHeightNoiseIsDeterministicAcrossRuns(t *testing.T) {
	w := flatHeightWorld([]int32{0, 0, 0, 0}, 4)
	stage := HeightNoise(1, 2, 3.0, 50)
	out1, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	out2, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, out1.Height.ToRows(), out2.Height.ToRows())
}

func TestHeightNoiseMultLeavesShallowCellsUntouched(t *testing.T) {
	w := flatHeightWorld([]int32{5, 10, 14, 0}, 4)
	out, err := HeightNoiseMult(1, 3.0, 50).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int32(5), out.Height.At(0, 0))
	assert.Equal(t, int32(10), out.Height.At(0, 1))
	assert.Equal(t, int32(14), out.Height.At(0, 2))
}

func TestAdjustLandHeightPercentilesLeavesOceanUntouched(t *testing.T) {
	w := flatHeightWorld([]int32{-500, -100, 100, 900}, 4)
	stage := AdjustLandHeightPercentiles([]config.PercentilePoint{
		{Percentile: 0, Value: 0}, {Percentile: 100, Value: 1000},
	}, 50)
	out, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int32(-500), out.Height.At(0, 0))
	assert.Equal(t, int32(-100), out.Height.At(0, 1))
}

func TestSmoothAveragesNeighborhood(t *testing.T) {
	w := flatHeightWorld([]int32{0, 100, 0, 0}, 4)
	out, err := Smooth(1).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.NotEqual(t, int32(100), out.Height.At(0, 1), "smoothing must blend the spike with its neighbors")
}

func TestSmoothOceanLeavesLandUntouchedAndClampsToSeaLevel(t *testing.T) {
	w := flatHeightWorld([]int32{500, -10, -20, -30}, 4)
	out, err := SmoothOcean(1).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int32(500), out.Height.At(0, 0))
	assert.LessOrEqual(t, out.Height.At(0, 1), int32(0))
}

func TestResizeDoublesGridDimensions(t *testing.T) {
	w := flatHeightWorld([]int32{10, 20, 30, 40}, 2)
	out, err := Resize().Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, w.Shape.Circumference()*2, out.Shape.Circumference())
	assert.Equal(t, w.Shape.Height()*2, out.Shape.Height())
	assert.Equal(t, out.Height.Height(), w.Height.Height()*2)
}

func TestHydraulicErosionZeroIterationsIsANoop(t *testing.T) {
	w := flatHeightWorld([]int32{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130, 140, 150, 160}, 4)
	out, err := HydraulicErosion(0).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, w.Height.ToRows(), out.Height.ToRows())
}
