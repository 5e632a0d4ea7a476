package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		Shape:           shape.KindFlat,
		Seed:            7,
		WidthPixels:     16,
		HeightPixels:    16,
		NumberOfPlates:  6,
		WaterPercentage: 50,
	}
}

func TestNearestSeedPicksClosestCenter(t *testing.T) {
	sh := shape.NewFlat(16, 16)
	centers := []shape.LatLon{{Lat: 0, Lon: 0}, {Lat: 10, Lon: 10}}
	p := shape.LatLon{Lat: 9, Lon: 9}
	assert.Equal(t, world.PlateID(1), nearestSeed(sh, p, centers))
}

func TestPlateAssignmentIsDeterministicAndMarksOceanicPlates(t *testing.T) {
	sh := shape.NewFlat(16, 16)
	w := world.New(sh, 12)
	cfg := testConfig()

	stage := PlateAssignment(cfg, 2)
	out1, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	out2, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, out1.TectonicPlates.ToRows(), out2.TectonicPlates.ToRows())
	assert.Len(t, out1.PlateCenters, cfg.NumberOfPlates)
	assert.Len(t, out1.OceanicPlates, 2)
	assert.True(t, out1.OceanicPlates[0])
	assert.True(t, out1.OceanicPlates[1])
}

func TestPlateAssignmentSupercontinentPointsDriftAtOrigin(t *testing.T) {
	sh := shape.NewFlat(16, 16)
	w := world.New(sh, 12)
	cfg := testConfig()
	cfg.Supercontinent = true

	stage := PlateAssignment(cfg, 0)
	assert.Equal(t, "noisy_voronoi_supercontinent", stage.Name())

	out, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	for i, c := range out.PlateCenters {
		dir := out.PlateDirections[i]
		assert.Equal(t, -c.Lat/90, dir.DLat)
		assert.Equal(t, -c.Lon/180, dir.DLon)
	}
}

func TestPlateGapClampsOceanicPlatesToAbyssalFloor(t *testing.T) {
	sh := shape.NewFlat(8, 8)
	w := world.New(sh, 12)
	w.Height.ForEach(func(x, y int, _ int32) { w.Height.Set(x, y, 500) })
	w.TectonicPlates.ForEach(func(x, y int, _ world.PlateID) { w.TectonicPlates.Set(x, y, 0) })
	w.PlateDirections = []world.Vec2{{DLat: 1, DLon: 0}}
	w.OceanicPlates = map[world.PlateID]bool{0: true}

	stage := PlateGap(4)
	out, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	assert.LessOrEqual(t, out.Height.At(3, 3), int32(-2000))
}

func TestTectonicEdgesFindsBoundaryBetweenTwoLandPlates(t *testing.T) {
	sh := shape.NewFlat(8, 8)
	w := world.New(sh, 12)
	w.Height.ForEach(func(x, y int, _ int32) { w.Height.Set(x, y, 500) })
	w.TectonicPlates.ForEach(func(x, y int, _ world.PlateID) {
		if y < 4 {
			w.TectonicPlates.Set(x, y, 0)
		} else {
			w.TectonicPlates.Set(x, y, 1)
		}
	})
	w.PlateDirections = []world.Vec2{{DLat: 0, DLon: 1}, {DLat: 0, DLon: -1}}

	out, err := TectonicEdges().Apply(context.Background(), w)
	require.NoError(t, err)
	assert.NotEmpty(t, out.TectonicEdges, "a shared boundary between differently-moving plates must be recorded")
}

func TestHotspotsOnlySeedsNearDeepOcean(t *testing.T) {
	sh := shape.NewFlat(8, 8)
	w := world.New(sh, 12)
	w.Height.ForEach(func(x, y int, _ int32) { w.Height.Set(x, y, 100) })
	w.TectonicPlates.ForEach(func(x, y int, _ world.PlateID) { w.TectonicPlates.Set(x, y, 0) })
	w.PlateDirections = []world.Vec2{{DLat: 0.1, DLon: 0.1}}

	out, err := Hotspots(1, 8).Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Empty(t, out.Hotspots, "no point can start below -300m when every cell is at 100m")
}
