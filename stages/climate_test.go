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

func smallClimateWorld(months int) *world.World {
	sh := shape.NewFlat(6, 6)
	w := world.New(sh, months)
	w.Height.ForEach(func(x, y int, _ int32) {
		if y < 2 {
			w.Height.Set(x, y, -500)
		} else {
			w.Height.Set(x, y, 300)
		}
	})
	return w
}

func runClimateChain(t *testing.T, w *world.World, cfg *config.ClimateConfiguration) *world.World {
	t.Helper()
	out, err := Continentality().Apply(context.Background(), w)
	require.NoError(t, err)
	out, err = Temperature(cfg).Apply(context.Background(), out)
	require.NoError(t, err)
	out, err = Pressure().Apply(context.Background(), out)
	require.NoError(t, err)
	out, err = Winds().Apply(context.Background(), out)
	require.NoError(t, err)
	out, err = Precipitation(cfg).Apply(context.Background(), out)
	require.NoError(t, err)
	return out
}

func TestContinentalityIsNeverNegative(t *testing.T) {
	w := smallClimateWorld(12)
	out, err := Continentality().Apply(context.Background(), w)
	require.NoError(t, err)
	out.Continentality.ForEach(func(_, _ int, v float32) {
		assert.GreaterOrEqual(t, v, float32(0))
	})
}

func TestTemperatureMirrorsSecondHalfOfYear(t *testing.T) {
	w := smallClimateWorld(12)
	cont, err := Continentality().Apply(context.Background(), w)
	require.NoError(t, err)
	out, err := Temperature(&config.ClimateConfiguration{PoleTemperature: -30, EquatorTemperature: 30}).Apply(context.Background(), cont)
	require.NoError(t, err)

	require.Len(t, out.Temperature, 12)
	assert.Same(t, out.Temperature[5], out.Temperature[7])
	assert.Same(t, out.Temperature[1], out.Temperature[11])
}

func TestPressureStaysWithinClampedRange(t *testing.T) {
	w := smallClimateWorld(4)
	cfg := &config.ClimateConfiguration{PoleTemperature: -20, EquatorTemperature: 28}
	cont, err := Continentality().Apply(context.Background(), w)
	require.NoError(t, err)
	temp, err := Temperature(cfg).Apply(context.Background(), cont)
	require.NoError(t, err)
	out, err := Pressure().Apply(context.Background(), temp)
	require.NoError(t, err)

	for _, field := range out.AtmPressure {
		field.ForEach(func(_, _ int, v float32) {
			assert.GreaterOrEqual(t, v, float32(-60))
			assert.LessOrEqual(t, v, float32(60))
		})
	}
}

func TestWindsYieldsZeroVectorUnderAUniformPressureField(t *testing.T) {
	sh := shape.NewFlat(6, 6)
	w := world.New(sh, 12)
	uniform := grid.New[float32](sh)
	w.AtmPressure = []*grid.PartialMap[float32]{uniform}

	out, err := Winds().Apply(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, out.Winds, 1)
	wind := out.Winds[0].At(3, 3)
	assert.Equal(t, float32(0), wind.DLat)
	assert.Equal(t, float32(0), wind.DLon)
}

func TestPrecipitationProducesOneFieldPerMonth(t *testing.T) {
	w := smallClimateWorld(4)
	cfg := &config.ClimateConfiguration{PoleTemperature: -20, EquatorTemperature: 28, Humidity: 0.5}
	out := runClimateChain(t, w, cfg)
	assert.Len(t, out.Precipitation, 4)
}
