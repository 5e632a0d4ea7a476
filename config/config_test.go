package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogalvao/worldgen/shape"
)

const validTOML = `
Shape = "Globe"
Seed = 7
WidthPixels = 64
HeightPixels = 32
NumberOfPlates = 12
WaterPercentage = 65
MakeClimate = true
ErosionIterations = 2
LandHeightPercentiles = [[0, 0], [90, 300], [100, 700]]

[Climate]
PoleTemperature = -30
EquatorTemperature = 30
Humidity = 0.5
`

func TestLoadBytesParsesValidConfiguration(t *testing.T) {
	cfg, climate, err := LoadBytes([]byte(validTOML))
	require.NoError(t, err)
	assert.Equal(t, shape.KindGlobe, cfg.Shape)
	assert.Equal(t, uint32(7), cfg.Seed)
	assert.Equal(t, 64, cfg.WidthPixels)
	assert.Equal(t, 32, cfg.HeightPixels)
	assert.True(t, cfg.MakeClimate)
	assert.Len(t, cfg.LandHeightPercentiles, 3)
	assert.Equal(t, float32(-30), climate.PoleTemperature)
}

func TestLoadBytesRejectsGlobeWithOddHeight(t *testing.T) {
	_, _, err := LoadBytes([]byte(`
Shape = "Globe"
WidthPixels = 64
HeightPixels = 33
NumberOfPlates = 4
WaterPercentage = 50
`))
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadBytesRejectsOutOfRangeWaterPercentage(t *testing.T) {
	_, _, err := LoadBytes([]byte(`
Shape = "Flat"
WidthPixels = 64
HeightPixels = 64
NumberOfPlates = 4
WaterPercentage = 150
`))
	require.Error(t, err)
}

func TestLoadBytesRejectsNonMonotonePercentiles(t *testing.T) {
	_, _, err := LoadBytes([]byte(`
Shape = "Flat"
WidthPixels = 64
HeightPixels = 64
NumberOfPlates = 4
WaterPercentage = 50
LandHeightPercentiles = [[50, 100], [10, 200]]
`))
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, _, err := Load("/nonexistent/worldgen.toml")
	require.Error(t, err)
	var resErr *ResourceError
	assert.ErrorAs(t, err, &resErr)
}

func TestValidateRejectsNonPositiveDimensions(t *testing.T) {
	cfg := &Configuration{Shape: shape.KindFlat, WidthPixels: 0, HeightPixels: 10, NumberOfPlates: 1, WaterPercentage: 50}
	err := cfg.Validate()
	require.Error(t, err)
}
