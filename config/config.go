// Package config ingests the Configuration and ClimateConfiguration
// boundary types described in spec.md §6, the way the teacher's
// inmaputil/config.go reads InMAP's run configuration: TOML on disk,
// environment-variable expansion, validated before any stage runs.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/pedrogalvao/worldgen/shape"
)

// PercentilePoint is one (percentile, value) pair of a percentile curve,
// e.g. land_height_percentiles / ocean_depth_percentiles /
// precipitation_percentiles in spec.md §6.
type PercentilePoint struct {
	Percentile float32
	Value      int32
}

// Configuration is the run configuration ingested at pipeline-build time.
// It is never owned by the pipeline: a Recipe reads it once to assemble a
// stage sequence and then the pipeline only ever sees Worlds.
type Configuration struct {
	Shape                     shape.Kind
	Seed                      uint32
	WidthPixels               int
	HeightPixels              int
	NumberOfPlates            int
	WaterPercentage           float32
	LandHeightPercentiles     []PercentilePoint
	OceanDepthPercentiles     []PercentilePoint
	PrecipitationPercentiles  []PercentilePoint
	NumberOfRivers            int
	MakeClimate               bool
	Hotspots                  float32
	ErosionIterations         uint32
	Supercontinent            bool
	Islands                   float32

	// SourceImagePath, if set, selects the image-recipe (spec.md 4.K,
	// "Alternate recipe: load height from an image").
	SourceImagePath string
}

// ClimateConfiguration parameterizes the climate stages (spec.md §6).
type ClimateConfiguration struct {
	PoleTemperature    float32
	EquatorTemperature float32
	Humidity           float32
}

// fileConfiguration is the on-disk shape decoded by BurntSushi/toml before
// being converted into Configuration; its Shape is a human-readable name
// string.
type fileConfiguration struct {
	Shape                    string
	Seed                     uint32
	WidthPixels              int
	HeightPixels             int
	NumberOfPlates           int
	WaterPercentage          float32
	LandHeightPercentiles    [][2]float64
	OceanDepthPercentiles    [][2]float64
	PrecipitationPercentiles [][2]float64
	NumberOfRivers           int
	MakeClimate              bool
	Hotspots                 float32
	ErosionIterations        uint32
	Supercontinent           bool
	Islands                  float32
	SourceImagePath          string

	Climate struct {
		PoleTemperature    float32
		EquatorTemperature float32
		Humidity           float32
	}
}

// Load reads a TOML configuration file, expanding environment variables
// in path-like fields, the way the teacher's ReadConfigFile does.
func Load(path string) (*Configuration, *ClimateConfiguration, error) {
	var fc fileConfiguration
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &fc); err != nil {
		return nil, nil, &ResourceError{Op: "read configuration file", Err: err}
	}
	return fromFile(fc)
}

// LoadBytes is Load's in-memory equivalent, used by the HTTP boundary to
// accept a configuration body directly rather than a path.
func LoadBytes(data []byte) (*Configuration, *ClimateConfiguration, error) {
	var fc fileConfiguration
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return nil, nil, &ResourceError{Op: "decode configuration", Err: err}
	}
	return fromFile(fc)
}

func fromFile(fc fileConfiguration) (*Configuration, *ClimateConfiguration, error) {
	sh, err := parseShape(fc.Shape)
	if err != nil {
		return nil, nil, err
	}
	cfg := &Configuration{
		Shape:                    sh,
		Seed:                     fc.Seed,
		WidthPixels:              fc.WidthPixels,
		HeightPixels:             fc.HeightPixels,
		NumberOfPlates:           fc.NumberOfPlates,
		WaterPercentage:          fc.WaterPercentage,
		LandHeightPercentiles:    toPercentiles(fc.LandHeightPercentiles),
		OceanDepthPercentiles:    toPercentiles(fc.OceanDepthPercentiles),
		PrecipitationPercentiles: toPercentiles(fc.PrecipitationPercentiles),
		NumberOfRivers:           fc.NumberOfRivers,
		MakeClimate:              fc.MakeClimate,
		Hotspots:                 fc.Hotspots,
		ErosionIterations:        fc.ErosionIterations,
		Supercontinent:           fc.Supercontinent,
		Islands:                  fc.Islands,
		SourceImagePath:          os.ExpandEnv(fc.SourceImagePath),
	}
	climate := &ClimateConfiguration{
		PoleTemperature:    fc.Climate.PoleTemperature,
		EquatorTemperature: fc.Climate.EquatorTemperature,
		Humidity:           fc.Climate.Humidity,
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, climate, nil
}

func toPercentiles(pairs [][2]float64) []PercentilePoint {
	out := make([]PercentilePoint, len(pairs))
	for i, p := range pairs {
		out[i] = PercentilePoint{Percentile: float32(p[0]), Value: int32(p[1])}
	}
	return out
}

func parseShape(s string) (shape.Kind, error) {
	switch s {
	case "Globe", "globe", "":
		return shape.KindGlobe, nil
	case "Cylinder", "cylinder":
		return shape.KindCylinder, nil
	case "Flat", "flat":
		return shape.KindFlat, nil
	default:
		return 0, &ConfigError{Field: "shape", Msg: fmt.Sprintf("unknown shape %q", s)}
	}
}

// Validate checks the configuration error taxonomy from spec.md §7:
// out-of-range percentile, non-monotone percentile list, shape/size
// mismatch. It runs before any stage, so a bad configuration never starts
// a pipeline.
func (c *Configuration) Validate() error {
	if c.WidthPixels <= 0 || c.HeightPixels <= 0 {
		return &ConfigError{Field: "width/height", Msg: "grid dimensions must be positive"}
	}
	if c.Shape == shape.KindGlobe && c.HeightPixels%2 != 0 {
		return &ConfigError{Field: "height_pixels", Msg: "globe height must be even so the equator row is well-defined"}
	}
	if c.WaterPercentage < 0 || c.WaterPercentage > 100 {
		return &ConfigError{Field: "water_percentage", Msg: "must be in [0,100]"}
	}
	if c.NumberOfPlates <= 0 {
		return &ConfigError{Field: "number_of_plates", Msg: "must be positive"}
	}
	for _, np := range namedPercentiles(c) {
		if err := validateMonotone(np.name, np.pts); err != nil {
			return err
		}
	}
	return nil
}

func namedPercentiles(c *Configuration) []struct {
	name string
	pts  []PercentilePoint
} {
	return []struct {
		name string
		pts  []PercentilePoint
	}{
		{"land_height_percentiles", c.LandHeightPercentiles},
		{"ocean_depth_percentiles", c.OceanDepthPercentiles},
		{"precipitation_percentiles", c.PrecipitationPercentiles},
	}
}

func validateMonotone(name string, pts []PercentilePoint) error {
	if len(pts) == 0 {
		return nil
	}
	sorted := append([]PercentilePoint(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Percentile < sorted[j].Percentile })
	for i, p := range pts {
		if p.Percentile < 0 || p.Percentile > 100 {
			return &ConfigError{Field: name, Msg: fmt.Sprintf("percentile %v out of [0,100]", p.Percentile)}
		}
		if sorted[i] != p {
			return &ConfigError{Field: name, Msg: "percentiles must be listed in non-decreasing order"}
		}
		if i > 0 && sorted[i].Value < sorted[i-1].Value {
			return &ConfigError{Field: name, Msg: "values must be non-decreasing with percentile"}
		}
	}
	return nil
}
