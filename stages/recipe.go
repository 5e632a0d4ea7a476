package stages

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// refinementRounds returns the number of doubling rounds create_height_pipeline
// runs (recipe.rs's `exp`): StandardRecipe starts the base grid one more
// halving than this below the configured resolution; each round doubles
// it once and a final Resize after the rounds restores the configured
// size, so the expensive noise/erosion passes run cheaply at low
// resolution first.
func refinementRounds(widthPixels int) int {
	exp := math.Log(float64(widthPixels)/250) / math.Log(2)
	if exp < 0 {
		return 0
	}
	return int(exp)
}

func reducedDimensions(widthPixels, heightPixels, rounds int) (int, int) {
	factor := 1 << rounds
	return widthPixels / factor, heightPixels / factor
}

// standardBaseHeight builds the reduced-resolution starting World for the
// ordinary (non-supercontinent) recipe: plate assignment over five
// increasing-frequency, decreasing-amplitude per-plate noise layers, an
// initial water level,
// and a coarse percentile pass just to keep the base shape plausible
// before the real percentile curves run later (recipe.rs's
// standard_base_height).
func standardBaseHeight(cfg *config.Configuration, sh shape.Shape) ([]world.Stage, error) {
	var stages []world.Stage
	stages = append(stages, PlateAssignment(cfg, oceanicPlateCount(cfg)))
	stages = append(stages,
		HeightInPlates(cfg.Seed, 1.5, 200),
		HeightInPlates(cfg.Seed, 2.5, 150),
		HeightInPlates(cfg.Seed, 4.0, 100),
		HeightInPlates(cfg.Seed, 8.0, 80),
		HeightInPlates(cfg.Seed, 16.0, 50),
		WaterLevel(cfg.WaterPercentage),
		AdjustLandHeightPercentiles([]config.PercentilePoint{
			{Percentile: 0, Value: 0}, {Percentile: 90, Value: 300}, {Percentile: 100, Value: 700},
		}, 0),
		AdjustOceanDepthPercentiles([]config.PercentilePoint{
			{Percentile: 0, Value: -3000}, {Percentile: 50, Value: -2000},
			{Percentile: 70, Value: -1000}, {Percentile: 80, Value: -200}, {Percentile: 100, Value: 0},
		}, 0),
		HeightInPlates(cfg.Seed, 3.5, 20),
	)
	return stages, nil
}

// supercontinentBaseHeight is standardBaseHeight's supercontinent
// counterpart: the only difference PlateAssignment's Supercontinent flag
// doesn't already account for is the ocean-depth percentile pass
// adjusting relative to the configured water_percentage rather than 0,
// since a supercontinent world's initial land/ocean split is far more
// skewed (recipe.rs's supercontinent_base_height).
func supercontinentBaseHeight(cfg *config.Configuration, sh shape.Shape) ([]world.Stage, error) {
	var stages []world.Stage
	stages = append(stages, PlateAssignment(cfg, oceanicPlateCount(cfg)))
	stages = append(stages,
		HeightInPlates(cfg.Seed, 1.5, 200),
		HeightInPlates(cfg.Seed, 2.5, 150),
		HeightInPlates(cfg.Seed, 4.0, 100),
		HeightInPlates(cfg.Seed, 8.0, 80),
		HeightInPlates(cfg.Seed, 16.0, 50),
		WaterLevel(cfg.WaterPercentage),
		AdjustLandHeightPercentiles([]config.PercentilePoint{
			{Percentile: 0, Value: 0}, {Percentile: 90, Value: 300}, {Percentile: 100, Value: 700},
		}, 0),
		AdjustOceanDepthPercentiles([]config.PercentilePoint{
			{Percentile: 0, Value: -3000}, {Percentile: 50, Value: -2000},
			{Percentile: 70, Value: -1000}, {Percentile: 80, Value: -200}, {Percentile: 100, Value: 0},
		}, cfg.WaterPercentage),
		HeightInPlates(cfg.Seed, 3.5, 20),
	)
	return stages, nil
}

func oceanicPlateCount(cfg *config.Configuration) int {
	return int(float32(cfg.NumberOfPlates) * cfg.WaterPercentage / 250)
}

// createHeightPipeline assembles the full terrain-generation stage list:
// a base height (standard or supercontinent), plate interaction, an
// initial mountain/percentile/erosion pass, then `refinementRounds`
// resize-and-refine rounds each adding mountains, four decaying-amplitude
// noise layers, a pole-weighted noise layer and another erosion pass, finishing
// with smoothing, a final percentile/erosion pass, one more resize,
// translation-warp noise, ocean smoothing, optional island noise, a
// final erosion pass and optional hotspots (recipe.rs's
// create_height_pipeline).
func createHeightPipeline(cfg *config.Configuration) ([]world.Stage, error) {
	rounds := refinementRounds(cfg.WidthPixels)

	var stages []world.Stage
	var baseStages []world.Stage
	var err error
	if cfg.Supercontinent {
		baseStages, err = supercontinentBaseHeight(cfg, nil)
	} else {
		baseStages, err = standardBaseHeight(cfg, nil)
	}
	if err != nil {
		return nil, err
	}
	stages = append(stages, baseStages...)

	stages = append(stages,
		PlateGap(16),
		TectonicEdges(),
		AddMountains(2, 140, 0.2),
		WaterLevel(cfg.WaterPercentage),
		HeightNoiseMult(cfg.Seed+1, 150, 0.4),
		AdjustLandHeightPercentiles(cfg.LandHeightPercentiles, cfg.WaterPercentage),
		AdjustOceanDepthPercentiles(cfg.OceanDepthPercentiles, cfg.WaterPercentage),
		HydraulicErosion(cfg.ErosionIterations),
	)

	for k := 1; k <= rounds; k++ {
		fk := float32(k)
		stages = append(stages,
			Resize(),
			AddMountains(cfg.Seed+uint32(k)+100, 50, 0.6),
			HeightNoise(cfg.Seed+1000+uint32(k), uint64(fk*50), fk*50, 250/(fk*fk)),
			HeightNoise(cfg.Seed+1000+uint32(k), uint64(fk*100), fk*100, 70/(fk*fk)),
			HeightNoise(cfg.Seed+1000+uint32(k), uint64(fk*200), fk*200, 50/(fk*fk)),
			HeightNoise(cfg.Seed+1000+uint32(k), uint64(fk*400), fk*400, 30/(fk*fk)),
			HeightNoisePoles(cfg.Seed+100+uint32(k), 100, 200/fk),
			// FieldErosion stands in for the full droplet model between
			// doublings: it's O(passes) per cell rather than O(droplet
			// length), which matters once a refinement round has doubled
			// the grid several times over. The droplet model still runs
			// in full at the base resolution and at the end (below).
			FieldErosion(10, 5),
		)
	}

	stages = append(stages,
		Smooth(1),
		AdjustLandHeightPercentiles(cfg.LandHeightPercentiles, cfg.WaterPercentage),
		AdjustOceanDepthPercentiles(cfg.OceanDepthPercentiles, cfg.WaterPercentage),
		HydraulicErosion(cfg.ErosionIterations),
		Smooth(1),
		HydraulicErosion(cfg.ErosionIterations),
		Resize(),
		TranslationNoise(cfg.Seed),
		SmoothOcean(4),
	)

	if cfg.Islands > 0 {
		stages = append(stages,
			HeightNoise(cfg.Seed+10000, 60, 60, 70*cfg.Islands),
			HeightNoise(cfg.Seed+20000, 100, 100, 40*cfg.Islands),
			HeightNoise(cfg.Seed+30000, 200, 200, 20*cfg.Islands),
		)
	}
	stages = append(stages, HydraulicErosion(cfg.ErosionIterations))
	if cfg.Hotspots > 0 {
		stages = append(stages, Hotspots(uint64(cfg.Seed)+1, int(30*cfg.Hotspots)))
	}

	return stages, nil
}

// StandardRecipe assembles the complete stage sequence for a generative
// run: terrain, then (if cfg.MakeClimate) continentality through rivers,
// then coastline definition unconditionally, since any stage that
// changed Height since the last DefineCoastline call invalidates it
// (recipe.rs's standard_recipe). months sets how many Temperature/
// Precipitation samples the climate stages produce (12 unless the
// caller has a reason to run coarser).
func StandardRecipe(cfg *config.Configuration, climate *config.ClimateConfiguration, months int) (*world.World, []world.Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	rounds := refinementRounds(cfg.WidthPixels)
	width, height := reducedDimensions(cfg.WidthPixels, cfg.HeightPixels, rounds+1)
	sh := shape.New(cfg.Shape, width, height)
	initial := world.New(sh, months)

	stages, err := createHeightPipeline(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.MakeClimate {
		stages = append(stages,
			Continentality(),
			Temperature(climate),
			Pressure(),
			Winds(),
			Precipitation(climate),
			AnnualPrecipitation(),
			DefineKoppenClimate(),
			Vegetation(uint64(cfg.Seed)),
			CreateRivers(),
		)
	}
	stages = append(stages, DefineCoastline())

	return initial, stages, nil
}

// RecipeFromImage builds the alternate recipe that loads initial height
// from a source image instead of generating it (recipe.rs's
// recipe_from_image): LoadHeight is supplied by the caller (imageio's
// loader bound to cfg.SourceImagePath), so this function just appends
// the coastline definition every recipe ends with.
func RecipeFromImage(loadHeight world.Stage) []world.Stage {
	return []world.Stage{loadHeight, DefineCoastline()}
}

// BuildPipeline wraps a stage sequence in a world.Pipeline with a
// zerolog logger, the way the teacher's run driver wires per-stage
// timing logs through the same logger the rest of the service uses.
func BuildPipeline(stages []world.Stage, logger zerolog.Logger) *world.Pipeline {
	return &world.Pipeline{Stages: stages, Logger: logger}
}
