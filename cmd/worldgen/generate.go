package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/imageio"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/snapshot"
	"github.com/pedrogalvao/worldgen/stages"
	"github.com/pedrogalvao/worldgen/vecio"
	"github.com/pedrogalvao/worldgen/world"
)

var (
	outPath  string
	vecioDir string
	months   int
)

func init() {
	generateCmd.Flags().StringVar(&outPath, "out", "./world.snapshot", "path to write the resulting snapshot to")
	generateCmd.Flags().StringVar(&vecioDir, "vecio-dir", "", "if set, also export rivers/coastline/tectonic features to shapefiles under this directory")
	generateCmd.Flags().IntVar(&months, "months", 12, "number of monthly samples the climate stages produce")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a world from a configuration file.",
	Long: "generate reads the configuration file named by --config, runs the " +
		"standard recipe (or the image-seeded recipe if source_image_path is " +
		"set), and writes the result as a snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelErr(generate())
	},
}

func generate() error {
	cfg, climate, err := config.Load(configFile)
	if err != nil {
		return err
	}

	var initial *world.World
	var stageList []world.Stage
	if cfg.SourceImagePath != "" {
		loadHeight := imageio.LoadHeight(cfg.SourceImagePath, months)
		stageList = stages.RecipeFromImage(loadHeight)
		// LoadHeight replaces the World entirely with one sized to the
		// source image, so the bootstrap World it's handed only needs to
		// be non-nil.
		initial = world.New(shape.New(cfg.Shape, cfg.WidthPixels, cfg.HeightPixels), months)
	} else {
		initial, stageList, err = stages.StandardRecipe(cfg, climate, months)
		if err != nil {
			return err
		}
	}

	pipeline := stages.BuildPipeline(stageList, logger)
	pipeline.OnStage = func(t world.StageTiming, _ *world.World) {
		logger.Info().Str("stage", t.Stage).Dur("elapsed", t.Elapsed).Msg("stage complete")
	}

	result, _, err := pipeline.Run(context.Background(), initial)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return &config.ResourceError{Op: "create snapshot output file", Err: err}
	}
	defer f.Close()
	if err := snapshot.Save(f, result); err != nil {
		return err
	}
	logger.Info().Str("path", outPath).Msg("snapshot written")

	if vecioDir != "" {
		if err := os.MkdirAll(vecioDir, 0o755); err != nil {
			return &config.ResourceError{Op: "create vecio output directory", Err: err}
		}
		if err := vecio.ExportRivers(vecioDir+"/rivers.shp", result.Rivers, result.Shape); err != nil {
			return err
		}
		if err := vecio.ExportCoastline(vecioDir+"/coastline.shp", result.Coastline, result.Shape); err != nil {
			return err
		}
		if err := vecio.ExportTectonics(vecioDir, result); err != nil {
			return err
		}
		logger.Info().Str("dir", vecioDir).Msg("vector features exported")
	}
	return nil
}
