// Command worldgen is a command-line interface for the planetary world
// generator: generate a world from a configuration file and save it as
// a snapshot, or serve the HTTP generation boundary.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	logger zerolog.Logger
)

// rootCmd is the CLI's entry point; its PersistentPreRunE wires up the
// structured logger every subcommand shares, the way the teacher's
// RootCmd.PersistentPreRunE calls Startup before any subcommand runs.
var rootCmd = &cobra.Command{
	Use:   "worldgen",
	Short: "A procedural planetary world-map generator.",
	Long: `worldgen generates elevation, tectonics, climate and hydrology for a
planet on a Globe, Cylinder or Flat topology, from a TOML configuration
file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./worldgen.toml", "configuration file location")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log at debug level")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("worldgen v0.1.0")
	},
}

func labelErr(err error) error {
	if err != nil {
		return fmt.Errorf("worldgen: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
