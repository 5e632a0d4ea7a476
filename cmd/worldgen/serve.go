package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pedrogalvao/worldgen/httpapi"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to serve the generation boundary on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP generation boundary.",
	Long: "serve starts the thin HTTP boundary that accepts configurations, " +
		"runs generation jobs in the background, and streams progress and " +
		"snapshots back to callers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := httpapi.NewServer(logger)
		logger.Info().Str("addr", serveAddr).Msg("serving")
		return labelErr(http.ListenAndServe(serveAddr, srv))
	},
}
