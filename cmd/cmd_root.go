package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"geohier/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "geohier",
	Short: "administrative hierarchy ingestion and proximity queries",
	Long: `
geohier reconciles raw geographic source extracts (a city gazetteer plus a
postal-code mapper) into a clean state → district → city → locality
hierarchy, and serves nearest-city reverse geocoding and location
suggestions over it.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
