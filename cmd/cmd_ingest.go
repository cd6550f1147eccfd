package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"geohier/internal/config"
	"geohier/internal/db"
	"geohier/internal/ingest"
	"geohier/internal/location"
)

var (
	ingestSources  string
	ingestProgress bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Reconcile the CSV sources into the hierarchy",
	Long: `
Runs one reconciliation pass: reads the gazetteer and mapper extracts named
in the sources file, deduplicates them against the stored hierarchy and
batch-inserts whatever is missing. Safe to re-run; a second pass over the
same inputs creates nothing.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := newLogger(cfg)

		sources, err := config.LoadSources(ingestSources)
		if err != nil {
			return err
		}

		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		runner := ingest.NewRunner(location.NewStore(gdb), log)
		report, err := runner.Run(cmd.Context(), ingest.Config{
			GazetteerPath: sources.Gazetteer,
			MapperPath:    sources.Mapper,
			CountryName:   sources.Country.Name,
			CountryISO:    sources.Country.ISOCode,
			BatchSize:     sources.BatchSize,
			Progress:      ingestProgress,
		})
		if err != nil {
			return err
		}

		fmt.Printf("created %d states, %d districts, %d cities, %d localities (%d rows skipped)\n",
			report.States, report.Districts, report.Cities, report.Localities, report.Skipped)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSources, "sources", "sources.yaml", "path to the sources YAML file")
	ingestCmd.Flags().BoolVar(&ingestProgress, "progress", true, "show a progress bar")
	rootCmd.AddCommand(ingestCmd)
}
