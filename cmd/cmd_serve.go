package cmd

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"geohier/internal/config"
	"geohier/internal/db"
	"geohier/internal/location"
	"geohier/internal/middleware"
	"geohier/internal/query"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the location API",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := newLogger(cfg)

		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		store := location.NewStore(gdb)
		engine := query.NewEngine(gdb)

		r := chi.NewRouter()
		r.Use(middleware.CORSMiddleware)
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintln(w, "Server is up!")
		})
		r.Route("/locations", func(r chi.Router) {
			location.RegisterRoutes(r, location.NewHandler(store))
			query.RegisterRoutes(r, query.NewHandler(engine))
		})

		log.WithField("port", cfg.Port).Info("server listening")
		return http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
