package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/dropbox/godropbox/time2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies the database schema",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			db, err := sql.Open("postgres", cfg.Database.ConnectionString())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database connection")
			}
			defer db.Close()

			if err := store.NewPostgresStore(db, time2.DefaultClock).Migrate(ctx); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply schema")
			}

			log.Info().Str("database", cfg.Database.Database).Msg("Schema applied")
		},
	}
}
