package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPing() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Checks database connectivity",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			db, err := sql.Open("postgres", cfg.Database.ConnectionString())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database connection")
			}
			defer db.Close()

			if err := db.PingContext(ctx); err != nil {
				log.Fatal().Err(err).Msg("Database unreachable")
			}

			log.Info().
				Str("host", cfg.Database.Host).
				Int("port", cfg.Database.Port).
				Str("database", cfg.Database.Database).
				Msg("Database reachable")
		},
	}
}
