package cmd

import (
	"os"
	"time"

	"github.com/agoravoting/election-orchestra/cmd/cert"
	"github.com/agoravoting/election-orchestra/cmd/db"
	"github.com/agoravoting/election-orchestra/cmd/server"
	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "election-orchestra",
	Short: "Multi-authority election key-generation ceremony node",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogging(config.DefaultServiceConfigFromEnv().Logger)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			log.Fatal().Err(err).Msg("Failed to print help")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func init() {
	rootCmd.AddCommand(
		server.New(),
		db.New(),
		cert.New(),
	)
}

func initLogging(cfg config.LoggerServer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}
}
