package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/router"
	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mailer"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/taskbus"
	"github.com/agoravoting/election-orchestra/internal/util/cert"
	"github.com/dropbox/godropbox/time2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

const taskQueueSize = 64

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the orchestra server",
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}
}

func runServer() {
	cfg := config.DefaultServiceConfigFromEnv()

	s := api.NewServer(cfg)

	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.ConnectionString())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database connection")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		cancel()

		s.DB = db
		s.Store = store.NewPostgresStore(db, time2.DefaultClock)
	} else {
		log.Warn().Msg("Database disabled, election state will not survive restarts")
		s.Store = store.NewMemoryStore(time2.DefaultClock)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Endpoint})
		s.Cache = store.NewRedisCache(client)
	} else {
		s.Cache = store.NewNoopCache()
	}

	localCert, err := cert.Load(cfg.Authority.CertFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load authority certificate")
	}
	if err := cert.Verify(localCert, time.Now()); err != nil {
		log.Warn().Err(err).Msg("Authority certificate failed verification")
	}

	s.Mailer = mailer.NewWithConfig(cfg.Mailer, cfg.SMTP)
	s.Engine = mixnet.NewExecEngine(cfg.Mixnet)
	s.Bus = taskbus.NewLocalBus(taskQueueSize)

	s.Ceremony = ceremony.NewService(cfg, localCert, ceremony.FingerprintEquality{}, s.Store, s.Cache, s.Bus, s.Engine, s.Mailer)
	ceremony.RegisterHandlers(s.Bus, s.Ceremony)

	router.Init(s)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Str("listen_address", cfg.Echo.ListenAddress).
		Str("root_url", cfg.Authority.RootURL).
		Bool("auto_accept", cfg.Ceremony.AutoAcceptRequests).
		Msg("Orchestra server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, err := range s.Shutdown(ctx) {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
}
