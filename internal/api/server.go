package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mailer"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/taskbus"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

type Router struct {
	Routes         []*echo.Route
	Root           *echo.Group
	Management     *echo.Group
	APIV1Elections *echo.Group
}

// Server is a central struct keeping all the dependencies. Components are
// initialized in cmd/server in dependency order; Echo and Router are set up
// afterwards by router.Init.
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config config.Server
	DB     *sql.DB
	Store  store.Store
	Cache  store.CeremonyCache
	Mailer *mailer.Mailer
	Engine mixnet.Engine
	Bus    *taskbus.LocalBus

	Ceremony *ceremony.Service
}

func NewServer(config config.Server) *Server {
	return &Server{
		Config: config,
	}
}

func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Store != nil &&
		s.Cache != nil &&
		s.Mailer != nil &&
		s.Engine != nil &&
		s.Bus != nil &&
		s.Ceremony != nil
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Bus != nil {
		log.Debug().Msg("Draining task bus")
		s.Bus.Close()
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")
		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	return errs
}
