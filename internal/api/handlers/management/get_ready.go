package management

import (
	"context"
	"net/http"
	"time"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/labstack/echo/v4"
)

const readinessTimeout = 5 * time.Second

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler is the readiness probe: the node only accepts ceremony
// work while its store answers.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		defer cancel()

		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}

		if err := s.Store.Ping(ctx); err != nil {
			util.LogFromContext(ctx).Error().Err(err).Msg("Store unreachable")
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
