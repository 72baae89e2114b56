// Package router wires the echo instance: middlewares, route groups and
// every handler of the public API.
package router

import (
	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/httperrors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.Logger.SetOutput(&echoLogForwarder{})

	s.Echo.HTTPErrorHandler = httperrors.HandlerWithConfig(s.Config.Echo.HideInternalServerErrorDetails)

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(middleware.Recover())
	}
	s.Echo.Use(middleware.RequestID())
	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(requestLoggerMiddleware())
	}

	s.Router = &api.Router{
		Root:           s.Echo.Group(""),
		Management:     s.Echo.Group("/-"),
		APIV1Elections: s.Echo.Group("/api/v1/elections"),
	}

	s.Router.Management.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	attachAllRoutes(s)
}

// echoLogForwarder pipes echo's own log lines into zerolog.
type echoLogForwarder struct{}

func (f *echoLogForwarder) Write(p []byte) (int, error) {
	log.Debug().Bytes("echo", p).Msg("Echo internal log")
	return len(p), nil
}

func requestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Handled request")
			return nil
		},
	})
}
