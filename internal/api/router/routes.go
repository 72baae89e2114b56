package router

import (
	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/handlers/elections"
	"github.com/agoravoting/election-orchestra/internal/api/handlers/management"
	"github.com/labstack/echo/v4"
)

func attachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		elections.PostCreateElectionRoute(s),
		elections.PostApprovalDecisionRoute(s),
		elections.GetElectionRoute(s),

		management.GetHealthyRoute(s),
		management.GetReadyRoute(s),
	}
}
