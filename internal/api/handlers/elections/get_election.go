package elections

import (
	"net/http"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/labstack/echo/v4"
)

func GetElectionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Elections.GET("/:election_id", getElectionHandler(s))
}

// getElectionHandler reports an election's ceremony progress: the session
// statuses from the store plus the cached coordination step, if any.
func getElectionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		electionID := c.Param("election_id")

		election, err := s.Store.GetElection(ctx, electionID)
		if err != nil {
			return ceremonyHTTPError(err)
		}

		sessions, err := s.Store.GetSessions(ctx, electionID)
		if err != nil {
			return ceremonyHTTPError(err)
		}

		response := &ElectionStatusResponse{
			ElectionID: election.ID,
			Title:      election.Title,
			Sessions:   make([]*SessionStatusResponse, 0, len(sessions)),
		}

		for _, session := range sessions {
			response.Sessions = append(response.Sessions, &SessionStatusResponse{
				ID:        session.ID,
				Status:    string(session.Status),
				PublicKey: session.PublicKey,
			})
		}

		// cache miss just means no step to report
		if state, err := s.Cache.GetState(ctx, electionID); err == nil && state != nil {
			response.CeremonyStep = state.Step
		} else if err != nil {
			log.Debug().Err(err).Str("election_id", electionID).Msg("No cached ceremony state")
		}

		return c.JSON(http.StatusOK, response)
	}
}
