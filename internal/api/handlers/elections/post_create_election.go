package elections

import (
	"net/http"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/httperrors"
	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

func PostCreateElectionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Elections.POST("", postCreateElectionHandler(s))
}

// postCreateElectionHandler accepts a first-time election submission and
// starts the key-generation ceremony with this node as director.
func postCreateElectionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body ceremony.SubmissionData
		if err := c.Bind(&body); err != nil {
			log.Debug().Err(err).Msg("Failed to bind election submission")
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "malformed request body")
		}

		if err := s.Ceremony.CreateElection(ctx, &body); err != nil {
			log.Warn().Err(err).Msg("Election submission refused")
			return ceremonyHTTPError(err)
		}

		return c.JSON(http.StatusAccepted, &ElectionAcceptedResponse{
			ElectionID: swag.StringValue(body.ElectionID),
			Status:     "accepted",
		})
	}
}
