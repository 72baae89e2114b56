package elections

import (
	"net/http"

	"github.com/agoravoting/election-orchestra/internal/api"
	"github.com/agoravoting/election-orchestra/internal/api/httperrors"
	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/labstack/echo/v4"
)

func PostApprovalDecisionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Elections.POST("/:election_id/approval", postApprovalDecisionHandler(s))
}

// postApprovalDecisionHandler resumes a ceremony suspended at the approval
// checkpoint with the operator's decision.
func postApprovalDecisionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		electionID := c.Param("election_id")

		var body ceremony.ApprovalDecision
		if err := c.Bind(&body); err != nil {
			log.Debug().Err(err).Msg("Failed to bind approval decision")
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "malformed request body")
		}

		if err := s.Ceremony.HandleApprovalDecision(ctx, electionID, &body); err != nil {
			log.Warn().Err(err).Str("election_id", electionID).Msg("Approval decision refused")
			return ceremonyHTTPError(err)
		}

		return c.JSON(http.StatusAccepted, &ElectionAcceptedResponse{
			ElectionID: electionID,
			Status:     body.Status,
		})
	}
}
