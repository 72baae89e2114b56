package elections

import (
	"errors"
	"net/http"

	"github.com/agoravoting/election-orchestra/internal/api/httperrors"
	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/agoravoting/election-orchestra/internal/store"
)

// ceremonyHTTPError maps a ceremony step failure onto the public error
// envelope. Checked ceremony failures carry a machine-stable reason and map
// to 400; store misses map to 404; everything else stays an opaque 500.
func ceremonyHTTPError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return httperrors.NewHTTPError(http.StatusNotFound, httperrors.HTTPErrorTypeGeneric, "election not found")
	}

	if reason := ceremony.ReasonOf(err); reason != "" {
		return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, reason)
	}

	return err
}
