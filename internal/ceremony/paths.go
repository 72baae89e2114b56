package ceremony

import (
	"path/filepath"

	"github.com/agoravoting/election-orchestra/internal/config"
)

// Directory layout: {base}/{election_id}/{session_id}/...

func electionPrivateDir(paths config.Paths, electionID string) string {
	return filepath.Join(paths.PrivateDataPath, electionID)
}

func sessionPrivateDir(paths config.Paths, electionID, sessionID string) string {
	return filepath.Join(paths.PrivateDataPath, electionID, sessionID)
}

func sessionPublicDir(paths config.Paths, electionID, sessionID string) string {
	return filepath.Join(paths.PublicDataPath, electionID, sessionID)
}
