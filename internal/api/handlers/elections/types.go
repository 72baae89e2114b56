package elections

// ElectionAcceptedResponse acknowledges an accepted submission. The actual
// ceremony outcome is reported asynchronously via the callback URL.
type ElectionAcceptedResponse struct {
	ElectionID string `json:"election_id"`
	Status     string `json:"status"`
}

// SessionStatusResponse is one session's progress within an election.
type SessionStatusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	PublicKey string `json:"public_key,omitempty"`
}

// ElectionStatusResponse reports an election and the progress of its
// sessions. CeremonyStep is the cached coordination step, when known.
type ElectionStatusResponse struct {
	ElectionID   string                   `json:"election_id"`
	Title        string                   `json:"title"`
	CeremonyStep string                   `json:"ceremony_step,omitempty"`
	Sessions     []*SessionStatusResponse `json:"sessions"`
}
