package store

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	clock time2.Clock
}

func NewPostgresStore(db *sql.DB, clock time2.Clock) *PostgresStore {
	return &PostgresStore{db: db, clock: clock}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

func (s *PostgresStore) CreateElection(ctx context.Context, election *Election, authorities []*Authority, sessions []*Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		// no-op if the transaction was committed
		_ = tx.Rollback()
	}()

	now := s.clock.Now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO elections (id, title, url, description, questions_data, voting_start_date, voting_end_date, is_recurring, num_parties, threshold_parties, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		election.ID, election.Title, election.URL, election.Description, election.QuestionsData,
		election.VotingStartDate, election.VotingEndDate, election.IsRecurring,
		election.NumParties, election.ThresholdParties, now)
	if err != nil {
		return errors.Wrap(err, "insert election")
	}

	for _, a := range authorities {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO authorities (election_id, name, certificate, endpoint) VALUES ($1, $2, $3, $4)`,
			election.ID, a.Name, a.Certificate, a.Endpoint)
		if err != nil {
			return errors.Wrapf(err, "insert authority %s", a.Name)
		}
	}

	for _, sess := range sessions {
		status := sess.Status
		if status == "" {
			status = SessionStatusDefault
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (election_id, id, ordinal, status, public_key, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			election.ID, sess.ID, sess.Ordinal, status, sess.PublicKey, now)
		if err != nil {
			return errors.Wrapf(err, "insert session %s", sess.ID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (s *PostgresStore) GetElection(ctx context.Context, electionID string) (*Election, error) {
	var e Election
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, url, description, questions_data, voting_start_date, voting_end_date, is_recurring, num_parties, threshold_parties, created_at
		 FROM elections WHERE id = $1`, electionID).
		Scan(&e.ID, &e.Title, &e.URL, &e.Description, &e.QuestionsData,
			&e.VotingStartDate, &e.VotingEndDate, &e.IsRecurring,
			&e.NumParties, &e.ThresholdParties, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "election %s", electionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select election")
	}

	return &e, nil
}

func (s *PostgresStore) ElectionExists(ctx context.Context, electionID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, electionID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "select election existence")
	}
	return exists, nil
}

func (s *PostgresStore) GetAuthorities(ctx context.Context, electionID string) ([]*Authority, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT election_id, name, certificate, endpoint FROM authorities WHERE election_id = $1 ORDER BY name`, electionID)
	if err != nil {
		return nil, errors.Wrap(err, "select authorities")
	}
	defer rows.Close()

	var out []*Authority
	for rows.Next() {
		var a Authority
		if err := rows.Scan(&a.ElectionID, &a.Name, &a.Certificate, &a.Endpoint); err != nil {
			return nil, errors.Wrap(err, "scan authority")
		}
		out = append(out, &a)
	}

	return out, errors.Wrap(rows.Err(), "iterate authorities")
}

func (s *PostgresStore) GetSessions(ctx context.Context, electionID string) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT election_id, id, ordinal, status, public_key, created_at FROM sessions WHERE election_id = $1 ORDER BY ordinal`, electionID)
	if err != nil {
		return nil, errors.Wrap(err, "select sessions")
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ElectionID, &sess.ID, &sess.Ordinal, &sess.Status, &sess.PublicKey, &sess.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		out = append(out, &sess)
	}

	return out, errors.Wrap(rows.Err(), "iterate sessions")
}

func (s *PostgresStore) GetSession(ctx context.Context, electionID, sessionID string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT election_id, id, ordinal, status, public_key, created_at FROM sessions WHERE election_id = $1 AND id = $2`,
		electionID, sessionID).
		Scan(&sess.ElectionID, &sess.ID, &sess.Ordinal, &sess.Status, &sess.PublicKey, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select session")
	}

	return &sess, nil
}

func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, electionID, sessionID string, next SessionStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current SessionStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM sessions WHERE election_id = $1 AND id = $2 FOR UPDATE`, electionID, sessionID).Scan(&current)
	if err == sql.ErrNoRows {
		return errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}
	if err != nil {
		return errors.Wrap(err, "select session status")
	}

	if !CanTransition(current, next) {
		return errors.Wrapf(ErrInvalidTransition, "from %s to %s", current, next)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET status = $3 WHERE election_id = $1 AND id = $2`, electionID, sessionID, next)
	if err != nil {
		return errors.Wrap(err, "update session status")
	}

	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (s *PostgresStore) SetSessionPublicKey(ctx context.Context, electionID, sessionID, publicKey string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET public_key = $3 WHERE election_id = $1 AND id = $2`, electionID, sessionID, publicKey)
	if err != nil {
		return errors.Wrap(err, "update session public key")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "session %s of election %s", sessionID, electionID)
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping database")
}
