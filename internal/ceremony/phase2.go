package ceremony

import (
	"context"
	"os"
	"path/filepath"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/agoravoting/election-orchestra/internal/mixnet"
	"github.com/agoravoting/election-orchestra/internal/store"
	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/pkg/errors"
)

// KeyPublisher runs phase 2 for one (election, session) pair: keypair
// generation from the merged descriptor and publication into the public
// mirror.
type KeyPublisher struct {
	store  store.Store
	engine mixnet.Engine
	paths  config.Paths
}

func NewKeyPublisher(st store.Store, engine mixnet.Engine, paths config.Paths) *KeyPublisher {
	return &KeyPublisher{
		store:  st,
		engine: engine,
		paths:  paths,
	}
}

// GeneratePublicKey generates, transcodes and publishes the session's
// public key. Key generation is write-once; the publish copy is idempotent
// and may be repeated safely after an interruption.
func (p *KeyPublisher) GeneratePublicKey(ctx context.Context, req *Phase2Request) error {
	log := util.LogFromContext(ctx)

	sessionDir := sessionPrivateDir(p.paths, req.ElectionID, req.SessionID)

	// this step may be addressed to us by another authority: sanity-check
	// the target before touching anything
	if _, err := os.Stat(sessionDir); err != nil {
		return NewError("invalid session_id / election_id")
	}

	rawKeyPath := filepath.Join(sessionDir, mixnet.RawKeyFile)
	encodedKeyPath := filepath.Join(sessionDir, mixnet.EncodedKeyFile)
	if fileExists(rawKeyPath) || fileExists(encodedKeyPath) {
		return NewError("pubkey already created")
	}

	// a node that never saw the merge result receives the authoritative
	// merged descriptor with the request
	mergedPath := filepath.Join(sessionDir, mixnet.MergedDescriptorFile)
	if !fileExists(mergedPath) {
		if err := os.WriteFile(mergedPath, []byte(req.MergedDescriptor), 0o600); err != nil {
			return errors.Wrap(err, "write merged descriptor")
		}
	}

	if err := p.engine.GenerateKeyPair(ctx, sessionDir); err != nil {
		return errors.Wrapf(err, "generate keypair of session %s", req.SessionID)
	}

	encodedKey, err := os.ReadFile(encodedKeyPath)
	if err != nil {
		return errors.Wrap(err, "read encoded key")
	}

	if err := p.store.SetSessionPublicKey(ctx, req.ElectionID, req.SessionID, string(encodedKey)); err != nil {
		return errors.Wrapf(err, "store public key of session %s", req.SessionID)
	}
	if err := p.store.UpdateSessionStatus(ctx, req.ElectionID, req.SessionID, store.SessionStatusKeyGenerated); err != nil {
		return errors.Wrapf(err, "mark session %s key_generated", req.SessionID)
	}

	publicDir := sessionPublicDir(p.paths, req.ElectionID, req.SessionID)
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		return errors.Wrapf(err, "create public directory %s", publicDir)
	}

	if err := copyFile(encodedKeyPath, filepath.Join(publicDir, mixnet.EncodedKeyFile)); err != nil {
		return errors.Wrap(err, "publish encoded key")
	}
	if err := copyFile(mergedPath, filepath.Join(publicDir, mixnet.MergedDescriptorFile)); err != nil {
		return errors.Wrap(err, "publish merged descriptor")
	}

	if err := p.store.UpdateSessionStatus(ctx, req.ElectionID, req.SessionID, store.SessionStatusPublished); err != nil {
		return errors.Wrapf(err, "mark session %s published", req.SessionID)
	}

	log.Info().
		Str("election_id", req.ElectionID).
		Str("session_id", req.SessionID).
		Msg("Generated and published session public key")

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
