package mixnet

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agoravoting/election-orchestra/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ExecEngine implements Engine by shelling out to the verificatum binaries
// (vmni/vmn/vmnc by default). Each invocation runs with the session
// directory as its working directory.
type ExecEngine struct {
	cfg config.Mixnet
}

func NewExecEngine(cfg config.Mixnet) *ExecEngine {
	return &ExecEngine{cfg: cfg}
}

func (e *ExecEngine) GenerateProtocolStub(ctx context.Context, req *StubRequest) error {
	args := []string{
		"-prot",
		"-sid", req.SessionID,
		"-name", req.ElectionID,
		"-nopart", strconv.Itoa(req.NumParties),
		"-thres", strconv.Itoa(req.ThresholdParties),
		StubFile,
	}
	return e.run(ctx, req.SessionDir, e.cfg.InfoToolBinary, args)
}

func (e *ExecEngine) GenerateLocalDescriptor(ctx context.Context, req *DescriptorRequest) (string, error) {
	args := []string{
		"-party",
		"-arrays", "file",
		"-name", req.AuthorityName,
		"-http", req.ServerURL,
		"-hint", req.HintServerURL,
	}
	if err := e.run(ctx, req.SessionDir, e.cfg.InfoToolBinary, args); err != nil {
		return "", err
	}

	content, err := os.ReadFile(filepath.Join(req.SessionDir, LocalDescriptorFile))
	if err != nil {
		return "", errors.Wrap(err, "read local descriptor")
	}

	return string(content), nil
}

func (e *ExecEngine) GenerateKeyPair(ctx context.Context, sessionDir string) error {
	if err := e.run(ctx, sessionDir, e.cfg.MixnetBinary, []string{"-keygen", RawKeyFile}); err != nil {
		return err
	}

	return e.run(ctx, sessionDir, e.cfg.ConverterBinary, []string{"-pkey", "-outi", "json", RawKeyFile, EncodedKeyFile})
}

func (e *ExecEngine) run(ctx context.Context, dir, binary string, args []string) error {
	log.Debug().Str("binary", binary).Strs("args", args).Str("dir", dir).Msg("Invoking mixnet tool")

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		// the tool's failure is opaque to the ceremony: surface it unchanged
		return errors.Wrapf(err, "%s %s failed: %s", binary, strings.Join(args, " "), strings.TrimSpace(string(out)))
	}

	return nil
}
