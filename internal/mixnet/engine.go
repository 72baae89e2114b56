// Package mixnet drives the external mixnet toolchain that performs the
// actual cryptography of the key-generation ceremony. The rest of the
// codebase treats it as an opaque oracle behind the Engine interface.
package mixnet

import "context"

// Well-known file names inside a session's private directory. Their
// presence doubles as ceremony progress markers, so they are write-once.
const (
	StubFile             = "stub"
	LocalDescriptorFile  = "localDescriptor"
	MergedDescriptorFile = "mergedDescriptor"
	RawKeyFile           = "rawKey"
	EncodedKeyFile       = "encodedKey"
)

// StubRequest asks for the seed protocol descriptor of a session. Only the
// ceremony director generates stubs.
type StubRequest struct {
	SessionDir       string
	ElectionID       string
	SessionID        string
	NumParties       int
	ThresholdParties int
}

// DescriptorRequest asks for this authority's local protocol descriptor.
// The engine reads the stub previously stored in SessionDir and writes the
// local descriptor next to it.
type DescriptorRequest struct {
	SessionDir    string
	AuthorityName string
	ServerURL     string
	HintServerURL string
}

// Engine is the CryptoEngine collaborator. All operations are blocking and
// synchronous; a failure is opaque and fatal to the enclosing ceremony step.
type Engine interface {
	// GenerateProtocolStub writes the session's stub file.
	GenerateProtocolStub(ctx context.Context, req *StubRequest) error

	// GenerateLocalDescriptor writes the session's local descriptor file and
	// returns its content.
	GenerateLocalDescriptor(ctx context.Context, req *DescriptorRequest) (string, error)

	// GenerateKeyPair reads the merged descriptor in sessionDir, writes the
	// raw keypair, and transcodes it into the portable encoded form.
	GenerateKeyPair(ctx context.Context, sessionDir string) error
}
