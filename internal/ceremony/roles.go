package ceremony

import (
	"strings"

	"github.com/agoravoting/election-orchestra/internal/util/cert"
	"github.com/go-openapi/swag"
)

// Role is this node's part in one ceremony.
type Role int

const (
	// RoleDirector initiated the ceremony; its local state already exists
	// and is fetched, never recreated.
	RoleDirector Role = iota + 1
	// RolePerformer participates in a ceremony initiated elsewhere and
	// creates its local state on the first ceremony message.
	RolePerformer
)

func (r Role) String() string {
	switch r {
	case RoleDirector:
		return "director"
	case RolePerformer:
		return "performer"
	default:
		return "unknown"
	}
}

// CertComparator decides whether two certificates identify the same
// authority. It is pluggable so a change of certificate format on the
// transport does not ripple into ceremony logic.
type CertComparator interface {
	Equal(a, b string) bool
}

// ByteEquality compares certificates by their exact bytes, ignoring
// surrounding whitespace.
type ByteEquality struct{}

func (ByteEquality) Equal(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// FingerprintEquality compares certificates by SHA-256 fingerprint of their
// DER bytes, tolerating PEM re-formatting.
type FingerprintEquality struct{}

func (FingerprintEquality) Equal(a, b string) bool {
	return cert.Fingerprint(a) == cert.Fingerprint(b)
}

// RoleResolver derives this node's role from the sender certificate of an
// incoming ceremony message. The comparison is the single source of truth
// for "am I the initiator" and is re-derived at every phase, never cached.
type RoleResolver struct {
	localCert  string
	comparator CertComparator
}

func NewRoleResolver(localCert string, comparator CertComparator) *RoleResolver {
	return &RoleResolver{
		localCert:  localCert,
		comparator: comparator,
	}
}

// Resolve returns RoleDirector iff the message was sent by this node itself.
func (r *RoleResolver) Resolve(senderCert string) Role {
	if r.comparator.Equal(senderCert, r.localCert) {
		return RoleDirector
	}
	return RolePerformer
}

// LocalAuthority finds this node's own entry in a submission's authority
// list, matched by endpoint. A submission that does not list us describes
// an election we are not a party to.
func LocalAuthority(data *SubmissionData, rootURL string) (*AuthorityData, error) {
	for _, auth := range data.Authorities {
		if auth != nil && swag.StringValue(auth.Endpoint) == rootURL {
			return auth, nil
		}
	}

	return nil, NewError("trying to process what seems to be an external election")
}
