package ceremony_test

import (
	"testing"

	"github.com/agoravoting/election-orchestra/internal/ceremony"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleResolverDeterminism(t *testing.T) {
	r := ceremony.NewRoleResolver("cert-alpha", ceremony.ByteEquality{})

	// self-sent message: we are the director, every time
	for range 3 {
		assert.Equal(t, ceremony.RoleDirector, r.Resolve("cert-alpha"))
	}

	// any other sender makes us a performer
	assert.Equal(t, ceremony.RolePerformer, r.Resolve("cert-beta"))
	assert.Equal(t, ceremony.RolePerformer, r.Resolve(""))
}

func TestByteEqualityIgnoresSurroundingWhitespace(t *testing.T) {
	cmp := ceremony.ByteEquality{}
	assert.True(t, cmp.Equal("cert\n", "cert"))
	assert.False(t, cmp.Equal("cert-a", "cert-b"))
}

func TestFingerprintEquality(t *testing.T) {
	cmp := ceremony.FingerprintEquality{}
	assert.True(t, cmp.Equal("same-bytes", "same-bytes"))
	assert.False(t, cmp.Equal("some-bytes", "other-bytes"))
}

func TestLocalAuthority(t *testing.T) {
	data := validSubmission()

	auth, err := ceremony.LocalAuthority(data, "https://beta/api/queues")
	require.NoError(t, err)
	assert.Equal(t, "beta", *auth.Name)

	_, err = ceremony.LocalAuthority(data, "https://gamma/api/queues")
	require.Error(t, err)
	assert.Equal(t, "trying to process what seems to be an external election", ceremony.ReasonOf(err))
}
