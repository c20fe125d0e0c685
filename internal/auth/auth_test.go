package auth

import (
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier("test-secret", "silenos", time.Hour)
	require.NoError(t, err)
	return v
}

func TestIssueAndVerify(t *testing.T) {
	v := newVerifier(t)

	token, err := v.Issue(Identity{UID: "uid-alice", DisplayName: "Alice"})
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "uid-alice", DisplayName: "Alice"}, id)

	id, err = v.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", id.UID)
}

func TestVerifyDefaultsNameToUID(t *testing.T) {
	v := newVerifier(t)
	token, err := v.Issue(Identity{UID: "uid-bob"})
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-bob", id.DisplayName)
}

func TestVerifyRejects(t *testing.T) {
	v := newVerifier(t)

	other, err := NewVerifier("other-secret", "silenos", time.Hour)
	require.NoError(t, err)
	wrongSecret, err := other.Issue(Identity{UID: "uid-alice"})
	require.NoError(t, err)

	foreign, err := NewVerifier("test-secret", "someone-else", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := foreign.Issue(Identity{UID: "uid-alice"})
	require.NoError(t, err)

	stale := newVerifier(t)
	stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := stale.Issue(Identity{UID: "uid-alice"})
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StandardClaims: jwt.StandardClaims{Issuer: "silenos", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		StandardClaims: jwt.StandardClaims{Subject: "uid-alice", Issuer: "silenos"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"no subject":   noSubject,
		"alg none":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("", "silenos", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	v := newVerifier(t)
	_, err = v.Issue(Identity{})
	assert.Error(t, err)
}

func TestCheckAdminPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, CheckAdminPassword(hash, "hunter2"))
	assert.False(t, CheckAdminPassword(hash, "hunter3"))
	assert.False(t, CheckAdminPassword("", "hunter2"))
	assert.False(t, CheckAdminPassword(hash, ""))
}
