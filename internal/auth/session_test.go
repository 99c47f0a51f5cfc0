package auth

import (
	"testing"
	"time"

	"tameer/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionSecret = []byte("0123456789abcdef0123456789abcdef")

func adminIdentity() *types.Identity {
	return &types.Identity{
		UserID: "user-1",
		Email:  "admin@company.com",
		Name:   "Super Admin",
		Role:   types.RoleAdmin,
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer(sessionSecret, time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(adminIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	identity, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, adminIdentity(), identity)
}

func TestIssuer_RefusesNonConsoleRole(t *testing.T) {
	issuer, err := NewIssuer(sessionSecret, time.Hour)
	require.NoError(t, err)

	visitor := adminIdentity()
	visitor.Role = types.RoleVisitor

	_, err = issuer.Issue(visitor)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestIssuer_ParseFailsClosed(t *testing.T) {
	issuer, err := NewIssuer(sessionSecret, time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(adminIdentity())
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", raw[:len(raw)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, parseErr := issuer.Parse(tt.raw)
			assert.Nil(t, identity)
			assert.ErrorIs(t, parseErr, types.ErrUnauthorized)
		})
	}
}

func TestIssuer_RejectsWrongKey(t *testing.T) {
	issuer, err := NewIssuer(sessionSecret, time.Hour)
	require.NoError(t, err)

	other, err := NewIssuer([]byte("fedcba9876543210fedcba9876543210"), time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(adminIdentity())
	require.NoError(t, err)

	identity, err := other.Parse(raw)
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestIssuer_RejectsExpiredToken(t *testing.T) {
	issuer, err := NewIssuer(sessionSecret, -time.Minute)
	require.NoError(t, err)

	raw, err := issuer.Issue(adminIdentity())
	require.NoError(t, err)

	identity, err := issuer.Parse(raw)
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	assert.Error(t, err)
}
