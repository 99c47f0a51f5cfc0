package auth

import (
	"fmt"
	"time"

	"tameer/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Issuer mints and verifies the signed session tokens carried in the admin
// console cookie. Only identities whose role is in the console role set are
// ever issued a token; everything else is rejected here, before a session can
// exist at all.
type Issuer struct {
	key jwk.Key
	ttl time.Duration
}

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret must not be empty")
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("import session signing key: %w", err)
	}

	return &Issuer{key: key, ttl: ttl}, nil
}

func (i *Issuer) Issue(identity *types.Identity) (string, error) {
	if !identity.Role.ConsoleAccess() {
		return "", types.ErrUnauthorized
	}

	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(identity.UserID).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Claim("role", string(identity.Role)).
		Claim("email", identity.Email).
		Claim("name", identity.Name).
		Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), i.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return string(signed), nil
}

// Parse validates a session token and re-derives the identity from its
// claims. Missing, malformed, expired, and wrong-role tokens all fail closed
// with types.ErrUnauthorized.
func (i *Issuer) Parse(raw string) (*types.Identity, error) {
	if raw == "" {
		return nil, types.ErrUnauthorized
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), i.key),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, types.ErrUnauthorized
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, types.ErrUnauthorized
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, types.ErrUnauthorized
	}

	if !types.Role(role).ConsoleAccess() {
		return nil, types.ErrUnauthorized
	}

	var email string
	_ = token.Get("email", &email)

	var name string
	_ = token.Get("name", &name)

	return &types.Identity{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   types.Role(role),
	}, nil
}
