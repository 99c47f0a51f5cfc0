package auth

import (
	"context"
	"errors"
	"strings"

	"tameer/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the user repository the verifier needs.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*types.User, error)
	Credential(ctx context.Context, userID string) (*types.Credential, error)
}

// dummyHash is compared against on every failure path that skips the real
// bcrypt comparison, so "no such user" costs the same as "wrong password".
// Hash of an unguessable throwaway value.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type Verifier struct {
	users  UserStore
	logger *logrus.Logger
}

func NewVerifier(users UserStore, logger *logrus.Logger) *Verifier {
	return &Verifier{users: users, logger: logger}
}

// Verify checks an email/password pair and returns the verified identity.
// Every failure mode collapses into types.ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, types.ErrInvalidCredentials
	}

	user, err := v.users.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, types.ErrInvalidCredentials
	}

	if !user.Role.ConsoleAccess() {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, types.ErrInvalidCredentials
	}

	cred, err := v.users.Credential(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, types.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(password)); err != nil {
		return nil, types.ErrInvalidCredentials
	}

	return &types.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

// HashPassword produces a bcrypt hash for credential seeding.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
