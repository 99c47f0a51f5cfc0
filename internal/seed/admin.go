package seed

import (
	"context"
	"fmt"
	"time"

	"tameer/internal/auth"
	"tameer/internal/store"
	"tameer/pkg/types"
)

// credentialExpiry mirrors the far-future expiry the credential rows are
// seeded with; password hashes do not age out on their own.
var credentialExpiry = time.Date(2999, time.December, 31, 0, 0, 0, 0, time.UTC)

// SeedAdmin upserts the console administrator and stores the bcrypt hash of
// the given password under the derived credential identifier.
func SeedAdmin(ctx context.Context, users *store.UserRepository, email, name, password string) (*types.User, error) {
	user := &types.User{
		Email: email,
		Name:  name,
		Role:  types.RoleAdmin,
	}

	if err := users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	if err := users.UpsertCredential(ctx, user.ID, hash, credentialExpiry); err != nil {
		return nil, fmt.Errorf("failed to upsert admin credential: %w", err)
	}

	return user, nil
}
