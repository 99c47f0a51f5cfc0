package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tameer/internal/utils"
	"tameer/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userTableName       = "tameer.users"
	credentialTableName = "tameer.credentials"
)

var userColumns = utils.StructTagValues(types.User{})
var credentialColumns = utils.StructTagValues(types.Credential{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// UserByEmail looks a user up by lowercased email. Emails are stored lowercase
// at write time, so the normalization here covers the read side only.
func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user-by-email query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) UpsertUser(ctx context.Context, user *types.User) error {
	now := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.ID == "" {
		user.ID = utils.NanoID()
	}

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert user query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&user.ID)
	return utils.ErrorWrapOrNil(err, "failed to upsert user")
}

// Credential fetches the stored password hash row for a user. The identifier
// is derived, never supplied by a caller.
func (r *UserRepository) Credential(ctx context.Context, userID string) (*types.Credential, error) {
	query, args, err := psql().
		Select(credentialColumns...).
		From(credentialTableName).
		Where(sq.Eq{"identifier": types.CredentialIdentifier(userID)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential query: %w", err)
	}

	var cred types.Credential
	err = pgxscan.Get(ctx, r.pool, &cred, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch credential: %w", err)
	}

	return &cred, nil
}

func (r *UserRepository) UpsertCredential(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	query, args, err := psql().
		Insert(credentialTableName).
		Columns("identifier", "hash", "expires_at").
		Values(types.CredentialIdentifier(userID), hash, expiresAt).
		Suffix("ON CONFLICT (identifier) DO UPDATE SET hash = EXCLUDED.hash, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert credential query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert credential")
}
