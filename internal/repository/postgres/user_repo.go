package postgres

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, auth0_id, email, name, currency, dark_mode_enabled, created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var name pgtype.Text
	if err := row.Scan(&u.ID, &u.Auth0ID, &u.Email, &name, &u.Currency, &u.DarkModeEnabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Name = pgTextToStringPtr(name)
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, storageErr("get user", err, domain.ErrUserNotFound)
	}
	return user, nil
}

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID))
	if err != nil {
		return nil, storageErr("get user by auth0 id", err, domain.ErrUserNotFound)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, storageErr("get user by email", err, domain.ErrUserNotFound)
	}
	return user, nil
}

// CreateOrGetByAuth0ID creates a user on first login or returns the existing one.
// Email and name are refreshed from the identity provider.
func (r *UserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name *string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (auth0_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (auth0_id) DO UPDATE
			SET email = CASE WHEN EXCLUDED.email = '' THEN users.email ELSE EXCLUDED.email END,
			    name = COALESCE(EXCLUDED.name, users.name),
			    updated_at = NOW()
		RETURNING `+userColumns,
		auth0ID, email, stringPtrToPgText(name)))
	if err != nil {
		return nil, storageErr("create or get user", err, nil)
	}
	return user, nil
}

// UpdatePreferences stores the user's display preferences
func (r *UserRepository) UpdatePreferences(ctx context.Context, id int32, prefs domain.UserPreferences) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET currency = $2, dark_mode_enabled = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, prefs.Currency, prefs.DarkModeEnabled))
	if err != nil {
		return nil, storageErr("update preferences", err, domain.ErrUserNotFound)
	}
	return user, nil
}

// ListAllIDs returns every user id in ascending order
func (r *UserRepository) ListAllIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, storageErr("list user ids", err, nil)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, storageErr("list user ids", err, nil)
	}
	return ids, nil
}
