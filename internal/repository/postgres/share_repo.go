package postgres

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShareRepository implements domain.ShareRepository using PostgreSQL
type ShareRepository struct {
	pool *pgxpool.Pool
}

// NewShareRepository creates a new ShareRepository
func NewShareRepository(pool *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{pool: pool}
}

func scanShare(row pgx.Row) (*domain.DataShare, error) {
	var s domain.DataShare
	var level string
	var name pgtype.Text
	if err := row.Scan(&s.ID, &s.OwnerUserID, &s.SharedWithUserID, &level, &s.CreatedAt, &s.CounterpartEmail, &name); err != nil {
		return nil, err
	}
	s.PermissionLevel = domain.PermissionLevel(level)
	s.CounterpartName = pgTextToStringPtr(name)
	return &s, nil
}

func collectShares(rows pgx.Rows) ([]*domain.DataShare, error) {
	defer rows.Close()
	result := make([]*domain.DataShare, 0)
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Create grants a user access to the owner's data
func (r *ShareRepository) Create(ctx context.Context, share *domain.DataShare) (*domain.DataShare, error) {
	created, err := scanShare(r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO data_shares (owner_user_id, shared_with_user_id, permission_level)
			VALUES ($1, $2, $3)
			RETURNING id, owner_user_id, shared_with_user_id, permission_level, created_at
		)
		SELECT i.id, i.owner_user_id, i.shared_with_user_id, i.permission_level, i.created_at, u.email, u.name
		FROM inserted i JOIN users u ON u.id = i.shared_with_user_id`,
		share.OwnerUserID, share.SharedWithUserID, string(share.PermissionLevel)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrShareExists
		}
		return nil, storageErr("create share", err, nil)
	}
	return created, nil
}

// UpdatePermission changes the level of one of the owner's shares
func (r *ShareRepository) UpdatePermission(ctx context.Context, ownerUserID int32, id int32, level domain.PermissionLevel) (*domain.DataShare, error) {
	updated, err := scanShare(r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE data_shares SET permission_level = $3
			WHERE id = $1 AND owner_user_id = $2
			RETURNING id, owner_user_id, shared_with_user_id, permission_level, created_at
		)
		SELECT s.id, s.owner_user_id, s.shared_with_user_id, s.permission_level, s.created_at, u.email, u.name
		FROM updated s JOIN users u ON u.id = s.shared_with_user_id`,
		id, ownerUserID, string(level)))
	if err != nil {
		return nil, storageErr("update share", err, domain.ErrShareNotFound)
	}
	return updated, nil
}

// Delete revokes one of the owner's shares
func (r *ShareRepository) Delete(ctx context.Context, ownerUserID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM data_shares WHERE id = $1 AND owner_user_id = $2`, id, ownerUserID)
	if err != nil {
		return storageErr("delete share", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrShareNotFound
	}
	return nil
}

// ListByOwner lists the shares an owner granted, with the grantee as counterpart
func (r *ShareRepository) ListByOwner(ctx context.Context, ownerUserID int32) ([]*domain.DataShare, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.owner_user_id, s.shared_with_user_id, s.permission_level, s.created_at, u.email, u.name
		FROM data_shares s JOIN users u ON u.id = s.shared_with_user_id
		WHERE s.owner_user_id = $1
		ORDER BY s.id`, ownerUserID)
	if err != nil {
		return nil, storageErr("list shares by owner", err, nil)
	}
	result, err := collectShares(rows)
	if err != nil {
		return nil, storageErr("list shares by owner", err, nil)
	}
	return result, nil
}

// ListSharedWith lists the shares granted to a user, with the owner as counterpart
func (r *ShareRepository) ListSharedWith(ctx context.Context, sharedWithUserID int32) ([]*domain.DataShare, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.owner_user_id, s.shared_with_user_id, s.permission_level, s.created_at, u.email, u.name
		FROM data_shares s JOIN users u ON u.id = s.owner_user_id
		WHERE s.shared_with_user_id = $1
		ORDER BY s.id`, sharedWithUserID)
	if err != nil {
		return nil, storageErr("list shares with user", err, nil)
	}
	result, err := collectShares(rows)
	if err != nil {
		return nil, storageErr("list shares with user", err, nil)
	}
	return result, nil
}

// GetPermission returns the level owner granted to sharedWith
func (r *ShareRepository) GetPermission(ctx context.Context, ownerUserID, sharedWithUserID int32) (domain.PermissionLevel, error) {
	var level string
	err := r.pool.QueryRow(ctx, `
		SELECT permission_level FROM data_shares
		WHERE owner_user_id = $1 AND shared_with_user_id = $2`,
		ownerUserID, sharedWithUserID).Scan(&level)
	if err != nil {
		return "", storageErr("get share permission", err, domain.ErrShareNotFound)
	}
	return domain.PermissionLevel(level), nil
}
