package domain

import (
	"context"
	"time"
)

type PermissionLevel string

const (
	PermissionReadOnly  PermissionLevel = "read_only"
	PermissionReadWrite PermissionLevel = "read_write"
)

// IsValid reports whether p is a known permission level
func (p PermissionLevel) IsValid() bool {
	return p == PermissionReadOnly || p == PermissionReadWrite
}

// DataShare grants another user access to the owner's data
type DataShare struct {
	ID               int32           `json:"id"`
	OwnerUserID      int32           `json:"ownerUserId"`
	SharedWithUserID int32           `json:"sharedWithUserId"`
	PermissionLevel  PermissionLevel `json:"permissionLevel"`
	// Counterpart fields are filled from the other side of the share when listing
	CounterpartEmail string    `json:"counterpartEmail,omitempty"`
	CounterpartName  *string   `json:"counterpartName,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ShareRepository interface {
	Create(ctx context.Context, share *DataShare) (*DataShare, error)
	UpdatePermission(ctx context.Context, ownerUserID int32, id int32, level PermissionLevel) (*DataShare, error)
	Delete(ctx context.Context, ownerUserID int32, id int32) error
	ListByOwner(ctx context.Context, ownerUserID int32) ([]*DataShare, error)
	ListSharedWith(ctx context.Context, sharedWithUserID int32) ([]*DataShare, error)
	// GetPermission returns ErrShareNotFound when no share exists for the pair
	GetPermission(ctx context.Context, ownerUserID, sharedWithUserID int32) (PermissionLevel, error)
}
