package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// NewAccessCache creates the cache holding accessible user ids per viewer
func NewAccessCache() (*ristretto.Cache, error) {
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
}

func accessCacheKey(userID int32) string {
	return fmt.Sprintf("accessible:%d", userID)
}

// ShareService manages data shares and answers access questions for other services
type ShareService struct {
	shareRepo domain.ShareRepository
	userRepo  domain.UserRepository
	cache     *ristretto.Cache
}

// NewShareService creates a new ShareService. A nil cache disables caching.
func NewShareService(shareRepo domain.ShareRepository, userRepo domain.UserRepository, cache *ristretto.Cache) *ShareService {
	return &ShareService{
		shareRepo: shareRepo,
		userRepo:  userRepo,
		cache:     cache,
	}
}

// CreateShare grants the user with email access to the owner's data
func (s *ShareService) CreateShare(ctx context.Context, ownerID int32, email string, level domain.PermissionLevel) (*domain.DataShare, error) {
	if !level.IsValid() {
		return nil, domain.ErrInvalidPermission
	}

	grantee, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if grantee.ID == ownerID {
		return nil, domain.ErrShareWithSelf
	}

	share, err := s.shareRepo.Create(ctx, &domain.DataShare{
		OwnerUserID:      ownerID,
		SharedWithUserID: grantee.ID,
		PermissionLevel:  level,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(grantee.ID)
	share.CounterpartEmail = grantee.Email
	share.CounterpartName = grantee.Name
	return share, nil
}

// UpdatePermission changes the level of one of the owner's shares
func (s *ShareService) UpdatePermission(ctx context.Context, ownerID, shareID int32, level domain.PermissionLevel) (*domain.DataShare, error) {
	if !level.IsValid() {
		return nil, domain.ErrInvalidPermission
	}
	share, err := s.shareRepo.UpdatePermission(ctx, ownerID, shareID, level)
	if err != nil {
		return nil, err
	}
	s.invalidate(share.SharedWithUserID)
	return share, nil
}

// DeleteShare revokes one of the owner's shares
func (s *ShareService) DeleteShare(ctx context.Context, ownerID, shareID int32) error {
	shares, err := s.shareRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.shareRepo.Delete(ctx, ownerID, shareID); err != nil {
		return err
	}
	for _, share := range shares {
		if share.ID == shareID {
			s.invalidate(share.SharedWithUserID)
		}
	}
	return nil
}

// ListShares returns the shares the owner granted
func (s *ShareService) ListShares(ctx context.Context, ownerID int32) ([]*domain.DataShare, error) {
	return s.shareRepo.ListByOwner(ctx, ownerID)
}

// ListSharedWithMe returns the shares other users granted to userID
func (s *ShareService) ListSharedWithMe(ctx context.Context, userID int32) ([]*domain.DataShare, error) {
	return s.shareRepo.ListSharedWith(ctx, userID)
}

// AccessibleUserIDs returns userID plus every owner who shared data with
// userID, sorted. On storage failure it falls back to userID alone.
func (s *ShareService) AccessibleUserIDs(ctx context.Context, userID int32) []int32 {
	if s.cache != nil {
		if cached, ok := s.cache.Get(accessCacheKey(userID)); ok {
			if ids, ok := cached.([]int32); ok {
				return append([]int32(nil), ids...)
			}
		}
	}

	shares, err := s.shareRepo.ListSharedWith(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int32("user_id", userID).Msg("Failed to resolve shared owners")
		return []int32{userID}
	}

	seen := map[int32]bool{userID: true}
	ids := []int32{userID}
	for _, share := range shares {
		if !seen[share.OwnerUserID] {
			seen[share.OwnerUserID] = true
			ids = append(ids, share.OwnerUserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if s.cache != nil {
		s.cache.Set(accessCacheKey(userID), append([]int32(nil), ids...), 1)
	}
	return ids
}

// CanRead reports whether actorID may read ownerID's data
func (s *ShareService) CanRead(ctx context.Context, ownerID, actorID int32) bool {
	for _, id := range s.AccessibleUserIDs(ctx, actorID) {
		if id == ownerID {
			return true
		}
	}
	return false
}

// HasWritePermission reports whether actorID may modify ownerID's data.
// Storage failures deny.
func (s *ShareService) HasWritePermission(ctx context.Context, ownerID, actorID int32) bool {
	if ownerID == actorID {
		return true
	}
	level, err := s.shareRepo.GetPermission(ctx, ownerID, actorID)
	if err != nil {
		if !errors.Is(err, domain.ErrShareNotFound) {
			log.Error().Err(err).Int32("owner_id", ownerID).Int32("user_id", actorID).Msg("Failed to check write permission")
		}
		return false
	}
	return level == domain.PermissionReadWrite
}

// ResolveUserIDs returns the user ids a request by viewerID covers: the one
// requested user when given (ErrForbidden if not accessible), otherwise every accessible id
func (s *ShareService) ResolveUserIDs(ctx context.Context, viewerID int32, requested *int32) ([]int32, error) {
	if requested == nil {
		return s.AccessibleUserIDs(ctx, viewerID), nil
	}
	if !s.CanRead(ctx, *requested, viewerID) {
		return nil, domain.ErrForbidden
	}
	return []int32{*requested}, nil
}

func (s *ShareService) invalidate(userID int32) {
	if s.cache != nil {
		s.cache.Del(accessCacheKey(userID))
	}
}
