package service

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// AuthService maps authenticated Auth0 identities to local users
type AuthService struct {
	userRepo domain.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// AuthenticateUser returns the local user for auth0ID, creating it on first login
func (s *AuthService) AuthenticateUser(ctx context.Context, auth0ID, email string, name *string) (*domain.User, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(ctx, auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}
	return user, nil
}

// ResolveUser implements middleware.UserProvider
func (s *AuthService) ResolveUser(ctx context.Context, auth0ID, email string, name *string) (int32, error) {
	user, err := s.AuthenticateUser(ctx, auth0ID, email, name)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// UserIDByAuth0ID implements websocket.UserLookup. It never creates users.
func (s *AuthService) UserIDByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	user, err := s.userRepo.GetByAuth0ID(ctx, auth0ID)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
