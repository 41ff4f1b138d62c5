package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when JWT validation fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownUser is returned when the token subject has no local user
	ErrUnknownUser = errors.New("unknown user")
)

// TokenValidator resolves a bearer token to a local user id
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID int32, err error)
}

// UserLookup resolves an Auth0 subject to a local user id
type UserLookup interface {
	UserIDByAuth0ID(ctx context.Context, auth0ID string) (int32, error)
}

type emptyClaims struct{}

func (emptyClaims) Validate(context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections,
// where the browser cannot send an Authorization header
type Auth0JWTValidator struct {
	validator *validator.Validator
	users     UserLookup
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, users UserLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return emptyClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{validator: jwtValidator, users: users}, nil
}

// ValidateToken validates token and returns the id of the user it belongs to
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, err := v.users.UserIDByAuth0ID(ctx, validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrUnknownUser
	}
	return userID, nil
}
