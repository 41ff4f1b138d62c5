package domain

import (
	"context"
	"time"
)

const DefaultCurrency = "USD"

// User represents a user in the system
type User struct {
	ID              int32     `json:"id"`
	Auth0ID         string    `json:"auth0Id"`
	Email           string    `json:"email"`
	Name            *string   `json:"name"`
	Currency        string    `json:"currency"`
	DarkModeEnabled bool      `json:"darkModeEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserPreferences holds display preferences; they never affect calculations
type UserPreferences struct {
	Currency        string `json:"currency"`
	DarkModeEnabled bool   `json:"darkModeEnabled"`
}

// DefaultPreferences are used when a user's preferences cannot be loaded
func DefaultPreferences() UserPreferences {
	return UserPreferences{Currency: DefaultCurrency}
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*User, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name *string) (*User, error)
	UpdatePreferences(ctx context.Context, id int32, prefs UserPreferences) (*User, error)
	// ListAllIDs returns every user id, used by the background materializer
	ListAllIDs(ctx context.Context) ([]int32, error)
}
