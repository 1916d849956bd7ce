// Package users declares the user store contract and its PostgreSQL
// implementation.
package users

import (
	"context"
	"time"

	"github.com/readease/readease/internal/server/models"
)

// Repository is the user store used by the auth service. Lookups of absent
// users return common.ErrorNotFound.
type Repository interface {
	// CountByEmail returns how many users are registered with email (0 or 1).
	CountByEmail(ctx context.Context, email string) (int64, error)

	// Create inserts user and returns it with store-assigned fields filled in.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	UpdatePasswordByEmail(ctx context.Context, email string, passwordHash string) error

	// UpdateLastAccessByEmail stamps last access with at and adds elapsed
	// seconds to the user's total reading time.
	UpdateLastAccessByEmail(ctx context.Context, email string, at time.Time, elapsedSeconds int64) error

	// GetLibrary returns the user's documents and collections.
	GetLibrary(ctx context.Context, userID string) (*models.Library, error)
}
