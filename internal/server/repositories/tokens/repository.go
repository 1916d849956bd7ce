// Package tokens declares the token store contract and its PostgreSQL and
// Redis implementations.
package tokens

import (
	"context"

	"github.com/readease/readease/internal/server/models"
)

// Repository persists issued tokens keyed by the encoded token string.
type Repository interface {
	// FindByToken returns common.ErrorNotFound when the token is unknown.
	FindByToken(ctx context.Context, token string) (*models.Token, error)

	// FindByUserAndKind returns a token of kind owned by userID, or
	// common.ErrorNotFound.
	FindByUserAndKind(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error)

	// Save inserts a token. No update in place.
	Save(ctx context.Context, token *models.Token) error

	// DeleteByUser removes every token owned by userID, whatever its kind.
	DeleteByUser(ctx context.Context, userID string) error

	// Delete removes a single token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token *models.Token) error
}
