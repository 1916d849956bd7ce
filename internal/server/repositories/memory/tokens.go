package memory

import (
	"context"
	"sync"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
)

type TokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]models.Token
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]models.Token)}
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *TokenRepository) FindByUserAndKind(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.Token
	for _, t := range r.tokens {
		if t.UserID != userID || t.Kind != kind {
			continue
		}
		if found == nil || t.ExpiresAt.After(found.ExpiresAt) {
			cp := t
			found = &cp
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *TokenRepository) Save(ctx context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = *token
	return nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token.Token)
	return nil
}

// Len reports how many tokens are stored.
func (r *TokenRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
