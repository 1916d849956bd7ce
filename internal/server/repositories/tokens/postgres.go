package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/dbx"
	"github.com/readease/readease/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Token, error) {
	query := `
		SELECT token, user_id, kind, expires_at
		FROM tokens
		WHERE token = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) FindByUserAndKind(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	query := `
		SELECT token, user_id, kind, expires_at
		FROM tokens
		WHERE user_id = $1 AND kind = $2
		ORDER BY expires_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, kind.String()))
}

func (r *PostgresRepository) Save(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (token, user_id, kind, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.Kind.String(), token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token *models.Token) error {
	query := `
		DELETE FROM tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token.Token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	var kind string
	if err := row.Scan(&t.Token, &t.UserID, &kind, &t.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	k, err := models.ParseTokenKind(kind)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Kind = k

	return t, nil
}
