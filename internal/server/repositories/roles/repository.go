// Package roles provides read access to the role catalogue.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/dbx"
	"github.com/readease/readease/internal/server/models"
)

type Repository interface {
	// FindByID returns common.ErrorNotFound when no role has the given ID.
	FindByID(ctx context.Context, id int) (*models.Role, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int) (*models.Role, error) {
	query :=
		`SELECT id, name FROM roles
		 WHERE id = $1
		 `

	role := &models.Role{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}
