// Package repomanager vends the repositories of a storage backend and
// prepares the backend's schema.
package repomanager

import (
	"context"

	"github.com/readease/readease/internal/server/repositories/roles"
	"github.com/readease/readease/internal/server/repositories/tokens"
	"github.com/readease/readease/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Roles() roles.Repository
	Tokens() tokens.Repository
	Close() error
}
