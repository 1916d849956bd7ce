package repomanager

import (
	"context"

	"github.com/readease/readease/internal/server/repositories/memory"
	"github.com/readease/readease/internal/server/repositories/roles"
	"github.com/readease/readease/internal/server/repositories/tokens"
	"github.com/readease/readease/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on restart.
type MemoryRepositoryManager struct {
	users  *memory.UserRepository
	roles  *memory.RoleRepository
	tokens *memory.TokenRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  memory.NewUserRepository(),
		roles:  memory.NewRoleRepository(),
		tokens: memory.NewTokenRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository   { return m.users }
func (m *MemoryRepositoryManager) Roles() roles.Repository   { return m.roles }
func (m *MemoryRepositoryManager) Tokens() tokens.Repository { return m.tokens }

// RunMigrations is a no-op; the in-memory stores come pre-seeded.
func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
