package memory

import (
	"context"
	"sync"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
)

type RoleRepository struct {
	mu    sync.RWMutex
	roles map[int]models.Role
}

// NewRoleRepository returns a store seeded with the same roles the SQL
// migrations create.
func NewRoleRepository() *RoleRepository {
	return &RoleRepository{roles: map[int]models.Role{
		1: {ID: 1, Name: "USER"},
		2: {ID: 2, Name: "ADMIN"},
	}}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &role, nil
}

// Put adds or replaces a role.
func (r *RoleRepository) Put(role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.ID] = role
}

// Remove deletes a role; used to simulate a missing default role.
func (r *RoleRepository) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles, id)
}
