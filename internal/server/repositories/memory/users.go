// Package memory holds mutex-guarded in-memory stores used for the
// "memory" storage backend and in tests. Records are copied in and out so
// callers never share state with the store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
)

type UserRepository struct {
	mu          sync.RWMutex
	byEmail     map[string]*models.User
	documents   map[string][]*models.Document
	collections map[string][]*models.Collection
	now         func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail:     make(map[string]*models.User),
		documents:   make(map[string][]*models.Document),
		collections: make(map[string][]*models.Collection),
		now:         time.Now,
	}
}

func (r *UserRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byEmail[email]; ok {
		return 1, nil
	}
	return 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.LastAccess = now
	user.CreatedAt = now

	u := *user
	r.byEmail[u.Email] = &u

	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) UpdatePasswordByEmail(ctx context.Context, email string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *UserRepository) UpdateLastAccessByEmail(ctx context.Context, email string, at time.Time, elapsedSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastAccess = at
	u.TotalReadingSeconds += elapsedSeconds
	return nil
}

func (r *UserRepository) GetLibrary(ctx context.Context, userID string) (*models.Library, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lib := &models.Library{Documents: []*models.Document{}, Collections: []*models.Collection{}}
	for _, d := range r.documents[userID] {
		cp := *d
		lib.Documents = append(lib.Documents, &cp)
	}
	for _, c := range r.collections[userID] {
		cp := *c
		lib.Collections = append(lib.Collections, &cp)
	}
	return lib, nil
}

// AddDocument attaches a document to the user's library.
func (r *UserRepository) AddDocument(userID string, doc *models.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *doc
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.documents[userID] = append(r.documents[userID], &cp)
}

// AddCollection attaches a collection to the user's library.
func (r *UserRepository) AddCollection(userID string, c *models.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.collections[userID] = append(r.collections[userID], &cp)
}

// SetLastReadingDocument records the document the user is currently reading.
func (r *UserRepository) SetLastReadingDocument(email, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	id := documentID
	u.LastReadingDocumentID = &id
	return nil
}
