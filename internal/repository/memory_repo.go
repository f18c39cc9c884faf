package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"usermgr/internal/models"
	"usermgr/internal/services"
)

// MemoryUserRepository keeps users in a map. Used with STORE=memory and in tests.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	nextID int64
	now    func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]models.User),
		now:   time.Now,
	}
}

// FindAll returns users ordered by id.
func (r *MemoryUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id int64) (*models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (r *MemoryUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	if stored.IsNew() {
		r.nextID++
		stored.ID = r.nextID
	} else if _, ok := r.users[stored.ID]; !ok {
		return nil, &services.NotFoundError{ID: stored.ID}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}
	r.users[stored.ID] = stored

	out := stored
	return &out, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return &services.NotFoundError{ID: user.ID}
	}
	delete(r.users, user.ID)
	return nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
