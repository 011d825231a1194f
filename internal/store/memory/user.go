package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]types.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int]types.User)}
}

func cloneUser(u types.User) types.User {
	u.LastLoginAt = timePtr(u.LastLoginAt)
	return u
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) GetByInstitutionalID(_ context.Context, institutionalID string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.InstitutionalID == institutionalID {
			return cloneUser(u), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) || u.InstitutionalID == user.InstitutionalID {
			return types.User{}, store.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	stored.Name = user.Name
	stored.Branch = user.Branch
	stored.Year = user.Year
	stored.StartupName = user.StartupName
	stored.Designation = user.Designation
	stored.UpdatedAt = now()
	r.users[user.ID] = stored
	return cloneUser(stored), nil
}

func (r *UserRepository) update(id int, fn func(*types.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&stored)
	r.users[id] = stored
	return nil
}

func (r *UserRepository) SetActive(_ context.Context, id int, active bool) error {
	return r.update(id, func(u *types.User) {
		u.Active = active
		u.UpdatedAt = now()
	})
}

func (r *UserRepository) SetProfileComplete(_ context.Context, id int, complete bool) error {
	return r.update(id, func(u *types.User) {
		u.ProfileComplete = complete
		u.UpdatedAt = now()
	})
}

func (r *UserRepository) SetLastLogin(_ context.Context, id int, at time.Time) error {
	return r.update(id, func(u *types.User) {
		v := at.UTC()
		u.LastLoginAt = &v
	})
}
