package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type FounderProfileRepository struct {
	mu       sync.RWMutex
	profiles map[int]types.FounderProfile
}

func NewFounderProfileRepository() *FounderProfileRepository {
	return &FounderProfileRepository{profiles: make(map[int]types.FounderProfile)}
}

func cloneProfile(p types.FounderProfile) types.FounderProfile {
	p.Skills = cloneList(p.Skills)
	p.Interests = cloneList(p.Interests)
	p.LookingFor = cloneList(p.LookingFor)
	return p
}

func (r *FounderProfileRepository) Get(_ context.Context, userID int) (types.FounderProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return types.FounderProfile{}, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *FounderProfileRepository) List(_ context.Context) ([]types.FounderProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.FounderProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, cloneProfile(p))
	}
	slices.SortFunc(out, func(a, b types.FounderProfile) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.UserID, b.UserID)
	})
	return out, nil
}

func (r *FounderProfileRepository) Upsert(_ context.Context, profile types.FounderProfile) (types.FounderProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := now()
	profile.CreatedAt = ts
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	}
	profile.UpdatedAt = ts
	profile = cloneProfile(profile)
	r.profiles[profile.UserID] = profile
	return cloneProfile(profile), nil
}
