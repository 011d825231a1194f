package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type ApplicationRepository struct {
	mu     sync.RWMutex
	nextID int
	apps   map[int]types.Application
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{apps: make(map[int]types.Application)}
}

func cloneApplication(a types.Application) types.Application {
	if a.PreviousStatus != nil {
		prev := *a.PreviousStatus
		a.PreviousStatus = &prev
	}
	if a.ActionBy != nil {
		id := *a.ActionBy
		a.ActionBy = &id
	}
	a.ReversedAt = timePtr(a.ReversedAt)
	a.ActionDate = timePtr(a.ActionDate)
	a.Responses = cloneList(a.Responses)
	a.Events = cloneList(a.Events)
	return a
}

func (r *ApplicationRepository) Get(_ context.Context, id int) (types.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	return cloneApplication(a), nil
}

// activeFor returns the id of the active application for the triple, or 0.
// The caller must hold r.mu.
func (r *ApplicationRepository) activeFor(studentID, founderID int, role string, except int) int {
	for id, a := range r.apps {
		if id == except {
			continue
		}
		if a.StudentID == studentID && a.FounderID == founderID && a.Role == role && a.Status.Active() {
			return id
		}
	}
	return 0
}

func (r *ApplicationRepository) FindActive(_ context.Context, studentID, founderID int, role string) (types.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := r.activeFor(studentID, founderID, role, 0)
	if id == 0 {
		return types.Application{}, store.ErrNotFound
	}
	return cloneApplication(r.apps[id]), nil
}

func (r *ApplicationRepository) ListByFounder(_ context.Context, founderID int, status types.ApplicationStatus) ([]types.Application, error) {
	return r.filter(func(a types.Application) bool {
		return a.FounderID == founderID && (status == "" || a.Status == status)
	}), nil
}

func (r *ApplicationRepository) ListByStudent(_ context.Context, studentID int) ([]types.Application, error) {
	return r.filter(func(a types.Application) bool { return a.StudentID == studentID }), nil
}

func (r *ApplicationRepository) filter(keep func(types.Application) bool) []types.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Application, 0)
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, cloneApplication(a))
		}
	}
	slices.SortFunc(out, func(a, b types.Application) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}

func (r *ApplicationRepository) CountByFounder(_ context.Context, founderID int) (types.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var counts types.StatusCounts
	for _, a := range r.apps {
		if a.FounderID == founderID {
			counts.Add(a.Status, 1)
		}
	}
	return counts, nil
}

func (r *ApplicationRepository) Create(_ context.Context, app types.Application) (types.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app.Status.Active() && r.activeFor(app.StudentID, app.FounderID, app.Role, 0) != 0 {
		return types.Application{}, store.ErrDuplicate
	}
	r.nextID++
	app.ID = r.nextID
	app.CreatedAt = now()
	app.UpdatedAt = app.CreatedAt
	app = cloneApplication(app)
	r.apps[app.ID] = app
	return cloneApplication(app), nil
}

func (r *ApplicationRepository) UpdateStatus(_ context.Context, app types.Application, expected types.ApplicationStatus) (types.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	if stored.Status != expected {
		return types.Application{}, store.ErrStaleStatus
	}
	if app.Status.Active() && !stored.Status.Active() &&
		r.activeFor(stored.StudentID, stored.FounderID, stored.Role, stored.ID) != 0 {
		return types.Application{}, store.ErrDuplicate
	}

	stored.Status = app.Status
	stored.PreviousStatus = app.PreviousStatus
	stored.DecisionReversed = app.DecisionReversed
	stored.ReversedAt = app.ReversedAt
	stored.ActionBy = app.ActionBy
	stored.ActionDate = app.ActionDate
	stored.Events = app.Events
	stored.UpdatedAt = app.UpdatedAt
	stored = cloneApplication(stored)
	r.apps[stored.ID] = stored
	return cloneApplication(stored), nil
}

func (r *ApplicationRepository) AppendResponse(_ context.Context, id int, resp types.ApplicationResponse) (types.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	stored = cloneApplication(stored)
	stored.Responses = append(stored.Responses, resp)
	stored.UpdatedAt = resp.Timestamp
	r.apps[id] = stored
	return cloneApplication(stored), nil
}
