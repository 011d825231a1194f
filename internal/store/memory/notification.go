package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type NotificationRepository struct {
	mu            sync.RWMutex
	nextID        int
	notifications map[int]types.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[int]types.Notification)}
}

func cloneNotification(n types.Notification) types.Notification {
	n.ReadAt = timePtr(n.ReadAt)
	n.EmailSentAt = timePtr(n.EmailSentAt)
	return n
}

func (r *NotificationRepository) Create(_ context.Context, n types.Notification) (types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = now()
	r.notifications[n.ID] = cloneNotification(n)
	return cloneNotification(n), nil
}

func (r *NotificationRepository) Get(_ context.Context, id int) (types.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[id]
	if !ok {
		return types.Notification{}, store.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r *NotificationRepository) ListByRecipient(_ context.Context, recipientID int) ([]types.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Notification, 0)
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, cloneNotification(n))
		}
	}
	slices.SortFunc(out, func(a, b types.Notification) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipientID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id int, at time.Time) (types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return types.Notification{}, store.ErrNotFound
	}
	n.Read = true
	if n.ReadAt == nil {
		v := at.UTC()
		n.ReadAt = &v
	}
	r.notifications[id] = n
	return cloneNotification(n), nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, recipientID int, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for id, n := range r.notifications {
		if n.RecipientID != recipientID || n.Read {
			continue
		}
		v := at.UTC()
		n.Read = true
		n.ReadAt = &v
		r.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (r *NotificationRepository) MarkEmailSent(_ context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	v := at.UTC()
	n.EmailSent = true
	n.EmailSentAt = &v
	r.notifications[id] = n
	return nil
}
