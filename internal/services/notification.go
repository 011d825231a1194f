package services

import (
	"context"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/types"
)

// NotificationList is a user's notifications with the number still unread.
type NotificationList struct {
	Notifications []types.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

// NotificationService exposes the notification read model to its recipients.
type NotificationService struct {
	repo NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context, actor authz.Actor) (NotificationList, error) {
	items, err := s.repo.ListByRecipient(ctx, actor.UserID)
	if err != nil {
		return NotificationList{}, err
	}
	unread, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return NotificationList{}, err
	}
	return NotificationList{Notifications: items, Unread: unread}, nil
}

// MarkRead marks one of the actor's notifications read. Repeating it is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, actor authz.Actor, id int) (types.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Notification{}, notFound(err, "notification")
	}
	res := authz.Resource{Kind: authz.KindNotification, OwnerID: n.RecipientID}
	if !authz.Allowed(actor, authz.ActionEdit, res) {
		return types.Notification{}, forbidden("you can only mark your own notifications read")
	}
	if n.Read {
		return n, nil
	}
	n, err = s.repo.MarkRead(ctx, id, s.now())
	if err != nil {
		return types.Notification{}, notFound(err, "notification")
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the actor and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor authz.Actor) (int, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID, s.now())
}
