package services

import (
	"context"
	"errors"
	"testing"

	"github.com/startup-vidyapith/apiserver/types"
)

func TestMarkReadIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	submit(t, env, student, founder.UserID, "Intern")
	submit(t, env, student, founder.UserID, "Designer")

	list, err := env.notifications.List(ctx, founder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	id := list.Notifications[0].ID

	if _, err := env.notifications.MarkRead(ctx, student, id); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("MarkRead by other user error = %v, want AuthorizationError", err)
	}

	first, err := env.notifications.MarkRead(ctx, founder, id)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	second, err := env.notifications.MarkRead(ctx, founder, id)
	if err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if !first.Read || !second.Read || first.ReadAt == nil || !first.ReadAt.Equal(*second.ReadAt) {
		t.Fatalf("first = %+v, second = %+v", first, second)
	}

	after, err := env.notifications.List(ctx, founder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if after.Unread != 1 || len(after.Notifications) != 2 {
		t.Fatalf("after MarkRead = %+v, want 1 unread of 2", after)
	}

	changed, err := env.notifications.MarkAllRead(ctx, founder)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if changed != 1 {
		t.Fatalf("MarkAllRead changed %d, want 1", changed)
	}
	if _, err := env.notifications.MarkRead(ctx, founder, 999); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("MarkRead missing error = %v, want NotFoundError", err)
	}
}
