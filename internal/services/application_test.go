package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/lifecycle"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/types"
)

func submit(t *testing.T, env *testEnv, applicant authz.Actor, founderID int, role string) types.Application {
	t.Helper()
	app, err := env.applications.Submit(context.Background(), applicant, SubmitInput{
		FounderID: founderID,
		Role:      role,
		Message:   "I would love to join.",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return app
}

func TestSubmitSingleActiveApplication(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	first := submit(t, env, student, founder.UserID, "Intern")
	if first.Status != types.StatusPending {
		t.Fatalf("status = %s, want pending", first.Status)
	}

	_, err := env.applications.Submit(ctx, student, SubmitInput{FounderID: founder.UserID, Role: " Intern ", Message: "again"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate Submit error = %v, want ConflictError", err)
	}

	if _, err := env.applications.ChangeStatus(ctx, founder, first.ID, StatusInput{Status: "rejected"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	second := submit(t, env, student, founder.UserID, "Intern")
	if second.ID == first.ID {
		t.Fatalf("resubmission reused id %d", first.ID)
	}

	// A different role is a different triple.
	submit(t, env, student, founder.UserID, "Designer")
}

func TestSubmitRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	admin := env.createUser(t, types.RoleAdmin, "Meera")

	testCases := []struct {
		name  string
		actor authz.Actor
		in    SubmitInput
		check func(error) bool
	}{
		{
			name:  "self application",
			actor: founder,
			in:    SubmitInput{FounderID: founder.UserID, Role: "CTO", Message: "me"},
			check: func(err error) bool { var e *AuthorizationError; return errors.As(err, &e) },
		},
		{
			name:  "admin cannot apply",
			actor: admin,
			in:    SubmitInput{FounderID: founder.UserID, Role: "CTO", Message: "hi"},
			check: func(err error) bool { var e *AuthorizationError; return errors.As(err, &e) },
		},
		{
			name:  "target is not a founder",
			actor: founder,
			in:    SubmitInput{FounderID: student.UserID, Role: "CTO", Message: "hi"},
			check: func(err error) bool { var e *NotFoundError; return errors.As(err, &e) },
		},
		{
			name:  "missing role",
			actor: student,
			in:    SubmitInput{FounderID: founder.UserID, Message: "hi"},
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) && e.Field == "role" },
		},
		{
			name:  "bad portfolio",
			actor: student,
			in:    SubmitInput{FounderID: founder.UserID, Role: "CTO", Message: "hi", Portfolio: "ftp://x"},
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) && e.Field == "portfolio" },
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := env.applications.Submit(ctx, tc.actor, tc.in)
			if !tc.check(err) {
				t.Fatalf("Submit error = %v", err)
			}
		})
	}
}

func TestSubmitNotifiesFounder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	app := submit(t, env, student, founder.UserID, "Intern")

	list, err := env.notifications.List(ctx, founder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Notifications) != 1 || list.Unread != 1 {
		t.Fatalf("notifications = %+v, want one unread", list)
	}
	n := list.Notifications[0]
	if n.Type != types.NotificationNewApplication || n.RelatedID != app.ID || n.RelatedModel != types.EntityApplication {
		t.Fatalf("notification = %+v", n)
	}
}

func TestRevertClearsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	app := submit(t, env, student, founder.UserID, "Intern")

	accepted, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.PreviousStatus == nil || *accepted.PreviousStatus != types.StatusPending {
		t.Fatalf("previousStatus = %v, want pending", accepted.PreviousStatus)
	}
	if accepted.ActionBy == nil || *accepted.ActionBy != founder.UserID {
		t.Fatalf("actionBy = %v, want %d", accepted.ActionBy, founder.UserID)
	}

	reverted, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "pending"})
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != types.StatusPending || reverted.PreviousStatus != nil || !reverted.DecisionReversed || reverted.ReversedAt == nil {
		t.Fatalf("reverted = %+v", reverted)
	}

	list, err := env.notifications.List(ctx, student)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Notifications) != 2 {
		t.Fatalf("applicant notifications = %d, want 2", len(list.Notifications))
	}
	if list.Notifications[0].Title != "Application back under review" {
		t.Fatalf("newest title = %q", list.Notifications[0].Title)
	}
}

func TestAcceptEnqueuesEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	app, err := env.applications.Submit(ctx, student, SubmitInput{
		FounderID: founder.UserID,
		Role:      "Intern",
		Message:   "hello",
		Email:     "ravi.personal@example.com",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted", CustomMessage: "Welcome aboard"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	emails := env.queue.sentEmails()
	if len(emails) != 1 {
		t.Fatalf("emails = %d, want 1", len(emails))
	}
	if emails[0].To != "ravi.personal@example.com" || emails[0].Body != "Welcome aboard" || emails[0].NotificationID == 0 {
		t.Fatalf("email = %+v", emails[0])
	}

	n, err := env.store.Notifications.Get(ctx, emails[0].NotificationID)
	if err != nil {
		t.Fatalf("Get notification: %v", err)
	}
	if n.RecipientID != student.UserID || n.Message != "Welcome aboard" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestEmailFailureDoesNotFailTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.queue.err = errors.New("broker down")
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	app := submit(t, env, student, founder.UserID, "Intern")

	updated, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if updated.Status != types.StatusAccepted {
		t.Fatalf("status = %s, want accepted", updated.Status)
	}
}

func TestTransitionGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	otherFounder := env.createUser(t, types.RoleFounder, "Kiran")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	admin := env.createUser(t, types.RoleAdmin, "Meera")
	app := submit(t, env, student, founder.UserID, "Intern")

	isForbidden := func(err error) bool { var e *AuthorizationError; return errors.As(err, &e) }

	if _, err := env.applications.ChangeStatus(ctx, otherFounder, app.ID, StatusInput{Status: "accepted"}); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("other founder accept error = %v, want NotFoundError", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, student, app.ID, StatusInput{Status: "accepted"}); !isForbidden(err) {
		t.Fatalf("applicant accept error = %v, want AuthorizationError", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, admin, app.ID, StatusInput{Status: "rejected"}); !isForbidden(err) {
		t.Fatalf("admin reject error = %v, want AuthorizationError", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, founder, 999, StatusInput{Status: "accepted"}); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("missing application error = %v, want NotFoundError", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "archived"}); !errors.As(err, new(*ValidationError)) {
		t.Fatalf("unknown status error = %v, want ValidationError", err)
	}

	if _, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "reviewed"}); err != nil {
		t.Fatalf("review: %v", err)
	}
	var invalidErr *lifecycle.InvalidTransitionError
	if _, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"}); !errors.As(err, &invalidErr) {
		t.Fatalf("reviewed -> accepted error = %v, want InvalidTransitionError", err)
	}
	if invalidErr.From != types.StatusReviewed || invalidErr.To != types.StatusAccepted {
		t.Fatalf("invalid transition = %+v", invalidErr)
	}
}

func TestWithdrawIsTerminal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	app := submit(t, env, student, founder.UserID, "Intern")

	if _, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	withdrawn, err := env.applications.Withdraw(ctx, student, app.ID, "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.PreviousStatus == nil || *withdrawn.PreviousStatus != types.StatusAccepted {
		t.Fatalf("previousStatus = %v, want accepted", withdrawn.PreviousStatus)
	}

	for _, status := range types.ApplicationStatuses {
		_, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: string(status)})
		if !errors.As(err, new(*lifecycle.InvalidTransitionError)) {
			t.Fatalf("withdrawn -> %s error = %v, want InvalidTransitionError", status, err)
		}
	}
	if _, err := env.applications.Withdraw(ctx, student, app.ID, ""); !errors.As(err, new(*lifecycle.InvalidTransitionError)) {
		t.Fatalf("second Withdraw error = %v, want InvalidTransitionError", err)
	}

	list, err := env.notifications.List(ctx, founder)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Notifications[0].Title != "Application withdrawn" {
		t.Fatalf("founder newest notification = %+v", list.Notifications[0])
	}
}

func TestListForFounderCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	other := env.createUser(t, types.RoleStudent, "Outsider")
	admin := env.createUser(t, types.RoleAdmin, "Meera")

	targets := []types.ApplicationStatus{
		types.StatusPending, types.StatusReviewed, types.StatusAccepted,
		types.StatusRejected, types.StatusWithdrawn, types.StatusAccepted,
	}
	for i, target := range targets {
		student := env.createUser(t, types.RoleStudent, "Student")
		app := submit(t, env, student, founder.UserID, "Intern")
		if target == types.StatusPending {
			continue
		}
		var err error
		if target == types.StatusWithdrawn {
			_, err = env.applications.Withdraw(ctx, student, app.ID, "")
		} else {
			_, err = env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: string(target)})
		}
		if err != nil {
			t.Fatalf("application %d -> %s: %v", i, target, err)
		}
	}

	list, err := env.applications.ListForFounder(ctx, founder, founder.UserID, "accepted")
	if err != nil {
		t.Fatalf("ListForFounder: %v", err)
	}
	if len(list.Applications) != 2 {
		t.Fatalf("accepted applications = %d, want 2", len(list.Applications))
	}
	c := list.Counts
	want := types.StatusCounts{Pending: 1, Reviewed: 1, Accepted: 2, Rejected: 1, Withdrawn: 1, All: 6}
	if c != want {
		t.Fatalf("counts = %+v, want %+v", c, want)
	}
	if c.Pending+c.Reviewed+c.Accepted+c.Rejected+c.Withdrawn != c.All {
		t.Fatalf("counts do not sum to all: %+v", c)
	}
	if list.Applications[0].StartupName != "Asha Labs" || list.Applications[0].Applicant == nil {
		t.Fatalf("view = %+v", list.Applications[0])
	}

	all, err := env.applications.ListForFounder(ctx, admin, founder.UserID, "all")
	if err != nil {
		t.Fatalf("admin ListForFounder: %v", err)
	}
	if len(all.Applications) != 6 {
		t.Fatalf("all applications = %d, want 6", len(all.Applications))
	}
	if _, err := env.applications.ListForFounder(ctx, other, founder.UserID, ""); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("outsider ListForFounder error = %v, want AuthorizationError", err)
	}
}

func TestRespondNotifiesOtherParty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	outsider := env.createUser(t, types.RoleStudent, "Dev")
	app := submit(t, env, student, founder.UserID, "Intern")

	updated, err := env.applications.Respond(ctx, founder, app.ID, "Can you start in June?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(updated.Responses) != 1 || updated.Responses[0].Sender != types.SenderFounder {
		t.Fatalf("responses = %+v", updated.Responses)
	}
	list, err := env.notifications.List(ctx, student)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Notifications) != 1 || list.Notifications[0].Type != types.NotificationMessage {
		t.Fatalf("student notifications = %+v", list.Notifications)
	}
	if _, err := env.applications.Respond(ctx, outsider, app.ID, "hi"); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("outsider Respond error = %v, want NotFoundError", err)
	}
}

func TestUnrelatedCallerSeesMissingApplication(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	outsider := env.createUser(t, types.RoleStudent, "Dev")
	admin := env.createUser(t, types.RoleAdmin, "Meera")
	app := submit(t, env, student, founder.UserID, "Intern")
	const missingID = 9999

	testCases := []struct {
		name string
		call func(id int) error
	}{
		{name: "get", call: func(id int) error { _, err := env.applications.Get(ctx, outsider, id); return err }},
		{name: "respond", call: func(id int) error { _, err := env.applications.Respond(ctx, outsider, id, "hi"); return err }},
		{name: "withdraw", call: func(id int) error { _, err := env.applications.Withdraw(ctx, outsider, id, ""); return err }},
		{name: "change status", call: func(id int) error {
			_, err := env.applications.ChangeStatus(ctx, outsider, id, StatusInput{Status: "accepted"})
			return err
		}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			existing, missing := tc.call(app.ID), tc.call(missingID)
			var existingNF, missingNF *NotFoundError
			if !errors.As(existing, &existingNF) || !errors.As(missing, &missingNF) {
				t.Fatalf("errors = %v / %v, want NotFoundError for both", existing, missing)
			}
			if existing.Error() != missing.Error() {
				t.Fatalf("existing id error %q differs from missing id error %q", existing, missing)
			}
		})
	}

	if _, err := env.applications.Get(ctx, admin, app.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if _, err := env.applications.ChangeStatus(ctx, admin, app.ID, StatusInput{Status: "rejected"}); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("admin reject error = %v, want AuthorizationError", err)
	}
}

// racingApplications withdraws the application behind the caller's back
// right before the first conditional update.
type racingApplications struct {
	ApplicationRepository
	once     sync.Once
	withdraw func()
}

func (r *racingApplications) UpdateStatus(ctx context.Context, app types.Application, expected types.ApplicationStatus) (types.Application, error) {
	r.once.Do(r.withdraw)
	return r.ApplicationRepository.UpdateStatus(ctx, app, expected)
}

func TestChangeStatusRevalidatesAfterLostRace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	app := submit(t, env, student, founder.UserID, "Intern")

	racing := &racingApplications{ApplicationRepository: env.store.Applications}
	racing.withdraw = func() {
		if _, err := env.applications.Withdraw(ctx, student, app.ID, ""); err != nil {
			t.Errorf("concurrent Withdraw: %v", err)
		}
	}
	engine := NewApplicationService(racing, env.store.Users, env.store.Notifications, nil, env.queue, logger.Nop())

	_, err := engine.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"})
	var invalidErr *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalidErr) || invalidErr.From != types.StatusWithdrawn {
		t.Fatalf("ChangeStatus error = %v, want InvalidTransitionError from withdrawn", err)
	}

	stored, err := env.store.Applications.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != types.StatusWithdrawn || len(stored.Events) != 1 {
		t.Fatalf("stored = %s with %d events, want withdrawn with 1", stored.Status, len(stored.Events))
	}
}

func TestConcurrentInterleavedTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	app := submit(t, env, student, founder.UserID, "Intern")

	const perSide = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepts   int
		withdraws int
	)
	for i := 0; i < perSide; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.applications.ChangeStatus(ctx, founder, app.ID, StatusInput{Status: "accepted"})
			if err == nil {
				mu.Lock()
				accepts++
				mu.Unlock()
				return
			}
			if !errors.As(err, new(*lifecycle.InvalidTransitionError)) {
				t.Errorf("accept error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := env.applications.Withdraw(ctx, student, app.ID, "")
			if err == nil {
				mu.Lock()
				withdraws++
				mu.Unlock()
				return
			}
			if !errors.As(err, new(*lifecycle.InvalidTransitionError)) {
				t.Errorf("withdraw error = %v", err)
			}
		}()
	}
	wg.Wait()

	if withdraws != 1 {
		t.Fatalf("successful withdraws = %d, want 1", withdraws)
	}
	if accepts > 1 {
		t.Fatalf("successful accepts = %d, want at most 1", accepts)
	}

	stored, err := env.store.Applications.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != types.StatusWithdrawn {
		t.Fatalf("final status = %s, want withdrawn", stored.Status)
	}
	if len(stored.Events) != accepts+withdraws {
		t.Fatalf("events = %d, want %d", len(stored.Events), accepts+withdraws)
	}
	from := types.StatusPending
	for i, ev := range stored.Events {
		if ev.From != from || !lifecycle.Allowed(ev.From, ev.To) {
			t.Fatalf("event %d = %s -> %s, history broken at %s", i, ev.From, ev.To, from)
		}
		from = ev.To
	}
}
