package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/jobs"
	"github.com/startup-vidyapith/apiserver/internal/lifecycle"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/storage"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

// maxStatusAttempts bounds how often a status change is re-read and
// re-validated after losing a compare-and-set race.
const maxStatusAttempts = 3

// SubmitInput carries a new application. Resume may be a URL, a data URL or
// raw base64.
type SubmitInput struct {
	FounderID  int
	Role       string
	Message    string
	Experience string
	Skills     string
	Email      string
	Phone      string
	Resume     string
	Portfolio  string
}

// StatusInput carries a founder's status change. CustomMessage replaces the
// templated notification text when set.
type StatusInput struct {
	Status        string
	CustomMessage string
}

// ApplicationService is the application lifecycle engine.
type ApplicationService struct {
	apps          ApplicationRepository
	users         UserRepository
	notifications NotificationRepository
	assets        AssetResolver
	jobs          JobQueue
	log           *logger.Logger
	now           func() time.Time
}

func NewApplicationService(
	apps ApplicationRepository,
	users UserRepository,
	notifications NotificationRepository,
	assets AssetResolver,
	jobs JobQueue,
	log *logger.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:          apps,
		users:         users,
		notifications: notifications,
		assets:        assets,
		jobs:          jobs,
		log:           log.With("service", "ApplicationService"),
		now:           time.Now,
	}
}

// Submit creates a pending application from the actor to a founder. At most
// one active application may exist per applicant, founder and role.
func (s *ApplicationService) Submit(ctx context.Context, actor authz.Actor, in SubmitInput) (types.Application, error) {
	role := strings.TrimSpace(in.Role)
	message := strings.TrimSpace(in.Message)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	portfolio := strings.TrimSpace(in.Portfolio)
	switch {
	case in.FounderID < 1:
		return types.Application{}, invalid("founderId", "founder is required")
	case role == "":
		return types.Application{}, invalid("role", "role is required")
	case message == "":
		return types.Application{}, invalid("message", "message is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return types.Application{}, invalid("email", "email is not valid")
		}
	}
	if portfolio != "" && !isWebURL(portfolio) {
		return types.Application{}, invalid("portfolio", "portfolio must be an http or https link")
	}

	founder, err := s.users.GetByID(ctx, in.FounderID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Application{}, err
	}
	if err != nil || founder.Role != types.RoleFounder || !founder.Active {
		return types.Application{}, &NotFoundError{Resource: "founder"}
	}
	if !authz.CanApply(actor, founder) {
		if actor.UserID == founder.ID {
			return types.Application{}, forbidden("you cannot apply to your own startup")
		}
		return types.Application{}, forbidden("only students and founders can apply")
	}

	duplicate := &ConflictError{Message: fmt.Sprintf("you already have an active application for %s at %s", role, startupName(&founder))}
	if _, err := s.apps.FindActive(ctx, actor.UserID, founder.ID, role); err == nil {
		return types.Application{}, duplicate
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Application{}, err
	}

	resume, err := resolveAsset(ctx, s.assets, storage.AssetResume, "resume", strings.TrimSpace(in.Resume))
	if err != nil {
		return types.Application{}, err
	}

	app, err := s.apps.Create(ctx, types.Application{
		StudentID:  actor.UserID,
		FounderID:  founder.ID,
		Role:       role,
		Message:    message,
		Experience: strings.TrimSpace(in.Experience),
		Skills:     strings.TrimSpace(in.Skills),
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		Resume:     resume,
		Portfolio:  portfolio,
		Status:     types.StatusPending,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Application{}, duplicate
		}
		return types.Application{}, err
	}
	s.log.Info("application submitted", "application_id", app.ID, "founder_id", founder.ID, "student_id", actor.UserID)

	applicant := s.lookupUser(ctx, actor.UserID)
	s.notify(ctx, types.Notification{
		RecipientID: founder.ID,
		Type:        types.NotificationNewApplication,
		Title:       "New application",
		Message:     fmt.Sprintf("%s applied for %s.", displayName(applicant), role),
	}, app.ID)
	return app, nil
}

// ChangeStatus moves an application as its target founder.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actor authz.Actor, id int, in StatusInput) (types.Application, error) {
	to, ok := types.ParseApplicationStatus(in.Status)
	if !ok {
		return types.Application{}, invalid("status", "status is not supported")
	}
	return s.transition(ctx, actor, id, to, authz.ActionChangeStatus, strings.TrimSpace(in.CustomMessage))
}

// Withdraw moves an application to withdrawn as either of its parties.
func (s *ApplicationService) Withdraw(ctx context.Context, actor authz.Actor, id int, message string) (types.Application, error) {
	return s.transition(ctx, actor, id, types.StatusWithdrawn, authz.ActionWithdraw, strings.TrimSpace(message))
}

// transition re-reads the application on every attempt so the validated
// from-state is the one the conditional update compares against.
func (s *ApplicationService) transition(ctx context.Context, actor authz.Actor, id int, to types.ApplicationStatus, action authz.Action, message string) (types.Application, error) {
	for attempt := 1; ; attempt++ {
		app, err := s.apps.Get(ctx, id)
		if err != nil {
			return types.Application{}, notFound(err, "application")
		}
		if !related(actor, app) {
			return types.Application{}, &NotFoundError{Resource: "application"}
		}
		if !authz.Allowed(actor, action, authz.Application(app)) {
			return types.Application{}, forbidden("you cannot change the status of this application")
		}

		t, err := lifecycle.Decide(app.Status, to, partyOf(actor, app))
		if err != nil {
			if errors.Is(err, lifecycle.ErrPartyNotAllowed) {
				return types.Application{}, forbidden(err.Error())
			}
			return types.Application{}, err
		}

		expected := app.Status
		lifecycle.Apply(&app, t, actor.UserID, s.now(), message)

		updated, err := s.apps.UpdateStatus(ctx, app, expected)
		switch {
		case err == nil:
			s.log.Info("application status changed", "application_id", id, "from", t.From, "to", t.To, "by", actor.UserID)
			s.afterTransition(ctx, updated, t, message)
			return updated, nil
		case errors.Is(err, store.ErrStaleStatus):
			if attempt >= maxStatusAttempts {
				return types.Application{}, &ConflictError{Message: "the application was changed by someone else, please retry"}
			}
			s.log.Debug("status changed concurrently, retrying", "application_id", id, "attempt", attempt)
		case errors.Is(err, store.ErrDuplicate):
			return types.Application{}, &ConflictError{Message: fmt.Sprintf("another active application for %s already exists", app.Role)}
		default:
			return types.Application{}, notFound(err, "application")
		}
	}
}

// related reports whether actor is a party to app or an admin. Anyone else
// gets the same not-found answer as for a missing id.
func related(actor authz.Actor, app types.Application) bool {
	if actor.UserID < 1 {
		return false
	}
	return actor.IsAdmin() || actor.UserID == app.FounderID || actor.UserID == app.StudentID
}

func partyOf(actor authz.Actor, app types.Application) lifecycle.Party {
	switch actor.UserID {
	case app.FounderID:
		return lifecycle.PartyFounder
	case app.StudentID:
		return lifecycle.PartyApplicant
	default:
		return lifecycle.PartyNone
	}
}

// afterTransition records notifications and requests email. Failures here
// are logged; the status change has already committed.
func (s *ApplicationService) afterTransition(ctx context.Context, app types.Application, t lifecycle.Transition, custom string) {
	if !t.NotifyApplicant && !t.NotifyFounder {
		return
	}
	founder := s.lookupUser(ctx, app.FounderID)
	applicant := s.lookupUser(ctx, app.StudentID)
	startup := startupName(founder)

	if t.NotifyFounder {
		s.notify(ctx, types.Notification{
			RecipientID: app.FounderID,
			Type:        types.NotificationApplicationUpdate,
			Title:       "Application withdrawn",
			Message:     withDefault(custom, fmt.Sprintf("%s withdrew their application for %s.", displayName(applicant), app.Role)),
		}, app.ID)
	}
	if !t.NotifyApplicant {
		return
	}

	title, body := applicantMessage(t, app.Role, startup)
	body = withDefault(custom, body)
	n, ok := s.notify(ctx, types.Notification{
		RecipientID: app.StudentID,
		Type:        types.NotificationApplicationUpdate,
		Title:       title,
		Message:     body,
	}, app.ID)

	if !t.SendEmail || applicant == nil {
		return
	}
	job := jobs.SendEmail{
		To:      withDefault(app.Email, applicant.Email),
		ToName:  applicant.Name,
		Subject: fmt.Sprintf("%s: %s", title, startup),
		Body:    body,
	}
	if ok {
		job.NotificationID = n.ID
	}
	if err := s.jobs.SendEmail(ctx, job); err != nil {
		s.log.Warn("failed to enqueue application email", "application_id", app.ID, "error", err)
	}
}

func applicantMessage(t lifecycle.Transition, role, startup string) (string, string) {
	switch {
	case t.Kind == lifecycle.KindRevert:
		return "Application back under review",
			fmt.Sprintf("Your application for %s at %s is back under consideration.", role, startup)
	case t.To == types.StatusAccepted:
		return "Application accepted",
			fmt.Sprintf("Congratulations! Your application for %s at %s has been accepted.", role, startup)
	case t.To == types.StatusRejected:
		return "Application update",
			fmt.Sprintf("Your application for %s at %s was not selected this time.", role, startup)
	case t.To == types.StatusWithdrawn:
		return "Application withdrawn",
			fmt.Sprintf("Your application for %s at %s has been withdrawn by the founder.", role, startup)
	default:
		return "Application update",
			fmt.Sprintf("Your application for %s at %s is now %s.", role, startup, t.To)
	}
}

// Respond appends a message to the application's thread and notifies the
// other party.
func (s *ApplicationService) Respond(ctx context.Context, actor authz.Actor, id int, message string) (types.Application, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return types.Application{}, notFound(err, "application")
	}
	if !related(actor, app) {
		return types.Application{}, &NotFoundError{Resource: "application"}
	}
	if !authz.Allowed(actor, authz.ActionRespond, authz.Application(app)) {
		return types.Application{}, forbidden("you cannot respond to this application")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return types.Application{}, invalid("message", "message is required")
	}

	sender, recipient := types.SenderStudent, app.FounderID
	if actor.UserID == app.FounderID {
		sender, recipient = types.SenderFounder, app.StudentID
	}
	app, err = s.apps.AppendResponse(ctx, id, types.ApplicationResponse{
		Sender:    sender,
		SenderID:  actor.UserID,
		Message:   message,
		Timestamp: s.now(),
	})
	if err != nil {
		return types.Application{}, notFound(err, "application")
	}

	author := s.lookupUser(ctx, actor.UserID)
	s.notify(ctx, types.Notification{
		RecipientID: recipient,
		Type:        types.NotificationMessage,
		Title:       "New message",
		Message:     fmt.Sprintf("%s sent a message about the %s application.", displayName(author), app.Role),
	}, app.ID)
	return app, nil
}

// Get returns an application to either party or an admin.
func (s *ApplicationService) Get(ctx context.Context, actor authz.Actor, id int) (types.ApplicationView, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return types.ApplicationView{}, notFound(err, "application")
	}
	if !related(actor, app) {
		return types.ApplicationView{}, &NotFoundError{Resource: "application"}
	}
	if !authz.Allowed(actor, authz.ActionRead, authz.Application(app)) {
		return types.ApplicationView{}, forbidden("you cannot view this application")
	}
	return s.views(ctx, []types.Application{app})[0], nil
}

// ListForFounder returns a founder's applications, newest first, optionally
// filtered by status ("" or "all" for none), with counts over every status.
func (s *ApplicationService) ListForFounder(ctx context.Context, actor authz.Actor, founderID int, status string) (types.ApplicationList, error) {
	if !authz.Allowed(actor, authz.ActionRead, authz.Resource{Kind: authz.KindApplication, OwnerID: founderID}) {
		return types.ApplicationList{}, forbidden("you can only view applications to your own startup")
	}

	var filter types.ApplicationStatus
	if raw := strings.TrimSpace(status); raw != "" && !strings.EqualFold(raw, "all") {
		var ok bool
		filter, ok = types.ParseApplicationStatus(raw)
		if !ok {
			return types.ApplicationList{}, invalid("status", "status is not supported")
		}
	}

	apps, err := s.apps.ListByFounder(ctx, founderID, filter)
	if err != nil {
		return types.ApplicationList{}, err
	}
	counts, err := s.apps.CountByFounder(ctx, founderID)
	if err != nil {
		return types.ApplicationList{}, err
	}
	return types.ApplicationList{Applications: s.views(ctx, apps), Counts: counts}, nil
}

// ListMine returns the actor's own applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, actor authz.Actor) ([]types.ApplicationView, error) {
	apps, err := s.apps.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, apps), nil
}

func (s *ApplicationService) views(ctx context.Context, apps []types.Application) []types.ApplicationView {
	cache := make(map[int]*types.User)
	lookup := func(id int) *types.User {
		if u, ok := cache[id]; ok {
			return u
		}
		u := s.lookupUser(ctx, id)
		cache[id] = u
		return u
	}

	out := make([]types.ApplicationView, 0, len(apps))
	for _, app := range apps {
		view := types.ApplicationView{Application: app}
		if u := lookup(app.StudentID); u != nil {
			pub := types.NewPublicUser(*u)
			view.Applicant = &pub
		}
		if u := lookup(app.FounderID); u != nil {
			pub := types.NewPublicUser(*u)
			view.Founder = &pub
			view.StartupName = u.StartupName
		}
		out = append(out, view)
	}
	return out
}

// lookupUser returns nil when the user cannot be loaded.
func (s *ApplicationService) lookupUser(ctx context.Context, id int) *types.User {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("failed to load user", "user_id", id, "error", err)
		}
		return nil
	}
	return &u
}

func (s *ApplicationService) notify(ctx context.Context, n types.Notification, applicationID int) (types.Notification, bool) {
	n.RelatedModel = types.EntityApplication
	n.RelatedID = applicationID
	created, err := s.notifications.Create(ctx, n)
	if err != nil {
		s.log.Error("failed to create notification", "recipient_id", n.RecipientID, "type", n.Type, "application_id", applicationID, "error", err)
		return types.Notification{}, false
	}
	return created, true
}

func startupName(founder *types.User) string {
	switch {
	case founder == nil:
		return "the startup"
	case founder.StartupName != "":
		return founder.StartupName
	default:
		return founder.Name
	}
}

func displayName(u *types.User) string {
	if u == nil {
		return "Someone"
	}
	return u.Name
}

func withDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
