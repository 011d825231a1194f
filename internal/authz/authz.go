// Package authz decides which actions an authenticated user may take on a
// resource. Every predicate is a pure function of the identities passed in.
package authz

import "github.com/startup-vidyapith/apiserver/types"

// Actor is the authenticated user making a request.
type Actor struct {
	UserID int
	Role   types.Role
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == types.RoleAdmin }

// Kind is the type of resource being acted on.
type Kind string

const (
	KindFounderProfile Kind = "founder_profile"
	KindProduct        Kind = "product"
	KindQuestion       Kind = "question"
	KindApplication    Kind = "application"
	KindNotification   Kind = "notification"
)

// Action is what the actor wants to do.
type Action string

const (
	ActionRead         Action = "read"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionAnswer       Action = "answer"
	ActionChangeStatus Action = "change_status"
	ActionWithdraw     Action = "withdraw"
	ActionRespond      Action = "respond"
)

// Resource carries the ownership ids of the target resource.
type Resource struct {
	Kind Kind

	// OwnerID is the founder owning a profile, product, question target or
	// incoming application, or the recipient of a notification.
	OwnerID int

	// AskerID is the author of a question.
	AskerID int

	// ApplicantID is the submitter of an application.
	ApplicantID int
}

// Application returns the Resource for app.
func Application(app types.Application) Resource {
	return Resource{Kind: KindApplication, OwnerID: app.FounderID, ApplicantID: app.StudentID}
}

// Question returns the Resource for q.
func Question(q types.Question) Resource {
	return Resource{Kind: KindQuestion, OwnerID: q.FounderID, AskerID: q.AskerID}
}

// Product returns the Resource for p.
func Product(p types.Product) Resource {
	return Resource{Kind: KindProduct, OwnerID: p.FounderID}
}

// Allowed evaluates the rules in order and returns the first match:
// admins may read, delete and edit questions; owners may act on what they
// own; askers may edit and delete their questions; everything else is denied.
func Allowed(actor Actor, action Action, res Resource) bool {
	if actor.UserID < 1 {
		return false
	}
	if actor.IsAdmin() && adminMay(action, res.Kind) {
		return true
	}
	if ownerMay(actor, action, res) {
		return true
	}
	if res.Kind == KindQuestion && actor.UserID == res.AskerID {
		return action == ActionEdit || action == ActionDelete || action == ActionRead
	}
	return false
}

func adminMay(action Action, kind Kind) bool {
	switch action {
	case ActionRead, ActionDelete:
		return kind != KindNotification
	case ActionEdit:
		return kind == KindQuestion
	default:
		return false
	}
}

func ownerMay(actor Actor, action Action, res Resource) bool {
	switch res.Kind {
	case KindFounderProfile, KindProduct:
		return actor.UserID == res.OwnerID && actor.Role == types.RoleFounder &&
			(action == ActionRead || action == ActionEdit || action == ActionDelete)
	case KindQuestion:
		return actor.UserID == res.OwnerID &&
			(action == ActionRead || action == ActionAnswer || action == ActionDelete)
	case KindApplication:
		switch {
		case actor.UserID == res.OwnerID:
			return action == ActionRead || action == ActionChangeStatus ||
				action == ActionWithdraw || action == ActionRespond
		case actor.UserID == res.ApplicantID:
			return action == ActionRead || action == ActionWithdraw || action == ActionRespond
		}
		return false
	case KindNotification:
		return actor.UserID == res.OwnerID && (action == ActionRead || action == ActionEdit)
	default:
		return false
	}
}

// CanApply reports whether actor may submit an application to founder.
// Students and founders may apply, but never to themselves.
func CanApply(actor Actor, founder types.User) bool {
	if actor.UserID < 1 || founder.Role != types.RoleFounder {
		return false
	}
	if actor.Role != types.RoleStudent && actor.Role != types.RoleFounder {
		return false
	}
	return actor.UserID != founder.ID
}

// CanAsk reports whether actor may ask founder a question. Any
// authenticated user other than the founder may ask.
func CanAsk(actor Actor, founder types.User) bool {
	if actor.UserID < 1 || founder.Role != types.RoleFounder {
		return false
	}
	return actor.UserID != founder.ID
}

// CanManageProfile reports whether actor may create or update their own
// founder profile and products.
func CanManageProfile(actor Actor) bool {
	return actor.UserID > 0 && actor.Role == types.RoleFounder
}

// CanManageUsers reports whether actor may activate or deactivate accounts.
func CanManageUsers(actor Actor) bool {
	return actor.UserID > 0 && actor.IsAdmin()
}
