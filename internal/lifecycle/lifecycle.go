// Package lifecycle holds the application state machine: which status
// changes are allowed, who may make them and what each one records.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// Party is the side of an application an actor is on.
type Party int

const (
	// PartyNone is neither the applicant nor the target founder.
	PartyNone Party = iota
	// PartyApplicant is the user who submitted the application.
	PartyApplicant
	// PartyFounder is the founder the application targets.
	PartyFounder
)

// Kind groups transitions by their side effects.
type Kind int

const (
	KindReview Kind = iota + 1
	KindDecision
	KindRevert
	KindWithdraw
)

// ErrPartyNotAllowed is returned when the transition exists but the acting
// party may not make it.
var ErrPartyNotAllowed = errors.New("not allowed to make this status change")

// InvalidTransitionError is returned for a status change outside the table.
type InvalidTransitionError struct {
	From types.ApplicationStatus
	To   types.ApplicationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change application status from %s to %s", e.From, e.To)
}

// Transition is an allowed status change together with its effects.
type Transition struct {
	From types.ApplicationStatus
	To   types.ApplicationStatus
	Kind Kind

	// NotifyApplicant and NotifyFounder select the notification recipients.
	NotifyApplicant bool
	NotifyFounder   bool

	// SendEmail requests an email to the applicant in addition to the notification.
	SendEmail bool
}

type edge struct {
	from, to types.ApplicationStatus
}

type rule struct {
	kind      Kind
	founder   bool
	applicant bool
}

var table = map[edge]rule{
	{types.StatusPending, types.StatusReviewed}:   {kind: KindReview, founder: true},
	{types.StatusPending, types.StatusAccepted}:   {kind: KindDecision, founder: true},
	{types.StatusPending, types.StatusRejected}:   {kind: KindDecision, founder: true},
	{types.StatusAccepted, types.StatusPending}:   {kind: KindRevert, founder: true},
	{types.StatusRejected, types.StatusPending}:   {kind: KindRevert, founder: true},
	{types.StatusPending, types.StatusWithdrawn}:  {kind: KindWithdraw, founder: true, applicant: true},
	{types.StatusReviewed, types.StatusWithdrawn}: {kind: KindWithdraw, founder: true, applicant: true},
	{types.StatusAccepted, types.StatusWithdrawn}: {kind: KindWithdraw, founder: true, applicant: true},
	{types.StatusRejected, types.StatusWithdrawn}: {kind: KindWithdraw, founder: true, applicant: true},
}

// Allowed reports whether from -> to appears in the transition table for any party.
func Allowed(from, to types.ApplicationStatus) bool {
	_, ok := table[edge{from, to}]
	return ok
}

// Decide validates a status change requested by party. It returns an
// *InvalidTransitionError when the change is not in the table and
// ErrPartyNotAllowed when party may not make it.
func Decide(from, to types.ApplicationStatus, party Party) (Transition, error) {
	r, ok := table[edge{from, to}]
	if !ok {
		return Transition{}, &InvalidTransitionError{From: from, To: to}
	}
	switch party {
	case PartyFounder:
		if !r.founder {
			return Transition{}, ErrPartyNotAllowed
		}
	case PartyApplicant:
		if !r.applicant {
			return Transition{}, ErrPartyNotAllowed
		}
	default:
		return Transition{}, ErrPartyNotAllowed
	}

	t := Transition{From: from, To: to, Kind: r.kind}
	switch r.kind {
	case KindDecision:
		t.NotifyApplicant = true
		t.SendEmail = to == types.StatusAccepted
	case KindRevert:
		t.NotifyApplicant = true
	case KindWithdraw:
		// The other side hears about a withdrawal.
		t.NotifyFounder = party == PartyApplicant
		t.NotifyApplicant = party == PartyFounder
	}
	return t, nil
}

// Apply records t on app as made by actorID at now. The caller must have
// obtained t from Decide using app's current status.
func Apply(app *types.Application, t Transition, actorID int, now time.Time, message string) {
	switch {
	case t.Kind == KindRevert:
		app.PreviousStatus = nil
		app.DecisionReversed = true
		reversedAt := now
		app.ReversedAt = &reversedAt
	case t.Kind == KindWithdraw:
		prev := t.From
		app.PreviousStatus = &prev
	case t.From == types.StatusPending:
		prev := types.StatusPending
		app.PreviousStatus = &prev
	}

	app.Status = t.To
	actor := actorID
	app.ActionBy = &actor
	actionDate := now
	app.ActionDate = &actionDate
	app.UpdatedAt = now
	app.Events = append(app.Events, types.ApplicationEvent{
		From:      t.From,
		To:        t.To,
		ActorID:   actorID,
		Message:   message,
		Timestamp: now,
	})
}
