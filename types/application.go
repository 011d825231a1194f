package types

import (
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

// Supported application statuses.
const (
	// StatusPending is the initial state of every application.
	StatusPending ApplicationStatus = "pending"

	// StatusReviewed indicates the founder has looked at the application.
	StatusReviewed ApplicationStatus = "reviewed"

	// StatusAccepted indicates the founder accepted the applicant. Revertible.
	StatusAccepted ApplicationStatus = "accepted"

	// StatusRejected indicates the founder declined the applicant. Revertible.
	StatusRejected ApplicationStatus = "rejected"

	// StatusWithdrawn is terminal: no further transitions are accepted.
	StatusWithdrawn ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every status in display order.
var ApplicationStatuses = []ApplicationStatus{
	StatusPending, StatusReviewed, StatusAccepted, StatusRejected, StatusWithdrawn,
}

// ParseApplicationStatus normalizes raw and reports whether it is supported.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	s := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ApplicationStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Active reports whether an application in this status blocks a new one for
// the same applicant, founder and role.
func (s ApplicationStatus) Active() bool {
	return s != StatusRejected && s != StatusWithdrawn
}

// Sender tags who wrote a message in an application's response thread.
type Sender string

// Supported senders.
const (
	SenderStudent Sender = "student"
	SenderFounder Sender = "founder"
)

// ApplicationResponse is one message in the thread between applicant and founder.
type ApplicationResponse struct {
	Sender    Sender    `json:"sender"`
	SenderID  int       `json:"senderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ApplicationEvent records a status change on the application itself.
type ApplicationEvent struct {
	From      ApplicationStatus `json:"from"`
	To        ApplicationStatus `json:"to"`
	ActorID   int               `json:"actorId"`
	Message   string            `json:"message,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Application is a user's application to a role posted by a founder.
type Application struct {
	// ID is the unique identifier of the application.
	ID int `json:"id" db:"id"`

	// StudentID identifies the applicant (a student or another founder).
	StudentID int `json:"studentId" db:"student_id"`

	// FounderID identifies the target founder by user id.
	FounderID int `json:"founderId" db:"founder_id"`

	// Role is the role label applied for, informally matched against the
	// founder's LookingFor postings.
	Role string `json:"role" db:"role"`

	// Message is the applicant's cover message.
	Message string `json:"message" db:"message"`

	// Experience, Skills, Email, Phone, Resume and Portfolio are optional
	// applicant-provided details. Resume holds a served URL.
	Experience string `json:"experience,omitempty" db:"experience"`
	Skills     string `json:"skills,omitempty" db:"skills"`
	Email      string `json:"email,omitempty" db:"email"`
	Phone      string `json:"phone,omitempty" db:"phone"`
	Resume     string `json:"resume,omitempty" db:"resume"`
	Portfolio  string `json:"portfolio,omitempty" db:"portfolio"`

	// Status is the current lifecycle state.
	Status ApplicationStatus `json:"status" db:"status"`

	// PreviousStatus is the state snapshot taken when leaving pending (or when
	// withdrawing). Cleared when a decision is reverted to pending.
	PreviousStatus *ApplicationStatus `json:"previousStatus" db:"previous_status"`

	// DecisionReversed is set once an accept or reject has been reverted.
	DecisionReversed bool `json:"decisionReversed" db:"decision_reversed"`

	// ReversedAt is the time of the latest revert.
	ReversedAt *time.Time `json:"reversedAt,omitempty" db:"reversed_at"`

	// ActionBy identifies the user who made the latest status change.
	ActionBy *int `json:"actionBy,omitempty" db:"action_by"`

	// ActionDate is the time of the latest status change.
	ActionDate *time.Time `json:"actionDate,omitempty" db:"action_date"`

	// Responses is the message thread between applicant and founder.
	Responses []ApplicationResponse `json:"responses" db:"responses"`

	// Events is the embedded history of status changes.
	Events []ApplicationEvent `json:"notifications" db:"events"`

	// CreatedAt is the timestamp when the application was submitted.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// StatusCounts holds per-status application totals for one founder.
// All is the total over every status.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Reviewed  int `json:"reviewed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
	All       int `json:"all"`
}

// Add counts n applications in status s.
func (c *StatusCounts) Add(s ApplicationStatus, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusReviewed:
		c.Reviewed += n
	case StatusAccepted:
		c.Accepted += n
	case StatusRejected:
		c.Rejected += n
	case StatusWithdrawn:
		c.Withdrawn += n
	default:
		return
	}
	c.All += n
}

// ApplicationView is an application served with the display fields of both
// parties. Applicant and Founder are nil when the account no longer resolves.
type ApplicationView struct {
	Application
	Applicant   *PublicUser `json:"applicant"`
	Founder     *PublicUser `json:"founder"`
	StartupName string      `json:"startupName,omitempty"`
}

// ApplicationList is a founder's filtered applications with the per-status
// totals over all of them.
type ApplicationList struct {
	Applications []ApplicationView `json:"applications"`
	Counts       StatusCounts      `json:"counts"`
}
