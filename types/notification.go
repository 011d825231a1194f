package types

import "time"

// NotificationType classifies a notification.
type NotificationType string

// Supported notification types.
const (
	NotificationNewApplication    NotificationType = "new_application"
	NotificationApplicationUpdate NotificationType = "application_update"
	NotificationMessage           NotificationType = "message"
	NotificationSystem            NotificationType = "system"
)

// EntityApplication is the RelatedModel value for notifications about applications.
const EntityApplication = "Application"

// Notification is an append-only event addressed to one user.
type Notification struct {
	// ID is the unique identifier of the notification.
	ID int `json:"id" db:"id"`

	// RecipientID identifies the user the notification is addressed to.
	RecipientID int `json:"recipientId" db:"recipient_id"`

	// Type classifies the notification.
	Type NotificationType `json:"type" db:"type"`

	// Title is a short human-readable heading.
	Title string `json:"title" db:"title"`

	// Message is the human-readable body.
	Message string `json:"message" db:"message"`

	// Read is set by the recipient. Marking read is idempotent.
	Read bool `json:"read" db:"read"`

	// ReadAt is the time the notification was first marked read.
	ReadAt *time.Time `json:"readAt,omitempty" db:"read_at"`

	// EmailSent is set once an email for this notification has been delivered
	// to the mail provider.
	EmailSent bool `json:"emailSent" db:"email_sent"`

	// EmailSentAt is the time of that delivery.
	EmailSentAt *time.Time `json:"emailSentAt,omitempty" db:"email_sent_at"`

	// RelatedModel and RelatedID are a lookup-only back-reference to the
	// originating entity.
	RelatedModel string `json:"relatedModel,omitempty" db:"related_model"`
	RelatedID    int    `json:"relatedId,omitempty" db:"related_id"`

	// CreatedAt is the timestamp when the notification was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
