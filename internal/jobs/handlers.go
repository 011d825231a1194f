package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/mailer"
	"github.com/startup-vidyapith/apiserver/internal/store"
)

// EmailMarker stamps a notification as emailed.
type EmailMarker interface {
	MarkEmailSent(ctx context.Context, id int, at time.Time) error
}

// LoginRecorder stores a user's last login time.
type LoginRecorder interface {
	SetLastLogin(ctx context.Context, id int, at time.Time) error
}

// SendEmailHandler delivers the email, then marks the notification.
func SendEmailHandler(m mailer.Mailer, marker EmailMarker) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var job SendEmail
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("decode email job: %w", err)
		}
		if err := m.Send(ctx, mailer.Email{To: job.To, ToName: job.ToName, Subject: job.Subject, Text: job.Body}); err != nil {
			return err
		}
		if job.NotificationID == 0 {
			return nil
		}
		err := marker.MarkEmailSent(ctx, job.NotificationID, time.Now())
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
}

// TouchLoginHandler records the login time carried by the job.
func TouchLoginHandler(users LoginRecorder) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var job TouchLogin
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("decode login job: %w", err)
		}
		if job.At.IsZero() {
			job.At = time.Now()
		}
		err := users.SetLastLogin(ctx, job.UserID, job.At)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
}
