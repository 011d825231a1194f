package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// NotificationRepository handles persistence for notifications.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, type, title, message, read, read_at, email_sent, email_sent_at,
	related_model, related_id, created_at`

func scanNotification(row rowScanner) (types.Notification, error) {
	var n types.Notification
	var readAt, emailSentAt sql.NullTime
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Read,
		&readAt,
		&n.EmailSent,
		&emailSentAt,
		&n.RelatedModel,
		&n.RelatedID,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Notification{}, ErrNotFound
		}
		return types.Notification{}, err
	}
	if readAt.Valid {
		at := readAt.Time
		n.ReadAt = &at
	}
	if emailSentAt.Valid {
		at := emailSentAt.Time
		n.EmailSentAt = &at
	}
	return n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n types.Notification) (types.Notification, error) {
	n.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO notifications (recipient_id, type, title, message, related_model, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedModel,
		n.RelatedID,
		n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

func (r *NotificationRepository) Get(ctx context.Context, id int) (types.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return scanNotification(r.db.QueryRowContext(ctx, query, id))
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int) ([]types.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]types.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int) (int, error) {
	const query = `SELECT COUNT(1) FROM notifications WHERE recipient_id = $1 AND NOT read`
	var n int
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// MarkRead sets the read flag. ReadAt keeps the time of the first call.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int, at time.Time) (types.Notification, error) {
	query := `
		UPDATE notifications
		SET read = TRUE,
			read_at = COALESCE(read_at, $1)
		WHERE id = $2
		RETURNING ` + notificationColumns
	return scanNotification(r.db.QueryRowContext(ctx, query, at.UTC(), id))
}

// MarkAllRead marks every unread notification of the recipient and returns
// how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int, at time.Time) (int, error) {
	const query = `UPDATE notifications SET read = TRUE, read_at = $1 WHERE recipient_id = $2 AND NOT read`
	result, err := r.db.ExecContext(ctx, query, at.UTC(), recipientID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id int, at time.Time) error {
	const query = `UPDATE notifications SET email_sent = TRUE, email_sent_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
