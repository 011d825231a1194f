package services

import (
	"context"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/auth"
	"github.com/startup-vidyapith/apiserver/internal/jobs"
	"github.com/startup-vidyapith/apiserver/internal/storage"
	"github.com/startup-vidyapith/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByInstitutionalID(ctx context.Context, institutionalID string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetActive(ctx context.Context, id int, active bool) error
	SetProfileComplete(ctx context.Context, id int, complete bool) error
	SetLastLogin(ctx context.Context, id int, at time.Time) error
}

// FounderProfileRepository defines persistence operations for founder profiles.
type FounderProfileRepository interface {
	Get(ctx context.Context, userID int) (types.FounderProfile, error)
	List(ctx context.Context) ([]types.FounderProfile, error)
	Upsert(ctx context.Context, profile types.FounderProfile) (types.FounderProfile, error)
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, founderID int) ([]types.Product, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id int) error
}

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	Get(ctx context.Context, id int) (types.Question, error)
	ListByFounder(ctx context.Context, founderID int) ([]types.Question, error)
	ListByAsker(ctx context.Context, askerID int) ([]types.Question, error)
	Create(ctx context.Context, q types.Question) (types.Question, error)
	Update(ctx context.Context, q types.Question) (types.Question, error)
	Delete(ctx context.Context, id int) error
}

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Get(ctx context.Context, id int) (types.Application, error)
	FindActive(ctx context.Context, studentID, founderID int, role string) (types.Application, error)
	ListByFounder(ctx context.Context, founderID int, status types.ApplicationStatus) ([]types.Application, error)
	ListByStudent(ctx context.Context, studentID int) ([]types.Application, error)
	CountByFounder(ctx context.Context, founderID int) (types.StatusCounts, error)
	Create(ctx context.Context, app types.Application) (types.Application, error)
	UpdateStatus(ctx context.Context, app types.Application, expected types.ApplicationStatus) (types.Application, error)
	AppendResponse(ctx context.Context, id int, resp types.ApplicationResponse) (types.Application, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n types.Notification) (types.Notification, error)
	Get(ctx context.Context, id int) (types.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int) ([]types.Notification, error)
	CountUnread(ctx context.Context, recipientID int) (int, error)
	MarkRead(ctx context.Context, id int, at time.Time) (types.Notification, error)
	MarkAllRead(ctx context.Context, recipientID int, at time.Time) (int, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// TokenIssuer signs and parses session tokens.
type TokenIssuer interface {
	Issue(userID int) (string, auth.Claims, error)
	Parse(token string) (auth.Claims, error)
}

// TokenRevoker records logged-out tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JobQueue hands work to the background worker.
type JobQueue interface {
	SendEmail(ctx context.Context, job jobs.SendEmail) error
	TouchLogin(ctx context.Context, userID int, at time.Time) error
}

// AssetResolver turns inline uploads into served references.
type AssetResolver interface {
	Resolve(ctx context.Context, kind storage.AssetKind, payload string) (string, error)
}
