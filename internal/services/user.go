package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/auth"
	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

const minPasswordLength = 6

// touchLoginTimeout bounds how long a login waits on the queue to accept
// the last-login job.
const touchLoginTimeout = 2 * time.Second

// Session is an authenticated user together with the token claims.
type Session struct {
	User   types.User
	Claims auth.Claims
}

// Actor returns the authorization identity of the session user.
func (s Session) Actor() authz.Actor {
	return ActorOf(s.User)
}

// ActorOf returns the authorization identity of u.
func ActorOf(u types.User) authz.Actor {
	return authz.Actor{UserID: u.ID, Role: u.Role}
}

// RegisterInput carries the registration form. Branch and Year apply to
// students, StartupName to founders and Designation to admins.
type RegisterInput struct {
	Name            string
	InstitutionalID string
	Email           string
	Password        string
	Role            string
	Branch          string
	Year            int
	StartupName     string
	Designation     string
}

// UpdateUserInput carries editable account fields. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name        *string
	Branch      *string
	Year        *int
	StartupName *string
	Designation *string
}

// UserService encapsulates account and session use-cases.
type UserService struct {
	repo    UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	revoker TokenRevoker
	jobs    JobQueue
	log     *logger.Logger
	now     func() time.Time

	enqueueTimeout time.Duration
}

func NewUserService(repo UserRepository, hasher PasswordHasher, tokens TokenIssuer, revoker TokenRevoker, jobs JobQueue, log *logger.Logger) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		jobs:    jobs,
		log:     log.With("service", "UserService"),
		now:     time.Now,

		enqueueTimeout: touchLoginTimeout,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, notFound(err, "user")
	}
	return user, nil
}

// Register validates in and creates the account. Admin accounts cannot
// self-register.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.InstitutionalID = strings.TrimSpace(in.InstitutionalID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case in.Name == "":
		return types.User{}, "", invalid("name", "name is required")
	case in.InstitutionalID == "":
		return types.User{}, "", invalid("institutionalId", "institutional id is required")
	case in.Email == "":
		return types.User{}, "", invalid("email", "email is required")
	case len(in.Password) < minPasswordLength:
		return types.User{}, "", invalid("password", "password must be at least 6 characters")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return types.User{}, "", invalid("email", "email is not valid")
	}

	role, ok := types.ParseRole(in.Role)
	if !ok {
		return types.User{}, "", invalid("role", "role must be student or founder")
	}
	if role == types.RoleAdmin {
		return types.User{}, "", forbidden("admin accounts cannot be self-registered")
	}

	var profile types.Profile
	switch role {
	case types.RoleStudent:
		profile = types.StudentDetails{Branch: in.Branch, Year: in.Year}
	case types.RoleFounder:
		profile = types.FounderDetails{StartupName: in.StartupName}
	}
	if err := profile.Validate(); err != nil {
		return types.User{}, "", fieldError(err)
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return types.User{}, "", &ConflictError{Message: "an account with this email already exists"}
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", err
	}
	if _, err := s.repo.GetByInstitutionalID(ctx, in.InstitutionalID); err == nil {
		return types.User{}, "", &ConflictError{Message: "an account with this institutional id already exists"}
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.User{}, "", err
	}

	user := types.User{
		Name:            in.Name,
		InstitutionalID: in.InstitutionalID,
		Email:           in.Email,
		PasswordHash:    hashed,
		Active:          true,
	}
	user.SetProfile(profile)

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, "", &ConflictError{Message: "an account with this email or institutional id already exists"}
		}
		return types.User{}, "", err
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Login verifies credentials given an email or institutional id. The last
// login time is recorded by the background worker.
func (s *UserService) Login(ctx context.Context, identifier, password string) (types.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return types.User{}, "", invalid("", "email or institutional id and password are required")
	}

	var user types.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.repo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.repo.GetByInstitutionalID(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrUnauthenticated
		}
		return types.User{}, "", err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return types.User{}, "", err
	}
	if !ok {
		return types.User{}, "", ErrUnauthenticated
	}
	if !user.Active {
		return types.User{}, "", forbidden("this account has been deactivated")
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return types.User{}, "", err
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, s.enqueueTimeout)
	defer cancel()
	if err := s.jobs.TouchLogin(enqueueCtx, user.ID, s.now()); err != nil {
		s.log.Warn("failed to enqueue last login update", "user_id", user.ID, "error", err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token into a Session.
func (s *UserService) Authenticate(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	if claims.TokenID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return Session{}, err
		}
		if revoked {
			return Session{}, ErrUnauthenticated
		}
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}
	if !user.Active {
		return Session{}, forbidden("this account has been deactivated")
	}
	return Session{User: user, Claims: claims}, nil
}

// Logout revokes the session token until it would have expired.
func (s *UserService) Logout(ctx context.Context, session Session) error {
	if session.Claims.TokenID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, session.Claims.TokenID, session.Claims.ExpiresAt)
}

// UpdateProfile edits the display name and the fields of the user's role variant.
func (s *UserService) UpdateProfile(ctx context.Context, actor authz.Actor, in UpdateUserInput) (types.User, error) {
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return types.User{}, notFound(err, "user")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return types.User{}, invalid("name", "name is required")
		}
		user.Name = name
	}

	profile, err := user.Profile()
	if err != nil {
		return types.User{}, err
	}
	switch p := profile.(type) {
	case types.StudentDetails:
		if in.Branch != nil {
			p.Branch = *in.Branch
		}
		if in.Year != nil {
			p.Year = *in.Year
		}
		profile = p
	case types.FounderDetails:
		if in.StartupName != nil {
			p.StartupName = *in.StartupName
		}
		profile = p
	case types.AdminDetails:
		if in.Designation != nil {
			p.Designation = *in.Designation
		}
		profile = p
	}
	if err := profile.Validate(); err != nil {
		return types.User{}, fieldError(err)
	}
	user.SetProfile(profile)

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, notFound(err, "user")
	}
	return updated, nil
}

// SetActive activates or deactivates an account. Admins only; an admin
// cannot deactivate their own account.
func (s *UserService) SetActive(ctx context.Context, actor authz.Actor, userID int, active bool) (types.User, error) {
	if !authz.CanManageUsers(actor) {
		return types.User{}, forbidden("only administrators can change account status")
	}
	if actor.UserID == userID && !active {
		return types.User{}, invalid("active", "you cannot deactivate your own account")
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return types.User{}, notFound(err, "user")
	}
	s.log.Info("user active flag changed", "user_id", userID, "active", active, "by", actor.UserID)
	return s.GetByID(ctx, userID)
}
