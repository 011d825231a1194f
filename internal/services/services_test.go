package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/auth"
	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/jobs"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/session"
	"github.com/startup-vidyapith/apiserver/internal/store/memory"
	"github.com/startup-vidyapith/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type recordingQueue struct {
	mu     sync.Mutex
	emails []jobs.SendEmail
	logins []int
	err    error
	// stall makes TouchLogin wait for its context to end.
	stall bool
}

func (q *recordingQueue) SendEmail(_ context.Context, job jobs.SendEmail) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.emails = append(q.emails, job)
	return nil
}

func (q *recordingQueue) TouchLogin(ctx context.Context, userID int, _ time.Time) error {
	if q.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.logins = append(q.logins, userID)
	return nil
}

func (q *recordingQueue) sentEmails() []jobs.SendEmail {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]jobs.SendEmail(nil), q.emails...)
}

type testEnv struct {
	store         *memory.Store
	queue         *recordingQueue
	users         *UserService
	founders      *FounderService
	products      *ProductService
	questions     *QuestionService
	applications  *ApplicationService
	notifications *NotificationService
	seq           int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	queue := &recordingQueue{}
	log := logger.Nop()
	return &testEnv{
		store:         st,
		queue:         queue,
		users:         NewUserService(st.Users, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewTokenIssuer("test-secret", time.Hour), session.NewMemoryRevoker(), queue, log),
		founders:      NewFounderService(st.Founders, st.Users, nil, log),
		products:      NewProductService(st.Products, st.Founders, nil, log),
		questions:     NewQuestionService(st.Questions, st.Users, log),
		applications:  NewApplicationService(st.Applications, st.Users, st.Notifications, nil, queue, log),
		notifications: NewNotificationService(st.Notifications),
	}
}

// createUser stores an active user with valid role details.
func (e *testEnv) createUser(t *testing.T, role types.Role, name string) authz.Actor {
	t.Helper()
	e.seq++
	u := types.User{
		Name:            name,
		InstitutionalID: fmt.Sprintf("INST-%03d", e.seq),
		Email:           fmt.Sprintf("user%d@example.edu", e.seq),
		Active:          true,
	}
	switch role {
	case types.RoleStudent:
		u.SetProfile(types.StudentDetails{Branch: "CSE", Year: 2})
	case types.RoleFounder:
		u.SetProfile(types.FounderDetails{StartupName: name + " Labs"})
	case types.RoleAdmin:
		u.SetProfile(types.AdminDetails{Designation: "Coordinator"})
	}
	created, err := e.store.Users.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return ActorOf(created)
}
