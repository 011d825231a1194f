package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/db"
	"github.com/startup-vidyapith/apiserver/internal/jobs"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/mailer"
	"github.com/startup-vidyapith/apiserver/internal/mq"
	"github.com/startup-vidyapith/apiserver/internal/services"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/internal/store/memory"
)

type notificationStore interface {
	services.NotificationRepository
	jobs.EmailMarker
}

// Backend holds the repositories and the job queue shared by the API server
// and the worker.
type Backend struct {
	Users         services.UserRepository
	Founders      services.FounderProfileRepository
	Products      services.ProductRepository
	Questions     services.QuestionRepository
	Applications  services.ApplicationRepository
	Notifications notificationStore
	Queue         *mq.MQ

	db *sql.DB
}

// OpenBackend connects the database selected by cfg.Database.Driver and the
// message queue selected by cfg.MQ.Backend.
func OpenBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*Backend, error) {
	b := &Backend{}

	switch strings.ToLower(strings.TrimSpace(cfg.Database.Driver)) {
	case "", "postgres":
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.db = conn
		b.Users = store.NewUserRepository(conn)
		b.Founders = store.NewFounderProfileRepository(conn)
		b.Products = store.NewProductRepository(conn)
		b.Questions = store.NewQuestionRepository(conn)
		b.Applications = store.NewApplicationRepository(conn)
		b.Notifications = store.NewNotificationRepository(conn)
	case "memory":
		log.Warn("using in-memory database, data is lost on exit")
		st := memory.New()
		b.Users = st.Users
		b.Founders = st.Founders
		b.Products = st.Products
		b.Questions = st.Questions
		b.Applications = st.Applications
		b.Notifications = st.Notifications
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	queue, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Queue = queue
	return b, nil
}

// NewWorker returns a job worker with every job type registered.
func (b *Backend) NewWorker(cfg config.Config, log *logger.Logger) *jobs.Worker {
	worker := jobs.NewWorker(b.Queue, cfg.MQ.Channel, log)
	worker.Handle(jobs.TypeSendEmail, jobs.SendEmailHandler(mailer.New(log, cfg.SendGrid), b.Notifications))
	worker.Handle(jobs.TypeTouchLogin, jobs.TouchLoginHandler(b.Users))
	return worker
}

// Close releases the queue and the database connection.
func (b *Backend) Close() error {
	var errs []error
	if b.Queue != nil {
		errs = append(errs, b.Queue.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}
