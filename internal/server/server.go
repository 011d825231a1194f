package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/auth"
	"github.com/startup-vidyapith/apiserver/internal/handlers"
	"github.com/startup-vidyapith/apiserver/internal/jobs"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/mq"
	"github.com/startup-vidyapith/apiserver/internal/services"
	"github.com/startup-vidyapith/apiserver/internal/session"
	"github.com/startup-vidyapith/apiserver/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	backend    *Backend
	revoker    session.Revoker
	worker     *jobs.Worker
	log        *logger.Logger
}

// New wires every service over the configured backends.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	backend, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	assets := storage.NewAssets(objects, cfg.PublicBaseURL)

	var revoker session.Revoker = session.NewMemoryRevoker()
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		revoker, err = session.NewRedisRevoker(ctx, cfg.Redis)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
	}

	dispatcher := jobs.NewDispatcher(backend.Queue, cfg.MQ.Channel, log)
	tokens := auth.NewTokenIssuer(jwtSecret, cfg.TokenTTL)

	userService := services.NewUserService(backend.Users, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, revoker, dispatcher, log)
	founderService := services.NewFounderService(backend.Founders, backend.Users, assets, log)
	productService := services.NewProductService(backend.Products, backend.Founders, assets, log)
	questionService := services.NewQuestionService(backend.Questions, backend.Users, log)
	applicationService := services.NewApplicationService(backend.Applications, backend.Users, backend.Notifications, assets, dispatcher, log)
	notificationService := services.NewNotificationService(backend.Notifications)

	authMiddleware := handlers.RequireAuth(userService, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(log),
		recoverer(log),
		middleware.Timeout(cfg.RequestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, log)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware, log)
	})
	router.Route("/founders", func(r chi.Router) {
		handlers.FounderRouter(r, founderService, authMiddleware, log)
	})
	router.Route("/products", func(r chi.Router) {
		handlers.ProductRouter(r, productService, authMiddleware, log)
	})
	router.Route("/questions", func(r chi.Router) {
		handlers.QuestionRouter(r, questionService, authMiddleware, log)
	})
	router.Route("/applications", func(r chi.Router) {
		handlers.ApplicationRouter(r, applicationService, notificationService, authMiddleware, log)
	})
	router.Route(strings.TrimSuffix(storage.AssetPathPrefix, "/"), func(r chi.Router) {
		handlers.AssetRouter(r, assets, log)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s := &Server{
		httpServer: httpServer,
		router:     router,
		backend:    backend,
		revoker:    revoker,
		log:        log,
	}
	if cfg.MQ.EmbeddedWorker || mq.IsLocal(cfg.MQ) {
		s.worker = backend.NewWorker(cfg, log)
	}
	return s, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start serves HTTP, and runs the embedded worker when configured, until ctx
// is cancelled or either fails.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.worker != nil {
		g.Go(func() error {
			return s.worker.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown drains in-flight requests, then closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.revoker.Close(), s.backend.Close())
}
