package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/core/services/delta"
	"github.com/cfwarrior/tgbot/internal/core/services/digester"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
	"github.com/cfwarrior/tgbot/internal/core/services/verification"
	"github.com/cfwarrior/tgbot/internal/handlers"
	"github.com/cfwarrior/tgbot/internal/handlers/control"
	"github.com/cfwarrior/tgbot/internal/handlers/tasks"
	"github.com/cfwarrior/tgbot/internal/handlers/webhook"
)

type ServiceProvider struct {
	trackerService      tracker.ITrackerService
	deltaService        delta.IDeltaService
	digesterService     digester.IDigesterService
	verificationService verification.IVerificationService
	bindingRepo         secondary.BindingRepository
	notifier            secondary.Notifier
}

func NewServiceProvider(
	trackerService tracker.ITrackerService,
	deltaService delta.IDeltaService,
	digesterService digester.IDigesterService,
	verificationService verification.IVerificationService,
	bindingRepo secondary.BindingRepository,
	notifier secondary.Notifier,
) *ServiceProvider {
	return &ServiceProvider{
		trackerService:      trackerService,
		deltaService:        deltaService,
		digesterService:     digesterService,
		verificationService: verificationService,
		bindingRepo:         bindingRepo,
		notifier:            notifier,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	middleware      *handlers.MiddlewareProvider
	logger          primary.Logger
	chatID          int64
}

func NewServer(
	port int,
	serviceName string,
	serviceProvider ServiceProvider,
	middleware *handlers.MiddlewareProvider,
	logger primary.Logger,
	chatID int64,
) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		middleware:      middleware,
		logger:          logger,
		chatID:          chatID,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	webhook.
		NewWebhookHandler(s.ServiceProvider.digesterService, s.logger).
		RegisterRoutes(r)
	tasks.
		NewTaskHandler(s.ServiceProvider.verificationService, s.ServiceProvider.bindingRepo, s.ServiceProvider.notifier, s.logger, s.chatID).
		RegisterRoutes(r, s.middleware)
	control.
		NewControlHandler(s.ServiceProvider.trackerService, s.ServiceProvider.deltaService, s.logger, s.chatID).
		RegisterRoutes(r, s.middleware)
	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down http server...")
	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Error("Server forced to shutdown", "error", err)
		}
	}
}
