package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/ChertChill/otp-service/internal/otp/http"
	"github.com/ChertChill/otp-service/internal/otp/notify"
	"github.com/ChertChill/otp-service/internal/otp/service"
	"github.com/ChertChill/otp-service/internal/otp/session"
	"github.com/ChertChill/otp-service/internal/otp/store"
	"github.com/ChertChill/otp-service/internal/otp/store/drivers/sqlite"
	"github.com/ChertChill/otp-service/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

var ErrSessionSecretRequired = errors.New("OTP_SESSION_SECRET is required")

// Application encapsulates the OTP service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	sessions   *session.Manager
	dispatcher *notify.Dispatcher

	// Services
	otpService   *service.OtpService
	userService  *service.UserService
	adminService *service.AdminService
	sweeper      *service.Sweeper

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "otp-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SessionSecret == "" {
		return nil, ErrSessionSecretRequired
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(
		session.NewMemory(),
		[]byte(cfg.SessionSecret),
		cfg.Issuer,
		cfg.SessionTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	app.sessions = sessions

	app.initDispatcher()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start the background expiration sweeper
	app.sweeper.Start()

	app.logger.Info("otp service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down otp service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the expiration sweeper
	app.sweeper.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("otp service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initDispatcher wires a sender per configured delivery channel. Channels
// without configuration stay unwired; dispatching over them is rejected as
// unsupported. The file channel is always available.
func (app *Application) initDispatcher() {
	var email, sms, chatBot notify.Sender

	if app.cfg.SMTPHost != "" {
		sender, err := notify.NewEmailSender(notify.EmailConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
		})
		if err != nil {
			app.logger.Warn("email channel misconfigured, leaving disabled", "error", err)
		} else {
			email = sender
			app.logger.Info("email channel enabled", "host", app.cfg.SMTPHost)
		}
	}

	if app.cfg.SMSAPIURL != "" {
		sms = notify.NewSMSSender(notify.SMSConfig{
			GatewayURL: app.cfg.SMSAPIURL,
			APIKey:     app.cfg.SMSAPIKey,
			Source:     app.cfg.SMSFrom,
		})
		app.logger.Info("sms channel enabled", "url", app.cfg.SMSAPIURL)
	}

	if app.cfg.ChatBotAPIURL != "" {
		chatBot = notify.NewChatBotSender(notify.ChatBotConfig{
			WebhookURL: app.cfg.ChatBotAPIURL,
			Token:      app.cfg.ChatBotAPIKey,
		})
		app.logger.Info("chatbot channel enabled", "url", app.cfg.ChatBotAPIURL)
	}

	file := notify.NewFileSender(app.cfg.FilePath)

	app.dispatcher = notify.NewDispatcher(email, sms, chatBot, file)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.otpService = &service.OtpService{
		Store:      app.db,
		Dispatcher: app.dispatcher,
	}

	app.userService = &service.UserService{
		Store:    app.db,
		Sessions: app.sessions,
	}

	app.adminService = &service.AdminService{
		Store: app.db,
		Otp:   app.otpService,
	}

	app.sweeper = service.NewSweeper(app.otpService, app.logger, app.cfg.SweepInterval)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.OtpService = app.otpService
	router.UserService = app.userService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
