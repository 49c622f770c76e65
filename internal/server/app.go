// Package server initializes and runs the application: it opens the
// database, applies migrations, wires the notification channels and
// services, and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dockeeper/internal/logging"
	"github.com/dmitrijs2005/dockeeper/internal/notify"
	"github.com/dmitrijs2005/dockeeper/internal/server/config"
	"github.com/dmitrijs2005/dockeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dockeeper/internal/server/services"
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	documentService   *services.DocumentService
	attachmentService *services.AttachmentService
	scanService       *services.ScanService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	registry := notify.NewRegistry()
	registry.Register(models.ChannelEmail,
		notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	registry.Register(models.ChannelWebhook, notify.NewWebhookSender(cfg.WebhookTimeout))

	renderer := notify.NewRenderer(cfg.PublicBaseURL)

	tokens := services.NewTokenService(db, rm, cfg)
	audit := services.NewAuditService(db, rm)
	dispatcher := services.NewDispatcher(db, rm, registry, renderer, tokens, audit, logger)

	return &App{
		config:            cfg,
		logger:            logger,
		db:                db,
		documentService:   services.NewDocumentService(db, rm, tokens, audit, renderer),
		attachmentService: services.NewAttachmentService(db, rm, cfg),
		scanService:       services.NewScanService(db, rm, dispatcher, logger, cfg),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.documentService, app.attachmentService, app.scanService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}
}
