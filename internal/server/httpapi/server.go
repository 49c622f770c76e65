// Package httpapi exposes the DocKeeper HTTP surface: the external scan
// trigger, the public unauthenticated token flow, and the authenticated
// owner API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/logging"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// documentSvc is the slice of DocumentService the handlers consume.
type documentSvc interface {
	EnsureOwner(ctx context.Context, id, email, name string) error
	CreateSubject(ctx context.Context, ownerID, name string) (*models.Subject, error)
	ListSubjects(ctx context.Context, ownerID string) ([]*models.Subject, error)
	CreateDocument(ctx context.Context, ownerID, subjectID, documentTypeID string, expiryDate time.Time) (*models.Document, error)
	GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]*models.Document, error)
	ListReminders(ctx context.Context, ownerID, documentID string) ([]*models.Reminder, error)
	DeleteDocument(ctx context.Context, ownerID, id string) error
	GetPreference(ctx context.Context, ownerID string) (*models.NotificationPreference, error)
	PutPreference(ctx context.Context, pref *models.NotificationPreference) error
	IssueDeactivateLink(ctx context.Context, ownerID, documentID string, now time.Time) (string, error)
	InspectToken(ctx context.Context, raw string, now time.Time) (*services.TokenInfo, error)
	ApplyTokenAction(ctx context.Context, raw, action string, newExpiry *time.Time, now time.Time) (*services.UpdateResult, error)
}

type attachmentSvc interface {
	PresignUpload(ctx context.Context, ownerID, documentID string) (string, string, error)
	PresignDownload(ctx context.Context, ownerID, documentID string) (string, error)
}

type scanSvc interface {
	Run(ctx context.Context, now time.Time) (*services.RunSummary, error)
}

type HTTPServer struct {
	address     string
	jwtSecret   []byte
	logger      logging.Logger
	documents   documentSvc
	attachments attachmentSvc
	scan        scanSvc
	router      *gin.Engine
}

func NewHTTPServer(address string, logger logging.Logger, documents *services.DocumentService,
	attachments *services.AttachmentService, scan *services.ScanService, secretKey string) *HTTPServer {
	s := &HTTPServer{
		address:     address,
		jwtSecret:   []byte(secretKey),
		logger:      logger.With("module", "http_server"),
		documents:   documents,
		attachments: attachments,
		scan:        scan,
	}
	s.router = s.buildRouter()
	return s
}

func (s *HTTPServer) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/cron/reminders", s.handleScanRun)

	public := router.Group("/public")
	{
		public.GET("/token-info", s.handleTokenInfo)
		public.POST("/update", s.handleUpdate)
	}

	api := router.Group("/api", s.authMiddleware())
	{
		api.POST("/subjects", s.handleCreateSubject)
		api.GET("/subjects", s.handleListSubjects)
		api.POST("/documents", s.handleCreateDocument)
		api.GET("/documents", s.handleListDocuments)
		api.GET("/documents/:id", s.handleGetDocument)
		api.DELETE("/documents/:id", s.handleDeleteDocument)
		api.GET("/documents/:id/reminders", s.handleListReminders)
		api.POST("/documents/:id/deactivate-link", s.handleDeactivateLink)
		api.POST("/documents/:id/attachment", s.handlePresignUpload)
		api.GET("/documents/:id/attachment", s.handlePresignDownload)
		api.GET("/preferences", s.handleGetPreference)
		api.PUT("/preferences", s.handlePutPreference)
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{Addr: s.address, Handler: s.router}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
