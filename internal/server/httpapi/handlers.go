package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type documentResponse struct {
	ID             string  `json:"id"`
	SubjectID      string  `json:"subjectId"`
	DocumentTypeID string  `json:"documentTypeId"`
	ExpiryDate     string  `json:"expiryDate"`
	Status         string  `json:"status"`
	DeactivatedAt  *string `json:"deactivatedAt,omitempty"`
	HasAttachment  bool    `json:"hasAttachment"`
	CreatedAt      string  `json:"createdAt"`
}

func toDocumentResponse(d *models.Document) documentResponse {
	r := documentResponse{
		ID:             d.ID,
		SubjectID:      d.SubjectID,
		DocumentTypeID: d.DocumentTypeID,
		ExpiryDate:     d.ExpiryDate.Format(dateLayout),
		Status:         d.Status,
		HasAttachment:  d.AttachmentKey != nil,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
	if d.DeactivatedAt != nil {
		s := d.DeactivatedAt.Format(time.RFC3339)
		r.DeactivatedAt = &s
	}
	return r
}

type subjectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type reminderResponse struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
	SentAt  string `json:"sentAt"`
}

type preferencePayload struct {
	AnticipationDays int      `json:"anticipationDays"`
	Channels         []string `json:"channels"`
	Frequency        string   `json:"frequency"`
	WebhookURL       *string  `json:"webhookUrl,omitempty"`
}

// apiError maps service errors of the authenticated API to HTTP statuses.
func (s *HTTPServer) apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrorInternal.Error()})
	}
}

func (s *HTTPServer) handleScanRun(c *gin.Context) {
	summary, err := s.scan.Run(c.Request.Context(), time.Now())
	if err != nil {
		s.logger.Error(c.Request.Context(), "scan run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "scan failed"})
		return
	}

	results := make([]gin.H, 0, len(summary.Results))
	for _, r := range summary.Results {
		results = append(results, gin.H{
			"docId":    r.DocumentID,
			"days":     r.DaysRemaining,
			"status":   r.Status,
			"channels": r.Channels,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   gin.H{"processed": summary.Processed, "notified": summary.Notified},
		"results": results,
	})
}

func (s *HTTPServer) handleTokenInfo(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	info, err := s.documents.InspectToken(c.Request.Context(), raw, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		case errors.Is(err, common.ErrTokenUsed):
			c.JSON(http.StatusGone, gin.H{"error": "token already used"})
		case errors.Is(err, common.ErrTokenExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "token expired"})
		case errors.Is(err, common.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		default:
			s.logger.Error(c.Request.Context(), "token inspect failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrorInternal.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documentId":  info.DocumentID,
		"action":      info.Action,
		"subjectName": info.SubjectName,
		"typeName":    info.TypeName,
		"expiryDate":  info.ExpiryDate.Format(dateLayout),
		"expiresAt":   info.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleUpdate(c *gin.Context) {
	var req struct {
		Token         string `json:"token"`
		Action        string `json:"action"`
		NewExpiryDate string `json:"newExpiryDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and action are required"})
		return
	}

	var newExpiry *time.Time
	if req.NewExpiryDate != "" {
		d, err := time.Parse(dateLayout, req.NewExpiryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "newExpiryDate must be YYYY-MM-DD"})
			return
		}
		newExpiry = &d
	}

	res, err := s.documents.ApplyTokenAction(c.Request.Context(), req.Token, req.Action, newExpiry, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenNotFound), errors.Is(err, common.ErrorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		case errors.Is(err, common.ErrInvalidToken),
			errors.Is(err, common.ErrTokenUsed),
			errors.Is(err, common.ErrTokenExpired),
			errors.Is(err, common.ErrActionMismatch),
			errors.Is(err, common.ErrDateNotInFuture),
			errors.Is(err, common.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.logger.Error(c.Request.Context(), "token action failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": common.ErrorInternal.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document":           toDocumentResponse(res.Document),
		"previousExpiryDate": res.PreviousExpiry.Format(dateLayout),
		"newExpiryDate":      res.NewExpiry.Format(dateLayout),
	})
}

func (s *HTTPServer) handleCreateSubject(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	subject, err := s.documents.CreateSubject(c.Request.Context(), ownerID(c), req.Name)
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subjectResponse{ID: subject.ID, Name: subject.Name})
}

func (s *HTTPServer) handleListSubjects(c *gin.Context) {
	subjects, err := s.documents.ListSubjects(c.Request.Context(), ownerID(c))
	if err != nil {
		s.apiError(c, err)
		return
	}

	result := make([]subjectResponse, 0, len(subjects))
	for _, sub := range subjects {
		result = append(result, subjectResponse{ID: sub.ID, Name: sub.Name})
	}
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) handleCreateDocument(c *gin.Context) {
	var req struct {
		SubjectID      string `json:"subjectId"`
		DocumentTypeID string `json:"documentTypeId"`
		ExpiryDate     string `json:"expiryDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SubjectID == "" || req.DocumentTypeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subjectId, documentTypeId and expiryDate are required"})
		return
	}

	expiry, err := time.Parse(dateLayout, req.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiryDate must be YYYY-MM-DD"})
		return
	}

	doc, err := s.documents.CreateDocument(c.Request.Context(), ownerID(c), req.SubjectID, req.DocumentTypeID, expiry)
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (s *HTTPServer) handleListDocuments(c *gin.Context) {
	docs, err := s.documents.ListDocuments(c.Request.Context(), ownerID(c))
	if err != nil {
		s.apiError(c, err)
		return
	}

	result := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		result = append(result, toDocumentResponse(d))
	}
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) handleGetDocument(c *gin.Context) {
	doc, err := s.documents.GetDocument(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *HTTPServer) handleDeleteDocument(c *gin.Context) {
	if err := s.documents.DeleteDocument(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		s.apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) handleListReminders(c *gin.Context) {
	reminders, err := s.documents.ListReminders(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}

	result := make([]reminderResponse, 0, len(reminders))
	for _, r := range reminders {
		result = append(result, reminderResponse{
			ID:      r.ID,
			Channel: r.Channel,
			Status:  r.Status,
			SentAt:  r.SentAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) handleDeactivateLink(c *gin.Context) {
	url, err := s.documents.IssueDeactivateLink(c.Request.Context(), ownerID(c), c.Param("id"), time.Now())
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (s *HTTPServer) handlePresignUpload(c *gin.Context) {
	url, key, err := s.attachments.PresignUpload(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uploadUrl": url, "key": key})
}

func (s *HTTPServer) handlePresignDownload(c *gin.Context) {
	url, err := s.attachments.PresignDownload(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (s *HTTPServer) handleGetPreference(c *gin.Context) {
	pref, err := s.documents.GetPreference(c.Request.Context(), ownerID(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferencePayload{
		AnticipationDays: pref.AnticipationDays,
		Channels:         pref.Channels,
		Frequency:        pref.Frequency,
		WebhookURL:       pref.WebhookURL,
	})
}

func (s *HTTPServer) handlePutPreference(c *gin.Context) {
	var req preferencePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	pref := &models.NotificationPreference{
		OwnerID:          ownerID(c),
		AnticipationDays: req.AnticipationDays,
		Channels:         req.Channels,
		Frequency:        req.Frequency,
		WebhookURL:       req.WebhookURL,
	}
	if err := s.documents.PutPreference(c.Request.Context(), pref); err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, preferencePayload{
		AnticipationDays: pref.AnticipationDays,
		Channels:         pref.Channels,
		Frequency:        pref.Frequency,
		WebhookURL:       pref.WebhookURL,
	})
}
