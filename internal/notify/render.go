package notify

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/dmitrijs2005/dockeeper/internal/server/models"
)

const emailBodyTemplate = `Hello {{.OwnerName}},

{{.Lead}}

  Subject:     {{.SubjectName}}
  Document:    {{.TypeName}}
  Expiry date: {{.ExpiryDate}}

You can renew this document directly, no login required:

  {{.ActionURL}}

The link is valid for a limited time and can be used only once.
`

var emailTmpl = template.Must(template.New("email").Parse(emailBodyTemplate))

// RenderInput is everything a channel rendering needs.
type RenderInput struct {
	Doc           *models.DocumentContext
	DaysRemaining int
	// RawToken is the freshly issued single-use token; it appears only in the
	// action URL, never in logs or stored messages.
	RawToken string
}

// Renderer turns a due document into channel-specific messages. The base URL
// points at the public, unauthenticated action page.
type Renderer struct {
	publicBaseURL string
}

func NewRenderer(publicBaseURL string) *Renderer {
	return &Renderer{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// ActionURL builds the public link carrying the token.
func (r *Renderer) ActionURL(rawToken string) string {
	return r.publicBaseURL + "/renew?token=" + url.QueryEscape(rawToken)
}

func lead(in *RenderInput) string {
	d := in.DaysRemaining
	typeName := in.Doc.TypeName
	switch {
	case d > 1:
		return fmt.Sprintf("Your %s expires in %d days.", typeName, d)
	case d == 1:
		return fmt.Sprintf("Your %s expires tomorrow.", typeName)
	case d == 0:
		return fmt.Sprintf("Your %s expires today.", typeName)
	default:
		return fmt.Sprintf("Your %s expired %d day(s) ago.", typeName, -d)
	}
}

// Email renders the subject line and plain-text body for the email channel.
func (r *Renderer) Email(in *RenderInput) (subject, body string, err error) {
	subject = fmt.Sprintf("Reminder: %s for %s expires %s",
		in.Doc.TypeName, in.Doc.SubjectName, in.Doc.ExpiryDate.Format("2006-01-02"))

	var sb strings.Builder
	err = emailTmpl.Execute(&sb, map[string]string{
		"OwnerName":   in.Doc.OwnerName,
		"Lead":        lead(in),
		"SubjectName": in.Doc.SubjectName,
		"TypeName":    in.Doc.TypeName,
		"ExpiryDate":  in.Doc.ExpiryDate.Format("2006-01-02"),
		"ActionURL":   r.ActionURL(in.RawToken),
	})
	if err != nil {
		return "", "", err
	}
	return subject, sb.String(), nil
}

// WebhookFields renders the structured payload for the webhook channel.
func (r *Renderer) WebhookFields(in *RenderInput) map[string]any {
	return map[string]any{
		"document_id":    in.Doc.ID,
		"subject":        in.Doc.SubjectName,
		"document_type":  in.Doc.TypeName,
		"expiry_date":    in.Doc.ExpiryDate.Format("2006-01-02"),
		"days_remaining": in.DaysRemaining,
		"action_url":     r.ActionURL(in.RawToken),
	}
}
