package notify

import (
	"context"

	"lab-service/internal/domain/notification"
	"lab-service/pkg/mailer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mailer delivers the email copy of a notification.
type Mailer interface {
	Send(ctx context.Context, msg *mailer.Message) (string, error)
}

// WithMailer mirrors every stored notification to the recipient's email.
func WithMailer(m Mailer) Option {
	return func(e *Emitter) {
		e.mailer = m
	}
}

type emailData struct {
	Name     string
	Title    string
	Status   string
	From     string
	To       string
	Role     string
	Decision string
	Comments string
}

const emailFooter = `<p>Sign in to the lab portal for details.</p>`

var emailTemplates = map[notification.Type]*mailer.Template{
	notification.TypeProjectSubmitted: mailer.MustTemplate(string(notification.TypeProjectSubmitted),
		`Project submitted for review: {{.Title}}`,
		`<p>Hello {{.Name}},</p><p>The project <strong>{{.Title}}</strong> is waiting for your review.</p>`+emailFooter,
		"Hello {{.Name}},\n\nThe project {{.Title}} is waiting for your review.\n",
	),
	notification.TypeReviewRequested: mailer.MustTemplate(string(notification.TypeReviewRequested),
		`Review requested: {{.Title}}`,
		`<p>Hello {{.Name}},</p><p>The project <strong>{{.Title}}</strong> has reached your review stage ({{.Status}}).</p>`+emailFooter,
		"Hello {{.Name}},\n\nThe project {{.Title}} has reached your review stage ({{.Status}}).\n",
	),
	notification.TypeApprovalDecision: mailer.MustTemplate(string(notification.TypeApprovalDecision),
		`Decision recorded on {{.Title}}: {{.Decision}}`,
		`<p>Hello {{.Name}},</p><p>The {{.Role}} recorded <strong>{{.Decision}}</strong> on <strong>{{.Title}}</strong>.</p>{{if .Comments}}<blockquote>{{.Comments}}</blockquote>{{end}}`+emailFooter,
		"Hello {{.Name}},\n\nThe {{.Role}} recorded {{.Decision}} on {{.Title}}.\n{{if .Comments}}\n{{.Comments}}\n{{end}}",
	),
	notification.TypeProjectApproved: mailer.MustTemplate(string(notification.TypeProjectApproved),
		`Project approved: {{.Title}}`,
		`<p>Hello {{.Name}},</p><p>Your project <strong>{{.Title}}</strong> is fully approved and can be started.</p>`+emailFooter,
		"Hello {{.Name}},\n\nYour project {{.Title}} is fully approved and can be started.\n",
	),
	notification.TypeProjectStatusChanged: mailer.MustTemplate(string(notification.TypeProjectStatusChanged),
		`Project {{.Title}} is now {{.To}}`,
		`<p>Hello {{.Name}},</p><p><strong>{{.Title}}</strong> moved from {{.From}} to {{.To}}.</p>`+emailFooter,
		"Hello {{.Name}},\n\n{{.Title}} moved from {{.From}} to {{.To}}.\n",
	),
	notification.TypeClientRequestSubmitted: mailer.MustTemplate(string(notification.TypeClientRequestSubmitted),
		`New client request: {{.Title}}`,
		`<p>Hello {{.Name}},</p><p>A client submitted the request <strong>{{.Title}}</strong>.</p>`+emailFooter,
		"Hello {{.Name}},\n\nA client submitted the request {{.Title}}.\n",
	),
	notification.TypeClientRequestUpdated: mailer.MustTemplate(string(notification.TypeClientRequestUpdated),
		`Client request {{.Title}} is {{.Status}}`,
		`<p>Hello {{.Name}},</p><p>The request <strong>{{.Title}}</strong> is now {{.Status}}.</p>`+emailFooter,
		"Hello {{.Name}},\n\nThe request {{.Title}} is now {{.Status}}.\n",
	),
}

// sendEmail is best effort: lookup, render and send failures are logged.
func (e *Emitter) sendEmail(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string) {
	tmpl, ok := emailTemplates[kind]
	if !ok {
		return
	}
	recipient, err := e.store.Principals().GetByID(ctx, userID)
	if err != nil {
		e.logger.Warn("notification email recipient lookup failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	if !recipient.IsActive {
		return
	}

	msg, err := tmpl.Render(emailData{
		Name:     recipient.FullName,
		Title:    payload[keyTitle],
		Status:   payload[keyStatus],
		From:     payload[keyFrom],
		To:       payload[keyTo],
		Role:     payload[keyRole],
		Decision: payload[keyDecision],
		Comments: payload[keyComments],
	}, recipient.Email)
	if err != nil {
		e.logger.Warn("notification email render failed", zap.String("type", string(kind)), zap.Error(err))
		return
	}

	id, err := e.mailer.Send(ctx, msg)
	if err != nil {
		e.logger.Warn("notification email failed",
			zap.String("user_id", userID.String()),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("notification email sent",
		zap.String("user_id", userID.String()),
		zap.String("type", string(kind)),
		zap.String("message_id", id),
	)
}
