package mailer

import (
	"errors"
	"fmt"
	"time"
)

const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"

	ResendAPIURL   = "https://api.resend.com"
	SendGridAPIURL = "https://api.sendgrid.com"

	pathResendEmails     = "/emails"
	pathSendGridMailSend = "/v3/mail/send"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerMessageID     = "X-Message-Id"
	authBearerPrefix    = "Bearer "
	mimeJSON            = "application/json"
	mimeTextHTML        = "text/html"
	mimeTextPlain       = "text/plain"

	// Provider error bodies are truncated before they reach logs.
	maxErrorBodyBytes = 512

	DefaultHTTPTimeout = 10 * time.Second

	errSubjectRequiredMsg = "subject is required"
	errBodyRequiredMsg    = "html body is required"
)

var (
	ErrNoProviders        = errors.New("no email providers configured")
	ErrAPIKeyRequired     = errors.New("API key is required")
	ErrRecipientRequired  = errors.New("at least one recipient is required")
	ErrInvalidFromAddress = errors.New("invalid from address")
)

var (
	errInvalidRecipient = func(addr string) error {
		return fmt.Errorf("invalid recipient address: %q", addr)
	}
	errProviderStatus = func(provider string, status int, body string) error {
		return fmt.Errorf("%s: unexpected status %d: %s", provider, status, body)
	}
	errProviderRequest = func(provider string, err error) error {
		return fmt.Errorf("%s: request failed: %w", provider, err)
	}
	errRenderTemplate = func(name string, err error) error {
		return fmt.Errorf("render %s template: %w", name, err)
	}
)
