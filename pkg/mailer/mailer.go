// Package mailer sends transactional email through HTTP providers, falling
// over to the next provider when one fails.
package mailer

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string
	Subject string
	HTML    string
	Text    string
}

// Provider delivers a message and returns the provider's message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg *Message) (string, error)
}

// Service tries each provider in order until one accepts the message.
type Service struct {
	from      string
	providers []Provider
}

func NewService(from string, providers ...Provider) (*Service, error) {
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, ErrInvalidFromAddress
	}
	list := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	if len(list) == 0 {
		return nil, ErrNoProviders
	}
	return &Service{from: from, providers: list}, nil
}

// Send fills in the default sender, validates msg and delivers it. The
// returned error joins every provider failure.
func (s *Service) Send(ctx context.Context, msg *Message) (string, error) {
	out := *msg
	out.To = append([]string(nil), msg.To...)
	if out.From == "" {
		out.From = s.from
	}
	if err := Validate(&out); err != nil {
		return "", err
	}

	var errs []error
	for _, p := range s.providers {
		id, err := p.Send(ctx, &out)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

// Providers lists provider names in failover order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

func Validate(msg *Message) error {
	if len(msg.To) == 0 {
		return ErrRecipientRequired
	}
	for _, to := range msg.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return errInvalidRecipient(to)
		}
	}
	if _, err := mail.ParseAddress(msg.From); err != nil {
		return ErrInvalidFromAddress
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New(errSubjectRequiredMsg)
	}
	if msg.HTML == "" {
		return errors.New(errBodyRequiredMsg)
	}
	return nil
}
