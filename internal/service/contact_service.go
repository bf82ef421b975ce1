package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/notify"
	"portfolio/internal/provider"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

// ContactInput is a submission of the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
	// Website is a honeypot; humans never see the field.
	Website string
	IP      string
}

// ContactService stores contact messages and forwards them to the owner.
type ContactService struct {
	messages  *repository.MessageRepository
	email     *EmailService
	notifier  notify.Notifier
	recipient string
	log       *zap.Logger
}

func NewContactService(messages *repository.MessageRepository, email *EmailService, notifier notify.Notifier,
	recipient string, log *zap.Logger) *ContactService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{messages: messages, email: email, notifier: notifier, recipient: recipient, log: log}
}

// Submit validates and stores a message, then tries every delivery channel.
// A spam submission caught by the honeypot returns nil without side effects.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*model.ContactMessage, error) {
	if strings.TrimSpace(input.Website) != "" {
		s.log.Info("contact honeypot triggered", zap.String("ip", input.IP))
		return nil, nil
	}
	msg, err := validateContact(input)
	if err != nil {
		return nil, err
	}
	if err := s.messages.CreateContact(ctx, msg); err != nil {
		return nil, err
	}

	delivered := false
	if s.email != nil && s.email.Configured() && s.recipient != "" {
		_, err := s.email.Send(ctx, provider.Email{
			To:      s.recipient,
			Subject: "Portfolio contact: " + msg.Subject,
			HTML:    strings.ReplaceAll(contactHTML(msg), "\n", "<br>"),
			Text:    contactText(msg),
			ReplyTo: msg.Email,
		})
		if err != nil {
			s.log.Warn("contact email failed", zap.Uint("contact_id", msg.ID), zap.Error(err))
		} else {
			delivered = true
		}
	}
	if err := s.notifier.Notify(ctx, contactHTML(msg)); err != nil {
		s.log.Warn("contact notification failed", zap.Uint("contact_id", msg.ID), zap.Error(err))
	} else if _, nop := s.notifier.(notify.Nop); !nop {
		delivered = true
	}

	if delivered {
		if err := s.messages.MarkDelivered(ctx, msg); err != nil {
			s.log.Warn("mark contact delivered", zap.Uint("contact_id", msg.ID), zap.Error(err))
		}
	}
	return msg, nil
}

func validateContact(input ContactInput) (*model.ContactMessage, error) {
	if sanitize.ContainsScript(input.Name) || sanitize.ContainsScript(input.Subject) || sanitize.ContainsScript(input.Message) {
		return nil, apperr.Invalid("message", "must not contain scripts")
	}
	name := sanitize.Text(input.Name, 0)
	switch n := len([]rune(name)); {
	case n == 0:
		return nil, apperr.Invalid("name", "is required")
	case n > 100:
		return nil, apperr.Invalid("name", "must be at most 100 characters")
	}
	email, ok := sanitize.Email(input.Email)
	if !ok {
		return nil, apperr.Invalid("email", "is not a valid address")
	}
	subject := sanitize.Text(input.Subject, 0)
	if len([]rune(subject)) > 200 {
		return nil, apperr.Invalid("subject", "must be at most 200 characters")
	}
	if subject == "" {
		subject = "New message"
	}
	message := sanitize.Text(input.Message, 0)
	switch n := len([]rune(message)); {
	case n < 10:
		return nil, apperr.Invalid("message", "must be at least 10 characters")
	case n > 5000:
		return nil, apperr.Invalid("message", "must be at most 5000 characters")
	}
	return &model.ContactMessage{Name: name, Email: email, Subject: subject, Message: message, IP: input.IP}, nil
}

func contactHTML(msg *model.ContactMessage) string {
	return fmt.Sprintf("📬 <b>%s</b>\nFrom: %s &lt;%s&gt;\n\n%s",
		html.EscapeString(msg.Subject), html.EscapeString(msg.Name), html.EscapeString(msg.Email), html.EscapeString(msg.Message))
}

func contactText(msg *model.ContactMessage) string {
	return fmt.Sprintf("%s\nFrom: %s <%s>\n\n%s", msg.Subject, msg.Name, msg.Email, msg.Message)
}
