package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	maxContactField   = 200
	maxContactMessage = 5000
)

// ContactService handles the storefront contact form: the sender gets a
// thank-you note and the store admin a copy of the message.
type ContactService struct {
	mailer     port.Mailer
	adminEmail string
	storeName  string
	log        *logrus.Logger
}

// NewContactService skips the admin notification when adminEmail is empty.
func NewContactService(mailer port.Mailer, adminEmail, storeName string, log *logrus.Logger) *ContactService {
	if storeName == "" {
		storeName = "Storefront"
	}
	return &ContactService{mailer: mailer, adminEmail: adminEmail, storeName: storeName, log: log}
}

func (s *ContactService) Submit(ctx context.Context, msg domain.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.ToLower(strings.TrimSpace(msg.Email))
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)
	if err := validateContact(msg); err != nil {
		return err
	}

	thanks := domain.Email{
		To:      msg.Email,
		Subject: fmt.Sprintf("Thank you for contacting us - %s", s.storeName),
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"We received your message and will reply within 24 to 48 hours.\n\n"+
			"Your message:\n%s\n\n"+
			"The %s team\n", msg.Name, msg.Message, s.storeName),
	}
	if err := s.mailer.Send(ctx, thanks); err != nil {
		return fmt.Errorf("send thank-you email: %w", err)
	}

	log := s.log.WithField("subject", msg.Subject)
	if s.adminEmail == "" {
		log.Warn("no admin email configured, contact notification skipped")
		return nil
	}
	notice := domain.Email{
		To:      s.adminEmail,
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("New contact message: %s", msg.Subject),
		Body: fmt.Sprintf("Name: %s\nEmail: %s\nSubject: %s\n\n%s\n",
			msg.Name, msg.Email, msg.Subject, msg.Message),
	}
	if err := s.mailer.Send(ctx, notice); err != nil {
		return fmt.Errorf("send contact notification: %w", err)
	}

	log.Info("contact message delivered")
	return nil
}

func validateContact(msg domain.ContactMessage) error {
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return domain.Validationf("name, email, subject and message are required")
	}
	if !emailPattern.MatchString(msg.Email) {
		return domain.Validationf("invalid email")
	}
	if utf8.RuneCountInString(msg.Name) > maxContactField || utf8.RuneCountInString(msg.Subject) > maxContactField {
		return domain.Validationf("name and subject must be at most %d characters", maxContactField)
	}
	if utf8.RuneCountInString(msg.Message) > maxContactMessage {
		return domain.Validationf("message must be at most %d characters", maxContactMessage)
	}
	if strings.ContainsAny(msg.Name+msg.Subject, "\r\n") {
		return domain.Validationf("name and subject must be a single line")
	}
	return nil
}
