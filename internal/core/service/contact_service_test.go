package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rl1809/storefront/internal/core/domain"
)

var validContact = domain.ContactMessage{
	Name:    " Ana Torres ",
	Email:   "Ana@Example.com",
	Subject: "Sizes",
	Message: "Do the boots come in 38?",
}

func TestContactSubmit_SendsThanksAndNotification(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewContactService(mailer, "admin@store.example", "Mar Store", testLogger())

	if err := svc.Submit(context.Background(), validContact); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	sent := mailer.messages()
	if len(sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sent))
	}
	if sent[0].To != "ana@example.com" || !strings.Contains(sent[0].Body, "Hello Ana Torres") {
		t.Errorf("unexpected thank-you email %+v", sent[0])
	}
	if sent[1].To != "admin@store.example" || sent[1].ReplyTo != "ana@example.com" {
		t.Errorf("unexpected notification %+v", sent[1])
	}
	if !strings.Contains(sent[1].Body, "Do the boots come in 38?") {
		t.Errorf("notification is missing the message: %q", sent[1].Body)
	}
}

func TestContactSubmit_NoAdminSkipsNotification(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewContactService(mailer, "", "", testLogger())

	if err := svc.Submit(context.Background(), validContact); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if n := len(mailer.messages()); n != 1 {
		t.Errorf("expected only the thank-you email, got %d", n)
	}
}

func TestContactSubmit_Validation(t *testing.T) {
	cases := map[string]func(m *domain.ContactMessage){
		"missing name":      func(m *domain.ContactMessage) { m.Name = "  " },
		"missing message":   func(m *domain.ContactMessage) { m.Message = "" },
		"bad email":         func(m *domain.ContactMessage) { m.Email = "ana@example" },
		"multiline subject": func(m *domain.ContactMessage) { m.Subject = "hi\r\nBcc: x@example.com" },
		"long message":      func(m *domain.ContactMessage) { m.Message = strings.Repeat("a", maxContactMessage+1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			mailer := &recordingMailer{}
			svc := NewContactService(mailer, "admin@store.example", "", testLogger())
			msg := validContact
			mutate(&msg)

			err := svc.Submit(context.Background(), msg)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
			if n := len(mailer.messages()); n != 0 {
				t.Errorf("expected no email, got %d", n)
			}
		})
	}
}

func TestContactSubmit_MailerFailure(t *testing.T) {
	for _, failAt := range []int{1, 2} {
		mailer := &recordingMailer{failAt: failAt}
		svc := NewContactService(mailer, "admin@store.example", "", testLogger())

		err := svc.Submit(context.Background(), validContact)
		if !errors.Is(err, errMailDown) {
			t.Errorf("send %d failing: expected errMailDown, got: %v", failAt, err)
		}
	}
}
