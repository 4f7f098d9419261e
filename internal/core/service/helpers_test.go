package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testProduct(id string, price int64, stock int) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        "Product " + id,
		Description: "a product used in tests",
		Price:       price,
		Category:    domain.CategoryAccessories,
		Stock:       stock,
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// recordingMailer keeps every message it is asked to send; failAt makes the
// n-th send (1-based) fail.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []domain.Email
	failAt int
}

var errMailDown = errors.New("smtp unavailable")

func (m *recordingMailer) Send(ctx context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt == len(m.sent)+1 {
		return errMailDown
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) messages() []domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Email(nil), m.sent...)
}
