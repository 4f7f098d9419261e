package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CheckoutService turns an account's cart into a pending order. Payment is
// not processed; the order stays pending.
type CheckoutService struct {
	carts  port.AccountCartAPI
	orders port.OrderRepository
	log    *logrus.Logger
}

func NewCheckoutService(carts port.AccountCartAPI, orders port.OrderRepository, log *logrus.Logger) *CheckoutService {
	return &CheckoutService{carts: carts, orders: orders, log: log}
}

func (s *CheckoutService) Checkout(ctx context.Context, accountID string) (domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, accountID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get cart: %w", err)
	}
	if len(cart) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Lines:     make([]domain.OrderLine, 0, len(cart)),
		Total:     cart.Total(),
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, e := range cart {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: e.Product.ID,
			Name:      e.Product.Name,
			UnitPrice: e.Product.Price,
			Quantity:  e.Quantity,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	// The order is already committed; a failed clear leaves a stale cart the
	// customer can empty by hand.
	if _, err := s.carts.ClearCart(ctx, accountID); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("cart not cleared after checkout")
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"account_id": accountID,
		"total":      order.Total,
	}).Info("order created")
	return order, nil
}
