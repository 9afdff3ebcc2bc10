package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/repo"
)

var paymentMethods = map[string]bool{
	"card":       true,
	"upi":        true,
	"cash":       true,
	"netbanking": true,
}

type PaymentService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

// ProcessPayment records the single payment of a pending order and marks the
// order paid in the same transaction. A second call for the same order fails
// with ErrConflict and changes nothing.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID uuid.UUID, amount int64, method string) (*models.Payment, error) {
	method = strings.ToLower(strings.TrimSpace(method))

	var payment *models.Payment
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return storageErr(err, "order")
		}
		if order.Payment != nil {
			return fmt.Errorf("%w: order already paid", ErrConflict)
		}
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		if total := order.ItemsTotal(); amount != total {
			return fmt.Errorf("%w: amount %d does not match order total %d", ErrValidation, amount, total)
		}
		if !paymentMethods[method] {
			return fmt.Errorf("%w: unsupported payment method %q", ErrValidation, method)
		}
		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: cannot pay a %s order", ErrInvalidTransition, order.Status)
		}

		ts := now()
		payment = &models.Payment{
			OrderID:     orderID,
			Amount:      amount,
			Method:      method,
			Status:      models.PaymentStatusCompleted,
			ProcessedAt: ts,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return storageErr(err, "payment")
		}

		ok, err := tx.SetOrderStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid, ts)
		if err != nil {
			return storageErr(err, "order")
		}
		if !ok {
			return fmt.Errorf("%w: order status changed concurrently", ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicPaymentEvents, orderID.String(), map[string]any{
		"type":      "payment_processed",
		"paymentID": payment.ID,
		"orderID":   orderID,
		"amount":    payment.Amount,
		"method":    payment.Method,
	})

	return payment, nil
}

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	p, err := s.Repo.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, storageErr(err, "payment")
	}
	return p, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, offset, limit int) (int64, []models.Payment, error) {
	return s.Repo.ListPayments(ctx, offset, limit)
}
