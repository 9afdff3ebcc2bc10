package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/repo"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Catalog *catalog.Catalog
	Events  Publisher
}

func now() time.Time {
	return time.Now().UTC()
}

// CreateOrder snapshots catalog prices into new order lines and stores the
// order and its lines in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, lines []models.LineItem) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	if len(lines) > models.MaxOrderLines {
		return nil, fmt.Errorf("%w: at most %d lines per order", ErrValidation, models.MaxOrderLines)
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for i, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: items[%d]: quantity must be > 0", ErrValidation, i)
		}
		if line.Quantity > models.MaxLineQuantity {
			return nil, fmt.Errorf("%w: items[%d]: quantity must be <= %d", ErrValidation, i, models.MaxLineQuantity)
		}
		it, ok := s.Catalog.Lookup(line.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: items[%d]: unknown item %d", ErrValidation, i, line.ItemID)
		}

		oi := models.OrderItem{
			ItemID:    it.ID,
			Name:      it.Name,
			Quantity:  line.Quantity,
			UnitPrice: it.Price,
		}
		total += oi.LineTotal()
		items = append(items, oi)
	}

	order := &models.Order{
		UserID: userID,
		Status: models.OrderStatusPending,
		Total:  total,
		Items:  items,
	}

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return storageErr(err, "user")
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return storageErr(err, "order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrderEvents, order.ID.String(), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"total":   order.Total,
		"items":   len(order.Items),
	})

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, storageErr(err, "order")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, offset, limit)
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, offset, limit)
}

// UpdateStatus applies one step of the order state machine. Orders become
// paid only through payment processing.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	to := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var (
		from    models.OrderStatus
		updated *models.Order
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return storageErr(err, "order")
		}
		from = order.Status

		if !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		if to == models.OrderStatusPaid && order.Payment == nil {
			return fmt.Errorf("%w: order has no payment", ErrConflict)
		}

		ok, err := tx.SetOrderStatus(ctx, id, from, to, now())
		if err != nil {
			return storageErr(err, "order")
		}
		if !ok {
			return fmt.Errorf("%w: order status changed concurrently", ErrInvalidTransition)
		}

		updated, err = tx.GetOrder(ctx, id)
		if err != nil {
			return storageErr(err, "order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrderEvents, id.String(), map[string]any{
		"type":    "order_status_changed",
		"orderID": id,
		"from":    from,
		"to":      to,
	})

	return updated, nil
}

// DeleteOrder removes an unpaid order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return storageErr(err, "order")
		}
		if order.Payment != nil {
			return fmt.Errorf("%w: order has a payment", ErrConflict)
		}
		if err := tx.DeleteOrder(ctx, id); err != nil {
			return storageErr(err, "order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.Events, TopicOrderEvents, id.String(), map[string]any{
		"type":    "order_deleted",
		"orderID": id,
	})
	return nil
}
