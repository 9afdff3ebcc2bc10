package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/canteen/internal/models"
)

// CreateOrder inserts the order together with its items.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

// GetOrder loads the whole aggregate: the order, its items and its payment.
func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, r.DB.WithContext(ctx).Model(&models.Order{}), offset, limit)
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.listOrders(ctx, q, offset, limit)
}

func (r *GormRepo) listOrders(ctx context.Context, q *gorm.DB, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Session(&gorm.Session{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Preload("Payment").
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// SetOrderStatus moves the order from one status to another only if it is
// still in from. It reports whether a row was changed.
func (r *GormRepo) SetOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOrder removes the order and its items.
func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}

	res := db.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
