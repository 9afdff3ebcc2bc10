package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/canteen/internal/models"
)

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CountPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (r *GormRepo) ListPayments(ctx context.Context, offset, limit int) (int64, []models.Payment, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Payment{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	payments := make([]models.Payment, 0, limit)
	if err := r.DB.WithContext(ctx).
		Order("processed_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&payments).Error; err != nil {
		return 0, nil, err
	}
	return total, payments, nil
}
