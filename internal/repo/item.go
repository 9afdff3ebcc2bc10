package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/canteen/internal/models"
)

// UpsertItems writes the catalog into the items table, updating rows that
// already exist.
func (r *GormRepo) UpsertItems(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "image"}),
	}).Create(&items).Error
}

func (r *GormRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
