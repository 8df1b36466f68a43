package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/medflow/internal/models"
)

func (r *GormRepo) CreateIncident(ctx context.Context, inc *models.SecurityIncident) error {
	return r.DB.WithContext(ctx).Create(inc).Error
}

// ListIncidents returns incidents newest first. A nil resolved lists both states.
func (r *GormRepo) ListIncidents(ctx context.Context, resolved *bool, offset, limit int) (int64, []models.SecurityIncident, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if resolved != nil {
			return db.Where("resolved = ?", *resolved)
		}
		return db
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.SecurityIncident{}).Scopes(scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.SecurityIncident, 0, limit)
	if err := r.DB.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ResolveIncident marks the incident resolved. Resolving twice keeps the first resolved_at.
func (r *GormRepo) ResolveIncident(ctx context.Context, id uint, at time.Time) (*models.SecurityIncident, error) {
	var inc models.SecurityIncident
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inc, id).Error; err != nil {
			return err
		}
		if inc.Resolved {
			return nil
		}
		inc.Resolved = true
		inc.ResolvedAt = &at
		return tx.Save(&inc).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &inc, nil
}
