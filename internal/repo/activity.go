package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
)

// AppendActivity is the only write path for activity logs.
func (r *GormRepo) AppendActivity(ctx context.Context, a *models.ActivityLog) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) ListActivity(ctx context.Context, userID string, offset, limit int) (int64, []models.ActivityLog, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.ActivityLog, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CountActivitySince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ActivityLog{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}
