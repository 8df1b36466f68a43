package repo

import (
	"context"

	"github.com/Skotchmaster/medflow/internal/models"
)

// LatestExtensionSettings returns the most recently created settings row of the user.
func (r *GormRepo) LatestExtensionSettings(ctx context.Context, userID string) (*models.ExtensionSettings, error) {
	var es models.ExtensionSettings
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&es).Error; err != nil {
		return nil, translate(err)
	}
	return &es, nil
}

// SaveExtensionSettings inserts es when it has no id yet and updates it otherwise.
func (r *GormRepo) SaveExtensionSettings(ctx context.Context, es *models.ExtensionSettings) error {
	return translate(r.DB.WithContext(ctx).Save(es).Error)
}
