package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/medflow/internal/models"
)

func (r *GormRepo) ListToolSettings(ctx context.Context) ([]models.AdminToolSettings, error) {
	items := []models.AdminToolSettings{}
	err := r.DB.WithContext(ctx).Order("tool_type ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) GetToolSettings(ctx context.Context, tool string) (*models.AdminToolSettings, error) {
	var s models.AdminToolSettings
	if err := r.DB.WithContext(ctx).Where("tool_type = ?", tool).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// UpsertToolSettings writes the blob for s.ToolType; the last writer wins.
func (r *GormRepo) UpsertToolSettings(ctx context.Context, s *models.AdminToolSettings) (*models.AdminToolSettings, error) {
	s.UpdatedAt = time.Now().UTC()
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tool_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	return r.GetToolSettings(ctx, s.ToolType)
}

func (r *GormRepo) ListAdminSettings(ctx context.Context) ([]models.AdminSettings, error) {
	items := []models.AdminSettings{}
	err := r.DB.WithContext(ctx).Order("category ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) GetAdminSettings(ctx context.Context, category string) (*models.AdminSettings, error) {
	var s models.AdminSettings
	if err := r.DB.WithContext(ctx).Where("category = ?", category).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepo) UpsertAdminSettings(ctx context.Context, s *models.AdminSettings) (*models.AdminSettings, error) {
	s.UpdatedAt = time.Now().UTC()
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	return r.GetAdminSettings(ctx, s.Category)
}
