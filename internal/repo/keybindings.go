package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/medflow/internal/models"
)

func (r *GormRepo) ListKeyBindings(ctx context.Context, userID string, activeOnly bool) ([]models.KeyBinding, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	items := []models.KeyBinding{}
	if err := q.Order("category ASC").Order("shortcut ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetKeyBinding(ctx context.Context, id uint) (*models.KeyBinding, error) {
	var kb models.KeyBinding
	if err := r.DB.WithContext(ctx).First(&kb, id).Error; err != nil {
		return nil, translate(err)
	}
	return &kb, nil
}

// ActiveShortcutExists reports whether userID already has an active binding with the
// given shortcut, ignoring the binding with id exclude.
func (r *GormRepo) ActiveShortcutExists(ctx context.Context, userID, shortcut string, exclude uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.KeyBinding{}).
		Where("user_id = ? AND shortcut = ? AND is_active = ?", userID, shortcut, true)
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateKeyBinding(ctx context.Context, kb *models.KeyBinding) error {
	return translate(r.DB.WithContext(ctx).Create(kb).Error)
}

func (r *GormRepo) SaveKeyBinding(ctx context.Context, kb *models.KeyBinding) error {
	return translate(r.DB.WithContext(ctx).Save(kb).Error)
}

func (r *GormRepo) DeleteKeyBinding(ctx context.Context, id uint, userID string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.KeyBinding{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchKeyBindings is the database fallback for template search: a case-insensitive
// substring match on shortcut, template and category.
func (r *GormRepo) SearchKeyBindings(ctx context.Context, userID, q string, offset, limit int) (int64, []models.KeyBinding, error) {
	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "user_id = ? AND (LOWER(shortcut) LIKE ? ESCAPE '\\' OR LOWER(template) LIKE ? ESCAPE '\\' OR LOWER(category) LIKE ? ESCAPE '\\')"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.KeyBinding{}).
		Where(where, userID, like, like, like).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.KeyBinding, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(where, userID, like, like, like).
		Order("shortcut ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
