package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/transport"
)

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// UpsertUser creates the user with default role and tier when id is unknown, otherwise
// overwrites the identity fields only.
func (r *GormRepo) UpsertUser(ctx context.Context, in transport.UpsertUser) (*models.User, bool, error) {
	var (
		out     models.User
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", in.ID).First(&out).Error
		if err != nil && !isNotFound(err) {
			return err
		}
		if isNotFound(err) {
			out = models.User{
				ID:              in.ID,
				Email:           in.Email,
				FirstName:       in.FirstName,
				LastName:        in.LastName,
				ProfileImageURL: in.ProfileImageURL,
				Role:            models.RoleUser,
				Tier:            models.TierStandard,
				IsActive:        true,
			}
			created = true
			return tx.Create(&out).Error
		}
		out.Email = in.Email
		out.FirstName = in.FirstName
		out.LastName = in.LastName
		out.ProfileImageURL = in.ProfileImageURL
		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return &out, created, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, upd transport.UpdateUser) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", upd.ID).First(&u).Error; err != nil {
			return err
		}
		upd.Apply(&u)
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormRepo) SetUserRole(ctx context.Context, id string, role models.Role) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// DeleteUser removes the user together with its key bindings and extension settings.
// Activity logs and security incidents keep the dangling user id.
func (r *GormRepo) DeleteUser(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.KeyBinding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ExtensionSettings{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func isNotFound(err error) bool {
	return translate(err) == ErrNotFound
}
