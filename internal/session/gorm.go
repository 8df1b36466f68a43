package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/medflow/internal/hash"
	"github.com/Skotchmaster/medflow/internal/models"
)

type GormStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

func (s *GormStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s *GormStore) Create(ctx context.Context, data Data) (string, time.Time, error) {
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session token: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", time.Time{}, err
	}
	expire := time.Now().UTC().Add(s.ttl())
	row := models.Session{SID: hash.Sha256Hex(token), Sess: raw, Expire: expire}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expire, nil
}

func (s *GormStore) Get(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var row models.Session
	err := s.DB.WithContext(ctx).
		Where("sid = ? AND expire > ?", hash.Sha256Hex(token), time.Now().UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var data Data
	if err := json.Unmarshal(row.Sess, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

func (s *GormStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.DB.WithContext(ctx).Where("sid = ?", hash.Sha256Hex(token)).Delete(&models.Session{}).Error
}

// Prune deletes expired rows and returns how many were removed.
func (s *GormStore) Prune(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expire <= ?", time.Now().UTC()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// RunPruner calls Prune every interval until ctx is done.
func (s *GormStore) RunPruner(ctx context.Context, interval time.Duration, l *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Prune(ctx)
			if err != nil {
				l.Error("session_prune_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("session_prune", "removed", n)
			}
		}
	}
}
