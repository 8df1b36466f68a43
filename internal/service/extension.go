package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/tokens"
	"github.com/Skotchmaster/medflow/internal/transport"
)

const DefaultExtensionTokenTTL = 30 * 24 * time.Hour

type ExtensionService struct {
	Repo      *repo.GormRepo
	Activity  *ActivityService
	JWTSecret []byte
	TokenTTL  time.Duration
}

// Get returns the user's current settings. A user that never saved any gets an
// unsaved default record with ID 0.
func (s *ExtensionService) Get(ctx context.Context, userID string) (*models.ExtensionSettings, error) {
	es, err := s.Repo.LatestExtensionSettings(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &models.ExtensionSettings{UserID: userID, IsEnabled: true, Settings: json.RawMessage(`{}`)}, nil
	}
	return es, err
}

// Update edits the latest settings row, creating it on first write. sync marks the
// write as coming from the extension itself.
func (s *ExtensionService) Update(ctx context.Context, a Actor, req transport.UpdateExtensionSettings, sync bool) (*models.ExtensionSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	es, err := s.Get(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	req.Apply(es)
	if sync {
		now := time.Now().UTC()
		es.LastSync = &now
	}
	if err := s.Repo.SaveExtensionSettings(ctx, es); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, a, ActionExtensionUpdate, map[string]any{"is_enabled": es.IsEnabled, "sync": sync})
	return es, nil
}

func (s *ExtensionService) IssueToken(ctx context.Context, a Actor) (string, time.Time, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultExtensionTokenTTL
	}
	tok, exp, err := tokens.SignExtension(a.UserID, string(a.Role), ttl, s.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	s.Activity.Record(ctx, a, ActionExtensionToken, map[string]any{"expires_at": exp})
	return tok, exp, nil
}
