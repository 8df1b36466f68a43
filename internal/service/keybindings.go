package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

// TemplateIndex is a full-text mirror of key bindings.
type TemplateIndex interface {
	Put(ctx context.Context, kb models.KeyBinding) error
	Remove(ctx context.Context, id uint) error
	RemoveUser(ctx context.Context, userID string) error
	Search(ctx context.Context, userID, query string, from, size int) (int64, []models.KeyBinding, error)
}

type KeyBindingService struct {
	Repo     *repo.GormRepo
	Activity *ActivityService
	Index    TemplateIndex
}

func (s *KeyBindingService) List(ctx context.Context, userID string, activeOnly bool) ([]models.KeyBinding, error) {
	return s.Repo.ListKeyBindings(ctx, userID, activeOnly)
}

// Create adds a binding owned by the actor. Shortcuts are unique among a user's
// active bindings.
func (s *KeyBindingService) Create(ctx context.Context, a Actor, req transport.NewKeyBinding) (*models.KeyBinding, error) {
	req.UserID = a.UserID
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kb := req.ToModel()
	if err := s.checkShortcut(ctx, &kb); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateKeyBinding(ctx, &kb); err != nil {
		return nil, err
	}
	s.index(ctx, kb)
	s.Activity.Record(ctx, a, ActionKeyBindingCreate, map[string]any{"id": kb.ID, "shortcut": kb.Shortcut})
	return &kb, nil
}

func (s *KeyBindingService) Update(ctx context.Context, a Actor, id uint, req transport.UpdateKeyBinding) (*models.KeyBinding, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kb, err := s.owned(ctx, a, id)
	if err != nil {
		return nil, err
	}
	req.Apply(kb)
	if err := s.checkShortcut(ctx, kb); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveKeyBinding(ctx, kb); err != nil {
		return nil, err
	}
	s.index(ctx, *kb)
	s.Activity.Record(ctx, a, ActionKeyBindingUpdate, map[string]any{"id": kb.ID, "shortcut": kb.Shortcut})
	return kb, nil
}

func (s *KeyBindingService) Delete(ctx context.Context, a Actor, id uint) error {
	if err := s.Repo.DeleteKeyBinding(ctx, id, a.UserID); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("template_index_remove_failed", "id", id, "error", err)
		}
	}
	s.Activity.Record(ctx, a, ActionKeyBindingDelete, map[string]any{"id": id})
	return nil
}

// Search looks up templates in the index when one is configured and falls back to the
// database when there is none or it fails.
func (s *KeyBindingService) Search(ctx context.Context, userID, query string, p util.Page) (int64, []models.KeyBinding, error) {
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, userID, query, p.Offset, p.Size)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("template_index_search_failed", "fallback", "database", "error", err)
	}
	return s.Repo.SearchKeyBindings(ctx, userID, query, p.Offset, p.Size)
}

func (s *KeyBindingService) owned(ctx context.Context, a Actor, id uint) (*models.KeyBinding, error) {
	kb, err := s.Repo.GetKeyBinding(ctx, id)
	if err != nil {
		return nil, err
	}
	if kb.UserID != a.UserID {
		return nil, repo.ErrNotFound
	}
	return kb, nil
}

func (s *KeyBindingService) checkShortcut(ctx context.Context, kb *models.KeyBinding) error {
	if !kb.IsActive {
		return nil
	}
	exists, err := s.Repo.ActiveShortcutExists(ctx, kb.UserID, kb.Shortcut, kb.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: shortcut %q is already active", ErrConflict, kb.Shortcut)
	}
	return nil
}

func (s *KeyBindingService) index(ctx context.Context, kb models.KeyBinding) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, kb); err != nil {
		logging.FromContext(ctx).Warn("template_index_put_failed", "id", kb.ID, "error", err)
	}
}
