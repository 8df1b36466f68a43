package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/medflow/internal/hash"
	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

type UserService struct {
	Repo     *repo.GormRepo
	Activity *ActivityService
	Index    TemplateIndex
}

func (s *UserService) List(ctx context.Context, p util.Page) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, p.Offset, p.Size)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.Repo.GetUser(ctx, id)
}

func (s *UserService) Create(ctx context.Context, a Actor, req transport.NewUser) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u := req.ToModel()
	if req.Password != "" {
		h, err := hash.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = h
	}
	if err := s.Repo.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	s.Activity.Record(ctx, a, ActionUserCreate, map[string]string{"user_id": u.ID})
	return &u, nil
}

// Update is the admin edit. Admins cannot demote or disable themselves.
func (s *UserService) Update(ctx context.Context, a Actor, req transport.UpdateUser) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ID == a.UserID {
		if req.Role != nil && models.Role(*req.Role) != models.RoleAdmin {
			return nil, fmt.Errorf("%w: cannot remove your own admin role", ErrForbidden)
		}
		if req.IsActive != nil && !*req.IsActive {
			return nil, fmt.Errorf("%w: cannot disable your own account", ErrForbidden)
		}
	}
	return s.update(ctx, a, req, ActionUserUpdate)
}

// UpdateSelf applies a profile-only update to the caller's own record.
func (s *UserService) UpdateSelf(ctx context.Context, a Actor, req transport.UpdateUser) (*models.User, error) {
	req.ID = a.UserID
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.Profile() {
		return nil, fmt.Errorf("%w: only name and profile image can be changed", ErrForbidden)
	}
	return s.update(ctx, a, req, ActionProfileUpdate)
}

func (s *UserService) update(ctx context.Context, a Actor, req transport.UpdateUser, action string) (*models.User, error) {
	u, err := s.Repo.UpdateUser(ctx, req)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	s.Activity.Record(ctx, a, action, req)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, a Actor, id string) error {
	if id == a.UserID {
		return fmt.Errorf("%w: cannot delete your own account", ErrForbidden)
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.RemoveUser(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("template_index_cleanup_failed", "user_id", id, "error", err)
		}
	}
	s.Activity.Record(ctx, a, ActionUserDelete, map[string]string{"user_id": id})
	return nil
}
