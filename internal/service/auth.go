package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/medflow/internal/hash"
	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/session"
	"github.com/Skotchmaster/medflow/internal/tokens"
	"github.com/Skotchmaster/medflow/internal/transport"
)

type AuthService struct {
	Repo        *repo.GormRepo
	Sessions    session.Store
	Activity    *ActivityService
	IDPSecret   []byte
	AdminEmails []string
}

type LoginResult struct {
	User   *models.User
	Token  string
	Expire time.Time
}

func (s *AuthService) LoginLocal(ctx context.Context, req transport.LoginRequest, a Actor) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_local")

	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.Repo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "user_id", u.ID)
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	return s.open(ctx, u, a, "password")
}

// LoginIdentity exchanges an identity-provider token for a session, creating or
// refreshing the user record on the way.
func (s *AuthService) LoginIdentity(ctx context.Context, idpToken string, a Actor) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_identity")

	claims, err := tokens.IdentityFromToken(idpToken, s.IDPSecret)
	if err != nil {
		l.Warn("login_failed", "status", 401, "reason", "invalid identity token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	in := transport.UpsertUser{
		ID:              claims.Subject,
		Email:           claims.Email,
		FirstName:       claims.FirstName,
		LastName:        claims.LastName,
		ProfileImageURL: claims.ProfileImageURL,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, created, err := s.Repo.UpsertUser(ctx, in)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already belongs to another account", ErrConflict)
		}
		return nil, err
	}
	if created {
		l.Info("user_created_from_identity", "user_id", u.ID)
	}

	if u.Role != models.RoleAdmin && s.isAdminEmail(u.Email) {
		if err := s.Repo.SetUserRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return nil, err
		}
		u.Role = models.RoleAdmin
		l.Info("user_promoted", "user_id", u.ID)
	}
	return s.open(ctx, u, a, "identity")
}

func (s *AuthService) open(ctx context.Context, u *models.User, a Actor, method string) (*LoginResult, error) {
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}

	token, expire, err := s.Sessions.Create(ctx, session.Data{UserID: u.ID, IP: a.IP, UserAgent: a.UserAgent})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	now := time.Now().UTC()
	if err := s.Repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		logging.FromContext(ctx).Warn("last_login_update_failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}

	a.UserID, a.Role = u.ID, u.Role
	s.Activity.Record(ctx, a, ActionLogin, map[string]string{"method": method})
	return &LoginResult{User: u, Token: token, Expire: expire}, nil
}

// Authenticate resolves a session token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	data, err := s.Sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	u, err := s.Repo.GetUser(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			_ = s.Sessions.Destroy(ctx, token)
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, token string, a Actor) error {
	data, err := s.Sessions.Get(ctx, token)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	if err := s.Sessions.Destroy(ctx, token); err != nil {
		return err
	}
	if data != nil {
		a.UserID = data.UserID
		s.Activity.Record(ctx, a, ActionLogout, nil)
	}
	return nil
}

// BootstrapAdmin makes sure a local admin account exists for email. It is a no-op
// when email is empty.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap_admin")

	u, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	if u == nil {
		in := transport.NewUser{Email: &email, Password: password, Role: string(models.RoleAdmin)}
		if err := in.Validate(); err != nil {
			return err
		}
		created := in.ToModel()
		if password != "" {
			if created.PasswordHash, err = hash.HashPassword(password); err != nil {
				return err
			}
		}
		if err := s.Repo.CreateUser(ctx, &created); err != nil {
			return err
		}
		l.Info("admin_created", "user_id", created.ID)
		return nil
	}

	if u.Role != models.RoleAdmin {
		if err := s.Repo.SetUserRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return err
		}
		l.Info("admin_promoted", "user_id", u.ID)
	}
	if u.PasswordHash == "" && password != "" {
		h, err := hash.HashPassword(password)
		if err != nil {
			return err
		}
		return s.Repo.SetPasswordHash(ctx, u.ID, h)
	}
	return nil
}

func (s *AuthService) isAdminEmail(email *string) bool {
	if email == nil {
		return false
	}
	for _, e := range s.AdminEmails {
		if strings.EqualFold(e, *email) {
			return true
		}
	}
	return false
}
