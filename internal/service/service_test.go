package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/medflow/internal/config"
	"github.com/Skotchmaster/medflow/internal/database"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/session"
	"github.com/Skotchmaster/medflow/internal/tokens"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

var idpSecret = []byte("idp-secret")

type testEnv struct {
	Repo      *repo.GormRepo
	Sessions  *session.GormStore
	Activity  *ActivityService
	Auth      *AuthService
	Users     *UserService
	Bindings  *KeyBindingService
	Extension *ExtensionService
	Incidents *IncidentService
	Settings  *SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(context.Background(), config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	r := repo.New(db)
	act := &ActivityService{Repo: r}
	sessions := &session.GormStore{DB: db, TTL: time.Hour}
	return &testEnv{
		Repo:      r,
		Sessions:  sessions,
		Activity:  act,
		Auth:      &AuthService{Repo: r, Sessions: sessions, Activity: act, IDPSecret: idpSecret, AdminEmails: []string{"Chief@Clinic.org"}},
		Users:     &UserService{Repo: r, Activity: act},
		Bindings:  &KeyBindingService{Repo: r, Activity: act},
		Extension: &ExtensionService{Repo: r, Activity: act, JWTSecret: []byte("jwt")},
		Incidents: &IncidentService{Repo: r, Activity: act},
		Settings:  &SettingsService{Repo: r, Activity: act},
	}
}

func strPtr(s string) *string { return &s }

func identityToken(t *testing.T, sub, email string) string {
	t.Helper()
	tok, err := tokens.SignIdentity(tokens.IdentityClaims{
		Email: &email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, idpSecret)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) localUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, err := e.Users.Create(context.Background(), Actor{UserID: "seed"}, transport.NewUser{Email: &email, Password: password})
	require.NoError(t, err)
	return u
}

func TestLoginLocal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.localUser(t, "nurse@clinic.org", "s3cret-pass")

	_, err := env.Auth.LoginLocal(ctx, transport.LoginRequest{Email: "nurse@clinic.org", Password: "wrong-pass"}, Actor{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.Auth.LoginLocal(ctx, transport.LoginRequest{Email: "nobody@clinic.org", Password: "s3cret-pass"}, Actor{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	res, err := env.Auth.LoginLocal(ctx, transport.LoginRequest{Email: "nurse@clinic.org", Password: "s3cret-pass"}, Actor{IP: "10.1.1.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.NotNil(t, res.User.LastLogin)

	got, err := env.Auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	total, logs, err := env.Activity.List(ctx, u.ID, util.Calculate(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ActionLogin, logs[0].Action)
	assert.Equal(t, "10.1.1.1", logs[0].IPAddress)
}

func TestLoginLocal_InactiveIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.localUser(t, "off@clinic.org", "s3cret-pass")

	_, err := env.Repo.UpdateUser(ctx, transport.UpdateUser{ID: u.ID, IsActive: new(bool)})
	require.NoError(t, err)

	_, err = env.Auth.LoginLocal(ctx, transport.LoginRequest{Email: "off@clinic.org", Password: "s3cret-pass"}, Actor{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLoginIdentity_UpsertsAndPromotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.Auth.LoginIdentity(ctx, identityToken(t, "idp-7", "doc@clinic.org"), Actor{})
	require.NoError(t, err)
	assert.Equal(t, "idp-7", res.User.ID)
	assert.Equal(t, models.RoleUser, res.User.Role)

	res, err = env.Auth.LoginIdentity(ctx, identityToken(t, "idp-8", "chief@clinic.org"), Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	stored, err := env.Repo.GetUser(ctx, "idp-8")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	_, err = env.Auth.LoginIdentity(ctx, "garbage", Actor{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutAndDeletedUserInvalidateSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.Auth.LoginIdentity(ctx, identityToken(t, "idp-1", "a@clinic.org"), Actor{})
	require.NoError(t, err)
	require.NoError(t, env.Auth.Logout(ctx, res.Token, Actor{}))
	_, err = env.Auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	res, err = env.Auth.LoginIdentity(ctx, identityToken(t, "idp-1", "a@clinic.org"), Actor{})
	require.NoError(t, err)
	require.NoError(t, env.Users.Delete(ctx, Actor{UserID: "admin"}, "idp-1"))
	_, err = env.Auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.NoError(t, env.Auth.Logout(ctx, "never-issued", Actor{}))
}

func TestBootstrapAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Auth.BootstrapAdmin(ctx, "", ""))
	require.NoError(t, env.Auth.BootstrapAdmin(ctx, "root@clinic.org", "admin-pass-1"))
	require.NoError(t, env.Auth.BootstrapAdmin(ctx, "root@clinic.org", "admin-pass-1"))

	res, err := env.Auth.LoginLocal(ctx, transport.LoginRequest{Email: "root@clinic.org", Password: "admin-pass-1"}, Actor{})
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin())

	total, _, err := env.Repo.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestUserService_SelfGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.localUser(t, "boss@clinic.org", "")
	a := Actor{UserID: admin.ID, Role: models.RoleAdmin}

	_, err := env.Users.Update(ctx, a, transport.UpdateUser{ID: admin.ID, Role: strPtr("user")})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.Users.Update(ctx, a, transport.UpdateUser{ID: admin.ID, IsActive: new(bool)})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.Users.Delete(ctx, a, admin.ID), ErrForbidden)

	_, err = env.Users.UpdateSelf(ctx, a, transport.UpdateUser{Tier: strPtr("gold")})
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := env.Users.UpdateSelf(ctx, a, transport.UpdateUser{FirstName: strPtr("Robin")})
	require.NoError(t, err)
	assert.Equal(t, "Robin", *u.FirstName)

	_, err = env.Users.Create(ctx, a, transport.NewUser{Email: strPtr("boss@clinic.org")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.Users.Create(ctx, a, transport.NewUser{Email: strPtr("x@clinic.org"), Role: "root"})
	assert.ErrorIs(t, err, transport.ErrValidation)
}

type fakeIndex struct {
	puts      []models.KeyBinding
	removed   []uint
	searchErr error
}

func (f *fakeIndex) Put(_ context.Context, kb models.KeyBinding) error {
	f.puts = append(f.puts, kb)
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id uint) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) RemoveUser(context.Context, string) error { return nil }

func (f *fakeIndex) Search(context.Context, string, string, int, int) (int64, []models.KeyBinding, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return 42, nil, nil
}

func TestKeyBindings_DuplicateActiveShortcut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	env.Bindings.Index = idx

	u := env.localUser(t, "kb@clinic.org", "")
	a := Actor{UserID: u.ID, Role: models.RoleUser}

	first, err := env.Bindings.Create(ctx, a, transport.NewKeyBinding{Shortcut: ";hpi", Template: "HPI"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, first.UserID)

	_, err = env.Bindings.Create(ctx, a, transport.NewKeyBinding{Shortcut: " ;hpi ", Template: "HPI 2"})
	assert.ErrorIs(t, err, ErrConflict)

	inactive, err := env.Bindings.Create(ctx, a, transport.NewKeyBinding{Shortcut: ";hpi", Template: "old", IsActive: new(bool)})
	require.NoError(t, err)

	on := true
	_, err = env.Bindings.Update(ctx, a, inactive.ID, transport.UpdateKeyBinding{IsActive: &on})
	assert.ErrorIs(t, err, ErrConflict)

	other := Actor{UserID: "someone-else"}
	_, err = env.Bindings.Update(ctx, other, first.ID, transport.UpdateKeyBinding{Template: strPtr("x")})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, env.Bindings.Delete(ctx, a, first.ID))
	assert.Equal(t, []uint{first.ID}, idx.removed)
	assert.Len(t, idx.puts, 2)

	_, err = env.Bindings.Update(ctx, a, inactive.ID, transport.UpdateKeyBinding{IsActive: &on})
	assert.NoError(t, err)
}

func TestKeyBindings_SearchFallsBackToDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.localUser(t, "s@clinic.org", "")
	a := Actor{UserID: u.ID}

	_, err := env.Bindings.Create(ctx, a, transport.NewKeyBinding{Shortcut: ";ros", Template: "Review of systems"})
	require.NoError(t, err)

	env.Bindings.Index = &fakeIndex{}
	total, _, err := env.Bindings.Search(ctx, u.ID, "review", util.Calculate(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 42, total)

	env.Bindings.Index = &fakeIndex{searchErr: errors.New("cluster down")}
	total, items, err := env.Bindings.Search(ctx, u.ID, "review", util.Calculate(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ";ros", items[0].Shortcut)
}

func TestExtension_DefaultUpdateAndToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.localUser(t, "ext@clinic.org", "")
	a := Actor{UserID: u.ID, Role: models.RoleUser}

	es, err := env.Extension.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, es.ID)
	assert.True(t, es.IsEnabled)

	off := false
	es, err = env.Extension.Update(ctx, a, transport.UpdateExtensionSettings{IsEnabled: &off, Settings: json.RawMessage(`{"hotkey":"ctrl+space"}`)}, true)
	require.NoError(t, err)
	assert.NotZero(t, es.ID)
	assert.NotNil(t, es.LastSync)

	again, err := env.Extension.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, es.ID, again.ID)
	assert.False(t, again.IsEnabled)
	assert.JSONEq(t, `{"hotkey":"ctrl+space"}`, string(again.Settings))

	tok, exp, err := env.Extension.IssueToken(ctx, a)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	claims, err := tokens.ExtensionFromToken(tok, []byte("jwt"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestIncidentsAndSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := Actor{UserID: "admin", Role: models.RoleAdmin}

	_, err := env.Incidents.Report(ctx, transport.NewSecurityIncident{Type: "x", Severity: "extreme", Description: "d"})
	assert.ErrorIs(t, err, transport.ErrValidation)

	inc, err := env.Incidents.Report(ctx, transport.NewSecurityIncident{Type: "brute_force", Severity: "high", Description: "10 failures"})
	require.NoError(t, err)

	res, err := env.Incidents.Resolve(ctx, a, inc.ID)
	require.NoError(t, err)
	assert.True(t, res.Resolved)

	_, err = env.Settings.SaveAdmin(ctx, a, transport.NewAdminSettings{Category: "billing", Settings: json.RawMessage(`{"v":1}`)})
	require.NoError(t, err)
	s, err := env.Settings.SaveAdmin(ctx, a, transport.NewAdminSettings{Category: "billing", Settings: json.RawMessage(`{"v":2}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(s.Settings))

	tool, err := env.Settings.SaveTool(ctx, a, transport.NewAdminToolSettings{ToolType: "dictation", Settings: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "dictation", tool.ToolType)

	total, logs, err := env.Activity.List(ctx, "admin", util.Calculate(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, logs, 4)
}
