package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/medflow/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNewUser_RoleAndTier(t *testing.T) {
	t.Parallel()

	for _, r := range models.Roles {
		u := NewUser{Email: strPtr("a@b.io"), Role: string(r)}
		assert.NoError(t, u.Validate(), "role %s", r)
	}
	for _, tier := range models.Tiers {
		u := NewUser{Email: strPtr("a@b.io"), Tier: string(tier)}
		assert.NoError(t, u.Validate(), "tier %s", tier)
	}

	for _, bad := range []string{"root", "Admin", "superuser", " user"} {
		u := NewUser{Email: strPtr("a@b.io"), Role: bad}
		assert.ErrorIs(t, u.Validate(), ErrValidation, "role %q", bad)
	}
	for _, bad := range []string{"silver", "GOLD", "free"} {
		u := NewUser{Email: strPtr("a@b.io"), Tier: bad}
		assert.ErrorIs(t, u.Validate(), ErrValidation, "tier %q", bad)
	}
}

func TestNewUser_RequiresEmail(t *testing.T) {
	t.Parallel()

	u := NewUser{}
	assert.ErrorIs(t, u.Validate(), ErrValidation)

	u = NewUser{Email: strPtr("not-an-email")}
	assert.ErrorIs(t, u.Validate(), ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, (&UpdateUser{}).Validate(), ErrValidation)
	assert.NoError(t, (&UpdateUser{ID: "u1"}).Validate())
	assert.ErrorIs(t, (&UpdateUser{ID: "u1", Role: strPtr("owner")}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&UpdateUser{ID: "u1", Tier: strPtr("bronze")}).Validate(), ErrValidation)

	upd := UpdateUser{ID: "u1", FirstName: strPtr("Ann"), Tier: strPtr("gold")}
	require.NoError(t, upd.Validate())
	assert.False(t, upd.Profile())

	u := models.User{ID: "u1", Role: models.RoleUser, Tier: models.TierStandard, IsActive: true}
	upd.Apply(&u)
	assert.Equal(t, "Ann", *u.FirstName)
	assert.Equal(t, models.TierGold, u.Tier)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
}

func TestUpsertUser_RequiresID(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, (&UpsertUser{Email: strPtr("a@b.io")}).Validate(), ErrValidation)
	assert.NoError(t, (&UpsertUser{ID: "idp-42"}).Validate())
}

func TestNewSecurityIncident_Severity(t *testing.T) {
	t.Parallel()

	for _, s := range models.Severities {
		inc := NewSecurityIncident{Type: "login", Severity: string(s), Description: "x"}
		assert.NoError(t, inc.Validate(), "severity %s", s)
	}
	for _, bad := range []string{"", "urgent", "LOW"} {
		inc := NewSecurityIncident{Type: "login", Severity: bad, Description: "x"}
		assert.ErrorIs(t, inc.Validate(), ErrValidation, "severity %q", bad)
	}
}

func TestInsertShapes_HaveNoServerFields(t *testing.T) {
	t.Parallel()

	shapes := []any{
		NewUser{Email: strPtr("a@b.io")},
		NewKeyBinding{UserID: "u", Shortcut: "/x", Template: "t"},
		NewExtensionSettings{UserID: "u"},
		NewActivityLog{UserID: "u", Action: "a"},
		NewSecurityIncident{Type: "t", Severity: "low", Description: "d"},
		NewAdminToolSettings{ToolType: "t"},
		NewAdminSettings{Category: "c"},
	}
	for _, s := range shapes {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))
		for _, forbidden := range []string{"id", "created_at", "updated_at"} {
			assert.NotContains(t, fields, forbidden, "%T", s)
		}
	}
}

func TestNewKeyBinding_RoundTrip(t *testing.T) {
	t.Parallel()

	in := NewKeyBinding{
		UserID:   "u1",
		Shortcut: ";hpi",
		Template: "History of present illness: ",
		Category: "notes",
		IsActive: new(bool),
	}
	require.NoError(t, in.Validate())

	kb := in.ToModel()
	assert.Equal(t, in.UserID, kb.UserID)
	assert.Equal(t, in.Shortcut, kb.Shortcut)
	assert.Equal(t, in.Template, kb.Template)
	assert.Equal(t, in.Category, kb.Category)
	assert.False(t, kb.IsActive)

	defaults := (&NewKeyBinding{UserID: "u1", Shortcut: ";a", Template: "b"}).ToModel()
	assert.Equal(t, "general", defaults.Category)
	assert.True(t, defaults.IsActive)
}

func TestNewKeyBinding_Required(t *testing.T) {
	t.Parallel()

	cases := []NewKeyBinding{
		{Shortcut: ";a", Template: "b"},
		{UserID: "u", Template: "b"},
		{UserID: "u", Shortcut: ";a", Template: "   "},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.Validate(), ErrValidation)
	}
}

func TestNewUser_RoundTrip(t *testing.T) {
	t.Parallel()

	in := NewUser{
		Email:     strPtr("doc@clinic.org"),
		FirstName: strPtr("Dana"),
		LastName:  strPtr("Reyes"),
		Role:      "admin",
		Tier:      "platinum",
	}
	require.NoError(t, in.Validate())

	u := in.ToModel()
	assert.Equal(t, in.Email, u.Email)
	assert.Equal(t, in.FirstName, u.FirstName)
	assert.Equal(t, in.LastName, u.LastName)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, models.TierPlatinum, u.Tier)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.ID)
}

func TestBlobs_MustBeJSON(t *testing.T) {
	t.Parallel()

	ok := NewAdminSettings{Category: "billing", Settings: json.RawMessage(`{"currency":"usd"}`)}
	assert.NoError(t, ok.Validate())

	bad := NewAdminSettings{Category: "billing", Settings: json.RawMessage(`{currency`)}
	assert.ErrorIs(t, bad.Validate(), ErrValidation)

	ext := UpdateExtensionSettings{Settings: json.RawMessage(`[1,2`)}
	assert.ErrorIs(t, ext.Validate(), ErrValidation)
}
