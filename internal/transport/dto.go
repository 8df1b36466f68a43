// Package transport holds the request shapes accepted by the API and their validation.
// Insert shapes never carry server-generated fields (id, created_at, updated_at).
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
)

var ErrValidation = errors.New("validation error")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validBlob(name string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return invalid("%s is not valid JSON", name)
	}
	return nil
}

func validEmail(email *string) error {
	if email == nil {
		return nil
	}
	if _, err := mail.ParseAddress(*email); err != nil {
		return invalid("email %q is malformed", *email)
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

type NewUser struct {
	Email           *string    `json:"email"`
	FirstName       *string    `json:"first_name"`
	LastName        *string    `json:"last_name"`
	ProfileImageURL *string    `json:"profile_image_url"`
	Password        string     `json:"password,omitempty"`
	Role            string     `json:"role"`
	Tier            string     `json:"tier"`
	IsActive        *bool      `json:"is_active"`
	LastLogin       *time.Time `json:"last_login"`
}

func (u *NewUser) Validate() error {
	if u.Email == nil || strings.TrimSpace(*u.Email) == "" {
		return invalid("email is required")
	}
	if err := validEmail(u.Email); err != nil {
		return err
	}
	if u.Role != "" && !models.Role(u.Role).Valid() {
		return invalid("role %q is not one of admin, user", u.Role)
	}
	if u.Tier != "" && !models.Tier(u.Tier).Valid() {
		return invalid("tier %q is not one of standard, gold, platinum", u.Tier)
	}
	if u.Password != "" && len(u.Password) < 8 {
		return invalid("password must be at least 8 characters")
	}
	return nil
}

// ToModel builds the record to insert. The password is hashed by the caller.
func (u *NewUser) ToModel() models.User {
	role := models.RoleUser
	if u.Role != "" {
		role = models.Role(u.Role)
	}
	tier := models.TierStandard
	if u.Tier != "" {
		tier = models.Tier(u.Tier)
	}
	return models.User{
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		Role:            role,
		Tier:            tier,
		IsActive:        boolOr(u.IsActive, true),
		LastLogin:       u.LastLogin,
	}
}

// UpsertUser is the identity-provider sourced subset of a user.
type UpsertUser struct {
	ID              string  `json:"id"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (u *UpsertUser) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return invalid("id is required")
	}
	return validEmail(u.Email)
}

// UpdateUser is a partial update; only ID is required.
type UpdateUser struct {
	ID              string  `json:"id"`
	Email           *string `json:"email,omitempty"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	Role            *string `json:"role,omitempty"`
	Tier            *string `json:"tier,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

func (u *UpdateUser) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return invalid("id is required")
	}
	if err := validEmail(u.Email); err != nil {
		return err
	}
	if u.Role != nil && !models.Role(*u.Role).Valid() {
		return invalid("role %q is not one of admin, user", *u.Role)
	}
	if u.Tier != nil && !models.Tier(*u.Tier).Valid() {
		return invalid("tier %q is not one of standard, gold, platinum", *u.Tier)
	}
	return nil
}

// Profile reports whether the update only touches fields a user may change on their own record.
func (u *UpdateUser) Profile() bool {
	return u.Email == nil && u.Role == nil && u.Tier == nil && u.IsActive == nil
}

func (u *UpdateUser) Apply(dst *models.User) {
	if u.Email != nil {
		dst.Email = u.Email
	}
	if u.FirstName != nil {
		dst.FirstName = u.FirstName
	}
	if u.LastName != nil {
		dst.LastName = u.LastName
	}
	if u.ProfileImageURL != nil {
		dst.ProfileImageURL = u.ProfileImageURL
	}
	if u.Role != nil {
		dst.Role = models.Role(*u.Role)
	}
	if u.Tier != nil {
		dst.Tier = models.Tier(*u.Tier)
	}
	if u.IsActive != nil {
		dst.IsActive = *u.IsActive
	}
}

type NewKeyBinding struct {
	UserID   string `json:"user_id"`
	Shortcut string `json:"shortcut"`
	Template string `json:"template"`
	Category string `json:"category"`
	IsActive *bool  `json:"is_active"`
}

func (k *NewKeyBinding) Validate() error {
	if strings.TrimSpace(k.UserID) == "" {
		return invalid("user_id is required")
	}
	if strings.TrimSpace(k.Shortcut) == "" {
		return invalid("shortcut is required")
	}
	if strings.TrimSpace(k.Template) == "" {
		return invalid("template is required")
	}
	return nil
}

func (k *NewKeyBinding) ToModel() models.KeyBinding {
	category := strings.TrimSpace(k.Category)
	if category == "" {
		category = "general"
	}
	return models.KeyBinding{
		UserID:   k.UserID,
		Shortcut: strings.TrimSpace(k.Shortcut),
		Template: k.Template,
		Category: category,
		IsActive: boolOr(k.IsActive, true),
	}
}

type UpdateKeyBinding struct {
	Shortcut *string `json:"shortcut,omitempty"`
	Template *string `json:"template,omitempty"`
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (k *UpdateKeyBinding) Validate() error {
	if k.Shortcut != nil && strings.TrimSpace(*k.Shortcut) == "" {
		return invalid("shortcut cannot be empty")
	}
	if k.Template != nil && strings.TrimSpace(*k.Template) == "" {
		return invalid("template cannot be empty")
	}
	return nil
}

func (k *UpdateKeyBinding) Apply(dst *models.KeyBinding) {
	if k.Shortcut != nil {
		dst.Shortcut = strings.TrimSpace(*k.Shortcut)
	}
	if k.Template != nil {
		dst.Template = *k.Template
	}
	if k.Category != nil {
		dst.Category = *k.Category
	}
	if k.IsActive != nil {
		dst.IsActive = *k.IsActive
	}
}

type NewExtensionSettings struct {
	UserID    string          `json:"user_id"`
	IsEnabled *bool           `json:"is_enabled"`
	Settings  json.RawMessage `json:"settings"`
	LastSync  *time.Time      `json:"last_sync"`
}

func (e *NewExtensionSettings) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return invalid("user_id is required")
	}
	return validBlob("settings", e.Settings)
}

func (e *NewExtensionSettings) ToModel() models.ExtensionSettings {
	return models.ExtensionSettings{
		UserID:    e.UserID,
		IsEnabled: boolOr(e.IsEnabled, true),
		Settings:  e.Settings,
		LastSync:  e.LastSync,
	}
}

type UpdateExtensionSettings struct {
	IsEnabled *bool           `json:"is_enabled,omitempty"`
	Settings  json.RawMessage `json:"settings,omitempty"`
}

func (e *UpdateExtensionSettings) Validate() error {
	return validBlob("settings", e.Settings)
}

func (e *UpdateExtensionSettings) Apply(dst *models.ExtensionSettings) {
	if e.IsEnabled != nil {
		dst.IsEnabled = *e.IsEnabled
	}
	if len(e.Settings) > 0 {
		dst.Settings = e.Settings
	}
}

type NewActivityLog struct {
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	IPAddress string          `json:"ip_address"`
	UserAgent string          `json:"user_agent"`
}

func (a *NewActivityLog) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return invalid("user_id is required")
	}
	if strings.TrimSpace(a.Action) == "" {
		return invalid("action is required")
	}
	return validBlob("details", a.Details)
}

func (a *NewActivityLog) ToModel() models.ActivityLog {
	return models.ActivityLog{
		UserID:    a.UserID,
		Action:    a.Action,
		Details:   a.Details,
		IPAddress: a.IPAddress,
		UserAgent: a.UserAgent,
	}
}

type NewSecurityIncident struct {
	UserID      *string `json:"user_id"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

func (s *NewSecurityIncident) Validate() error {
	if strings.TrimSpace(s.Type) == "" {
		return invalid("type is required")
	}
	if !models.Severity(s.Severity).Valid() {
		return invalid("severity %q is not one of low, medium, high, critical", s.Severity)
	}
	if strings.TrimSpace(s.Description) == "" {
		return invalid("description is required")
	}
	return nil
}

func (s *NewSecurityIncident) ToModel() models.SecurityIncident {
	return models.SecurityIncident{
		UserID:      s.UserID,
		Type:        s.Type,
		Severity:    models.Severity(s.Severity),
		Description: s.Description,
	}
}

type NewAdminToolSettings struct {
	ToolType string          `json:"tool_type"`
	Settings json.RawMessage `json:"settings"`
}

func (a *NewAdminToolSettings) Validate() error {
	if strings.TrimSpace(a.ToolType) == "" {
		return invalid("tool_type is required")
	}
	return validBlob("settings", a.Settings)
}

func (a *NewAdminToolSettings) ToModel() models.AdminToolSettings {
	return models.AdminToolSettings{ToolType: a.ToolType, Settings: a.Settings}
}

type NewAdminSettings struct {
	Category string          `json:"category"`
	Settings json.RawMessage `json:"settings"`
}

func (a *NewAdminSettings) Validate() error {
	if strings.TrimSpace(a.Category) == "" {
		return invalid("category is required")
	}
	return validBlob("settings", a.Settings)
}

func (a *NewAdminSettings) ToModel() models.AdminSettings {
	return models.AdminSettings{Category: a.Category, Settings: a.Settings}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *LoginRequest) Validate() error {
	if strings.TrimSpace(l.Email) == "" || l.Password == "" {
		return invalid("email and password are required")
	}
	return nil
}
