package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-side login session. SID holds the SHA-256 of the cookie value,
// never the cookie itself.
type Session struct {
	SID    string          `gorm:"column:sid;primaryKey;type:varchar(64)" json:"-"`
	Sess   json.RawMessage `gorm:"column:sess;not null;serializer:json"   json:"sess"`
	Expire time.Time       `gorm:"column:expire;index;not null"           json:"expire"`
}

func (Session) TableName() string { return "sessions" }

type User struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)"             json:"id"`
	Email           *string    `gorm:"uniqueIndex;type:varchar(255)"           json:"email"`
	FirstName       *string    `gorm:"type:varchar(255)"                       json:"first_name"`
	LastName        *string    `gorm:"type:varchar(255)"                       json:"last_name"`
	ProfileImageURL *string    `gorm:"type:varchar(1024)"                      json:"profile_image_url"`
	PasswordHash    string     `gorm:"type:varchar(255)"                       json:"-"`
	Role            Role       `gorm:"type:varchar(16);not null;default:user"  json:"role"`
	Tier            Tier       `gorm:"type:varchar(16);not null;default:standard" json:"tier"`
	IsActive        bool       `gorm:"not null"                                json:"is_active"`
	LastLogin       *time.Time `                                               json:"last_login"`
	CreatedAt       time.Time  `                                               json:"created_at"`
	UpdatedAt       time.Time  `                                               json:"updated_at"`

	KeyBindings       []KeyBinding        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExtensionSettings []ExtensionSettings `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type KeyBinding struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    string    `gorm:"index;not null;type:varchar(64)"            json:"user_id"`
	Shortcut  string    `gorm:"not null;type:varchar(255)"                 json:"shortcut"`
	Template  string    `gorm:"not null;type:text"                         json:"template"`
	Category  string    `gorm:"not null;type:varchar(100);default:general" json:"category"`
	IsActive  bool      `gorm:"not null"                                   json:"is_active"`
	CreatedAt time.Time `                                                  json:"created_at"`
	UpdatedAt time.Time `                                                  json:"updated_at"`
}

type ExtensionSettings struct {
	ID        uint            `gorm:"primaryKey"                      json:"id"`
	UserID    string          `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	IsEnabled bool            `gorm:"not null"                        json:"is_enabled"`
	Settings  json.RawMessage `gorm:"type:text;serializer:json"       json:"settings"`
	LastSync  *time.Time      `                                       json:"last_sync"`
	CreatedAt time.Time       `                                       json:"created_at"`
	UpdatedAt time.Time       `                                       json:"updated_at"`
}

func (ExtensionSettings) TableName() string { return "extension_settings" }

// ActivityLog rows are append-only. UserID is kept after the user is deleted.
type ActivityLog struct {
	ID        uint            `gorm:"primaryKey"                      json:"id"`
	UserID    string          `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Action    string          `gorm:"not null;type:varchar(100)"      json:"action"`
	Details   json.RawMessage `gorm:"type:text;serializer:json"       json:"details"`
	IPAddress string          `gorm:"type:varchar(64)"                json:"ip_address"`
	UserAgent string          `gorm:"type:text"                       json:"user_agent"`
	CreatedAt time.Time       `gorm:"index"                           json:"created_at"`
}

type SecurityIncident struct {
	ID          uint       `gorm:"primaryKey"                     json:"id"`
	UserID      *string    `gorm:"index;type:varchar(64)"         json:"user_id"`
	Type        string     `gorm:"not null;type:varchar(100)"     json:"type"`
	Severity    Severity   `gorm:"not null;type:varchar(16)"      json:"severity"`
	Description string     `gorm:"not null;type:text"             json:"description"`
	Resolved    bool       `gorm:"not null;index"                 json:"resolved"`
	ResolvedAt  *time.Time `                                      json:"resolved_at"`
	CreatedAt   time.Time  `                                      json:"created_at"`
}

type AdminToolSettings struct {
	ID        uint            `gorm:"primaryKey"                             json:"id"`
	ToolType  string          `gorm:"uniqueIndex;not null;type:varchar(100)" json:"tool_type"`
	Settings  json.RawMessage `gorm:"type:text;serializer:json"              json:"settings"`
	CreatedAt time.Time       `                                              json:"created_at"`
	UpdatedAt time.Time       `                                              json:"updated_at"`
}

type AdminSettings struct {
	ID        uint            `gorm:"primaryKey"                             json:"id"`
	Category  string          `gorm:"uniqueIndex;not null;type:varchar(100)" json:"category"`
	Settings  json.RawMessage `gorm:"type:text;serializer:json"              json:"settings"`
	CreatedAt time.Time       `                                              json:"created_at"`
	UpdatedAt time.Time       `                                              json:"updated_at"`
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Session{},
		&User{},
		&KeyBinding{},
		&ExtensionSettings{},
		&ActivityLog{},
		&SecurityIncident{},
		&AdminToolSettings{},
		&AdminSettings{},
	}
}
