package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/mykafka"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/util"
)

const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionProfileUpdate     = "profile.update"
	ActionUserCreate        = "user.create"
	ActionUserUpdate        = "user.update"
	ActionUserDelete        = "user.delete"
	ActionKeyBindingCreate  = "key_binding.create"
	ActionKeyBindingUpdate  = "key_binding.update"
	ActionKeyBindingDelete  = "key_binding.delete"
	ActionExtensionUpdate   = "extension.update"
	ActionExtensionToken    = "extension.token"
	ActionIncidentResolve   = "incident.resolve"
	ActionToolSettingsSave  = "tool_settings.save"
	ActionAdminSettingsSave = "admin_settings.save"
)

type ActivityEvent struct {
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	IPAddress string          `json:"ip_address"`
	UserAgent string          `json:"user_agent"`
	At        time.Time       `json:"at"`
}

type ActivityService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

// Record appends an activity row and publishes the matching event. The mutation it
// describes has already happened, so failures are logged and swallowed.
func (s *ActivityService) Record(ctx context.Context, a Actor, action string, details any) {
	l := logging.FromContext(ctx).With("svc", "activity.record", "action", action, "user_id", a.UserID)

	var raw json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			l.Error("activity_record_failed", "reason", "cannot encode details", "error", err)
			return
		}
		raw = b
	}

	row := models.ActivityLog{
		UserID:    a.UserID,
		Action:    action,
		Details:   raw,
		IPAddress: a.IP,
		UserAgent: a.UserAgent,
	}
	if err := s.Repo.AppendActivity(ctx, &row); err != nil {
		l.Error("activity_record_failed", "reason", "cannot append activity log", "error", err)
		return
	}

	ev := ActivityEvent{
		UserID:    row.UserID,
		Action:    row.Action,
		Details:   row.Details,
		IPAddress: row.IPAddress,
		UserAgent: row.UserAgent,
		At:        row.CreatedAt,
	}
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicActivity, a.UserID, ev); err != nil {
		l.Warn("activity_publish_failed", "error", err)
	}
}

func (s *ActivityService) List(ctx context.Context, userID string, p util.Page) (int64, []models.ActivityLog, error) {
	return s.Repo.ListActivity(ctx, userID, p.Offset, p.Size)
}
