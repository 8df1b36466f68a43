package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/internal/util"
)

type IncidentService struct {
	Repo     *repo.GormRepo
	Activity *ActivityService
}

func (s *IncidentService) List(ctx context.Context, resolved *bool, p util.Page) (int64, []models.SecurityIncident, error) {
	return s.Repo.ListIncidents(ctx, resolved, p.Offset, p.Size)
}

// Report stores an incident raised by a detector outside this server.
func (s *IncidentService) Report(ctx context.Context, req transport.NewSecurityIncident) (*models.SecurityIncident, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inc := req.ToModel()
	if err := s.Repo.CreateIncident(ctx, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *IncidentService) Resolve(ctx context.Context, a Actor, id uint) (*models.SecurityIncident, error) {
	inc, err := s.Repo.ResolveIncident(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, a, ActionIncidentResolve, map[string]any{"incident_id": id})
	return inc, nil
}

type SettingsService struct {
	Repo     *repo.GormRepo
	Activity *ActivityService
}

func (s *SettingsService) ListTools(ctx context.Context) ([]models.AdminToolSettings, error) {
	return s.Repo.ListToolSettings(ctx)
}

func (s *SettingsService) GetTool(ctx context.Context, tool string) (*models.AdminToolSettings, error) {
	return s.Repo.GetToolSettings(ctx, tool)
}

func (s *SettingsService) SaveTool(ctx context.Context, a Actor, req transport.NewAdminToolSettings) (*models.AdminToolSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m := req.ToModel()
	out, err := s.Repo.UpsertToolSettings(ctx, &m)
	if err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, a, ActionToolSettingsSave, map[string]string{"tool_type": out.ToolType})
	return out, nil
}

func (s *SettingsService) ListAdmin(ctx context.Context) ([]models.AdminSettings, error) {
	return s.Repo.ListAdminSettings(ctx)
}

func (s *SettingsService) GetAdmin(ctx context.Context, category string) (*models.AdminSettings, error) {
	return s.Repo.GetAdminSettings(ctx, category)
}

func (s *SettingsService) SaveAdmin(ctx context.Context, a Actor, req transport.NewAdminSettings) (*models.AdminSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m := req.ToModel()
	out, err := s.Repo.UpsertAdminSettings(ctx, &m)
	if err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, a, ActionAdminSettingsSave, map[string]string{"category": out.Category})
	return out, nil
}

type StatsService struct {
	Repo *repo.GormRepo
}

func (s *StatsService) Get(ctx context.Context) (*models.Stats, error) {
	return s.Repo.Stats(ctx, time.Now().UTC())
}
