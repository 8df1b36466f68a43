package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
)

type groupCount struct {
	Grp string
	N   int64
}

func (r *GormRepo) Stats(ctx context.Context, now time.Time) (*models.Stats, error) {
	db := r.DB.WithContext(ctx)
	st := models.Stats{
		UsersByTier:         map[string]int64{},
		IncidentsBySeverity: map[string]int64{},
	}

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&st.TotalUsers, &models.User{}, "", nil},
		{&st.ActiveUsers, &models.User{}, "is_active = ?", []any{true}},
		{&st.Admins, &models.User{}, "role = ?", []any{models.RoleAdmin}},
		{&st.KeyBindings, &models.KeyBinding{}, "", nil},
		{&st.ActiveKeyBindings, &models.KeyBinding{}, "is_active = ?", []any{true}},
		{&st.ActivityLast24h, &models.ActivityLog{}, "created_at >= ?", []any{now.Add(-24 * time.Hour)}},
		{&st.OpenIncidents, &models.SecurityIncident{}, "resolved = ?", []any{false}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	for _, t := range models.Tiers {
		st.UsersByTier[string(t)] = 0
	}
	var tiers []groupCount
	if err := db.Model(&models.User{}).Select("tier AS grp, COUNT(*) AS n").Group("tier").Scan(&tiers).Error; err != nil {
		return nil, err
	}
	for _, g := range tiers {
		st.UsersByTier[g.Grp] = g.N
	}

	for _, s := range models.Severities {
		st.IncidentsBySeverity[string(s)] = 0
	}
	var sev []groupCount
	if err := db.Model(&models.SecurityIncident{}).
		Select("severity AS grp, COUNT(*) AS n").
		Where("resolved = ?", false).
		Group("severity").
		Scan(&sev).Error; err != nil {
		return nil, err
	}
	for _, g := range sev {
		st.IncidentsBySeverity[g.Grp] = g.N
	}

	return &st, nil
}
