package models

// Stats is the admin analytics snapshot served by /api/stats.
type Stats struct {
	TotalUsers          int64            `json:"total_users"`
	ActiveUsers         int64            `json:"active_users"`
	Admins              int64            `json:"admins"`
	UsersByTier         map[string]int64 `json:"users_by_tier"`
	KeyBindings         int64            `json:"key_bindings"`
	ActiveKeyBindings   int64            `json:"active_key_bindings"`
	ActivityLast24h     int64            `json:"activity_last_24h"`
	OpenIncidents       int64            `json:"open_incidents"`
	IncidentsBySeverity map[string]int64 `json:"open_incidents_by_severity"`
}
