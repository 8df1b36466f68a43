package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/pkg/apiclient"
	"github.com/Skotchmaster/medflow/pkg/authstate"
	"github.com/Skotchmaster/medflow/pkg/querycache"
	"github.com/Skotchmaster/medflow/pkg/routing"
)

type listMeta struct {
	Page       int   `json:"page"`
	TotalPages int64 `json:"total_pages"`
	Total      int64 `json:"total"`
}

type list[T any] struct {
	Data []T      `json:"data"`
	Meta listMeta `json:"meta"`
}

// loader reads API endpoints through the shared cache.
type loader struct {
	cache *querycache.Client
	query apiclient.QueryFunc
	auth  *authstate.Provider
}

func (l *loader) get(ctx context.Context, v any, key ...string) error {
	p, err := querycache.Get(ctx, l.cache, apiclient.Key(key...), func(ctx context.Context) (*apiclient.Payload, error) {
		return l.query(ctx, key...)
	})
	if err != nil {
		return err
	}
	return p.Decode(v)
}

func (l *loader) user() *models.User { return l.auth.State().User }

func newPages(api *apiclient.Client, cache *querycache.Client, auth *authstate.Provider) routing.Pages {
	l := &loader{cache: cache, query: api.QueryFn(apiclient.QueryOptions{}), auth: auth}
	return routing.Pages{
		Landing:        landingPage(api.BaseURL()),
		AdminDashboard: routing.PageFunc(l.adminDashboard),
		UserDashboard:  routing.PageFunc(l.userDashboard),
		Users:          routing.PageFunc(l.users),
		Analytics:      routing.PageFunc(l.analytics),
		Security:       routing.PageFunc(l.security),
		AdminSettings:  routing.PageFunc(l.adminSettings),
		KeyBindings:    routing.PageFunc(l.keyBindings),
		Templates:      routing.PageFunc(l.templates),
		Extension:      routing.PageFunc(l.extension),
		Activity:       routing.PageFunc(l.activity),
		Membership:     routing.PageFunc(l.membership),
		Settings:       routing.PageFunc(l.settings),
	}
}

func landingPage(baseURL string) routing.Page {
	return routing.PageFunc(func(_ context.Context, w io.Writer, _ routing.Request) error {
		_, err := fmt.Fprintf(w, "MedFlow Pro: documentation automation for clinicians.\n\nSign in with 'login', or open %s/api/login in a browser.\n", baseURL)
		return err
	})
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func pageQuery(req routing.Request) string {
	q := url.Values{}
	if p := req.Query.Get("page"); p != "" {
		q.Set("page", p)
	}
	if s := req.Query.Get("size"); s != "" {
		q.Set("size", s)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func str(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func when(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func footer(w io.Writer, m listMeta) {
	fmt.Fprintf(w, "page %d of %d, %d total\n", m.Page, max(m.TotalPages, 1), m.Total)
}

func (l *loader) adminDashboard(ctx context.Context, w io.Writer, _ routing.Request) error {
	var st models.Stats
	if err := l.get(ctx, &st, "/api/stats"); err != nil {
		return err
	}
	fmt.Fprintf(w, "Admin dashboard\n\n")
	return table(w, "METRIC\tVALUE", func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "users\t%d\n", st.TotalUsers)
		fmt.Fprintf(tw, "active users\t%d\n", st.ActiveUsers)
		fmt.Fprintf(tw, "admins\t%d\n", st.Admins)
		fmt.Fprintf(tw, "key bindings\t%d (%d active)\n", st.KeyBindings, st.ActiveKeyBindings)
		fmt.Fprintf(tw, "activity, last 24h\t%d\n", st.ActivityLast24h)
		fmt.Fprintf(tw, "open incidents\t%d\n", st.OpenIncidents)
	})
}

func (l *loader) userDashboard(ctx context.Context, w io.Writer, _ routing.Request) error {
	var bindings []models.KeyBinding
	if err := l.get(ctx, &bindings, "/api/key-bindings"); err != nil {
		return err
	}
	var recent list[models.ActivityLog]
	if err := l.get(ctx, &recent, "/api/activity-logs?size=5"); err != nil {
		return err
	}

	u := l.user()
	active := 0
	for _, kb := range bindings {
		if kb.IsActive {
			active++
		}
	}
	fmt.Fprintf(w, "Welcome, %s (%s tier)\n\n", displayName(u), u.Tier)
	fmt.Fprintf(w, "Key bindings: %d (%d active)\n\nRecent activity\n", len(bindings), active)
	return table(w, "WHEN\tACTION", func(tw *tabwriter.Writer) {
		for _, a := range recent.Data {
			fmt.Fprintf(tw, "%s\t%s\n", when(&a.CreatedAt), a.Action)
		}
	})
}

func (l *loader) users(ctx context.Context, w io.Writer, req routing.Request) error {
	var res list[models.User]
	if err := l.get(ctx, &res, "/api/users"+pageQuery(req)); err != nil {
		return err
	}
	err := table(w, "ID\tEMAIL\tNAME\tROLE\tTIER\tACTIVE\tLAST LOGIN", func(tw *tabwriter.Writer) {
		for _, u := range res.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, str(u.Email), displayName(&u), u.Role, u.Tier, u.IsActive, when(u.LastLogin))
		}
	})
	footer(w, res.Meta)
	return err
}

func (l *loader) analytics(ctx context.Context, w io.Writer, _ routing.Request) error {
	var st models.Stats
	if err := l.get(ctx, &st, "/api/stats"); err != nil {
		return err
	}
	fmt.Fprintln(w, "Users by tier")
	if err := table(w, "TIER\tUSERS", func(tw *tabwriter.Writer) {
		for _, t := range models.Tiers {
			fmt.Fprintf(tw, "%s\t%d\n", t, st.UsersByTier[string(t)])
		}
	}); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nOpen incidents by severity")
	return table(w, "SEVERITY\tOPEN", func(tw *tabwriter.Writer) {
		for _, s := range models.Severities {
			fmt.Fprintf(tw, "%s\t%d\n", s, st.IncidentsBySeverity[string(s)])
		}
	})
}

func (l *loader) security(ctx context.Context, w io.Writer, req routing.Request) error {
	endpoint := "/api/security-incidents"
	q := url.Values{}
	if r := req.Query.Get("resolved"); r != "" {
		q.Set("resolved", r)
	}
	if p := req.Query.Get("page"); p != "" {
		q.Set("page", p)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var res list[models.SecurityIncident]
	if err := l.get(ctx, &res, endpoint); err != nil {
		return err
	}
	err := table(w, "ID\tSEVERITY\tTYPE\tUSER\tRESOLVED\tDESCRIPTION", func(tw *tabwriter.Writer) {
		for _, inc := range res.Data {
			resolved := "no"
			if inc.Resolved {
				resolved = when(inc.ResolvedAt)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", inc.ID, inc.Severity, inc.Type, str(inc.UserID), resolved, inc.Description)
		}
	})
	footer(w, res.Meta)
	return err
}

func (l *loader) adminSettings(ctx context.Context, w io.Writer, _ routing.Request) error {
	var admin []models.AdminSettings
	if err := l.get(ctx, &admin, "/api/admin/settings"); err != nil {
		return err
	}
	var tools []models.AdminToolSettings
	if err := l.get(ctx, &tools, "/api/admin/tool-settings"); err != nil {
		return err
	}

	fmt.Fprintln(w, "Admin settings")
	if err := table(w, "CATEGORY\tSETTINGS\tUPDATED", func(tw *tabwriter.Writer) {
		for _, s := range admin {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Category, compact(s.Settings), when(&s.UpdatedAt))
		}
	}); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nTool settings")
	return table(w, "TOOL\tSETTINGS\tUPDATED", func(tw *tabwriter.Writer) {
		for _, s := range tools {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ToolType, compact(s.Settings), when(&s.UpdatedAt))
		}
	})
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func bindingRows(tw *tabwriter.Writer, items []models.KeyBinding) {
	for _, kb := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", kb.ID, kb.Shortcut, kb.Category, kb.IsActive, truncate(kb.Template, 48))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (l *loader) keyBindings(ctx context.Context, w io.Writer, _ routing.Request) error {
	var items []models.KeyBinding
	if err := l.get(ctx, &items, "/api/key-bindings"); err != nil {
		return err
	}
	return table(w, "ID\tSHORTCUT\tCATEGORY\tACTIVE\tTEMPLATE", func(tw *tabwriter.Writer) {
		bindingRows(tw, items)
	})
}

func (l *loader) templates(ctx context.Context, w io.Writer, req routing.Request) error {
	q := req.Query.Get("q")
	if q == "" {
		_, err := fmt.Fprintln(w, "Search templates with: open /templates?q=<words>")
		return err
	}
	var res list[models.KeyBinding]
	if err := l.get(ctx, &res, "/api/key-bindings/search?q="+url.QueryEscape(q)); err != nil {
		return err
	}
	err := table(w, "ID\tSHORTCUT\tCATEGORY\tACTIVE\tTEMPLATE", func(tw *tabwriter.Writer) {
		bindingRows(tw, res.Data)
	})
	fmt.Fprintf(w, "%d match(es) for %s\n", res.Meta.Total, strconv.Quote(q))
	return err
}

func (l *loader) extension(ctx context.Context, w io.Writer, _ routing.Request) error {
	var es models.ExtensionSettings
	if err := l.get(ctx, &es, "/api/extension-settings"); err != nil {
		return err
	}
	state := "disabled"
	if es.IsEnabled {
		state = "enabled"
	}
	_, err := fmt.Fprintf(w, "Browser extension: %s\nLast sync: %s\nSettings: %s\n", state, when(es.LastSync), compact(es.Settings))
	return err
}

func (l *loader) activity(ctx context.Context, w io.Writer, req routing.Request) error {
	var res list[models.ActivityLog]
	if err := l.get(ctx, &res, "/api/activity-logs"+pageQuery(req)); err != nil {
		return err
	}
	err := table(w, "WHEN\tACTION\tIP\tDETAILS", func(tw *tabwriter.Writer) {
		for _, a := range res.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when(&a.CreatedAt), a.Action, a.IPAddress, compact(a.Details))
		}
	})
	footer(w, res.Meta)
	return err
}

var tierPerks = map[models.Tier]string{
	models.TierStandard: "key bindings, template search",
	models.TierGold:     "standard + browser extension sync",
	models.TierPlatinum: "gold + priority support",
}

func (l *loader) membership(_ context.Context, w io.Writer, _ routing.Request) error {
	u := l.user()
	fmt.Fprintf(w, "Your plan: %s\n\n", u.Tier)
	return table(w, "\tTIER\tINCLUDES", func(tw *tabwriter.Writer) {
		for _, t := range models.Tiers {
			mark := ""
			if t == u.Tier {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, t, tierPerks[t])
		}
	})
}

func (l *loader) settings(_ context.Context, w io.Writer, _ routing.Request) error {
	u := l.user()
	_, err := fmt.Fprintf(w, "Profile\n\nemail: %s\nfirst name: %s\nlast name: %s\nimage: %s\nrole: %s\nlast login: %s\n",
		str(u.Email), str(u.FirstName), str(u.LastName), str(u.ProfileImageURL), u.Role, when(u.LastLogin))
	return err
}
