package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/pkg/apiclient"
)

// Gate shows Page only to users holding Required. Anyone else sees a denial line
// and one notification; nothing is redirected.
type Gate struct {
	Required models.Role
	Page     Page
	Auth     AuthSource
	Notifier Notifier
}

func (g *Gate) Render(ctx context.Context, w io.Writer, req Request) error {
	st := g.Auth.State()
	if st.IsLoading {
		return LoadingPlaceholder.Render(ctx, w, req)
	}
	if st.User == nil || st.User.Role != g.Required {
		if g.Notifier != nil {
			g.Notifier.Notify("Access denied", fmt.Sprintf("%s requires the %s role", req.Path, g.Required))
		}
		return Placeholder("Access denied").Render(ctx, w, req)
	}
	return g.Page.Render(ctx, w, req)
}

const (
	LoginPath     = "/api/login"
	RedirectDelay = 500 * time.Millisecond
)

// Errors surfaces page load failures: one notification each, plus a delayed
// navigation to the login handoff when the server answered 401.
type Errors struct {
	Notifier  Notifier
	Navigator Navigator
	Delay     time.Duration
}

// Report returns the pending redirect timer, or nil when none was scheduled.
func (e *Errors) Report(err error) *time.Timer {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		e.Notifier.Notify("Unauthorized", "You are logged out. Logging in again...")
		if e.Navigator == nil {
			return nil
		}
		delay := e.Delay
		if delay <= 0 {
			delay = RedirectDelay
		}
		return time.AfterFunc(delay, func() { e.Navigator.Navigate(LoginPath) })
	}
	e.Notifier.Notify("Error", err.Error())
	return nil
}
