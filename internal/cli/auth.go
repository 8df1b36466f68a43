package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/transport"
	"github.com/Skotchmaster/medflow/pkg/apiclient"
)

func (a *App) login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = prompt(a.reader, a.out, "Email"); err != nil {
			return err
		}
	}

	pw, err := promptPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(pw)

	req := transport.LoginRequest{Email: email, Password: string(pw)}
	if err := req.Validate(); err != nil {
		return err
	}

	_, err = a.api.Request(ctx, http.MethodPost, "/api/login", req)
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			return errors.New("invalid email or password")
		}
		return fmt.Errorf("login: %w", err)
	}

	a.cache.Invalidate("")
	a.auth.Reset()
	st, err := a.auth.Resolve(ctx)
	if err != nil {
		return err
	}
	if !st.IsAuthenticated {
		return errors.New("login accepted but the session was not recognized")
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(st.User))
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if !a.api.HasSession() {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	if _, err := a.api.Request(ctx, http.MethodPost, "/api/logout", nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.cache.Invalidate("")
	a.auth.Reset()
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	a.settle(ctx)
	st := a.auth.State()
	if !st.IsAuthenticated {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	u := st.User
	fmt.Fprintf(a.out, "%s\nrole: %s\ntier: %s\n", displayName(u), u.Role, u.Tier)
	return nil
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.Email != nil:
		return *u.Email
	}
	return u.ID
}
