// Package cli is the terminal dashboard: a REPL that resolves paths through the
// router and prints the selected page.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Skotchmaster/medflow/pkg/apiclient"
	"github.com/Skotchmaster/medflow/pkg/authstate"
	"github.com/Skotchmaster/medflow/pkg/querycache"
	"github.com/Skotchmaster/medflow/pkg/routing"
)

type App struct {
	api    *apiclient.Client
	cache  *querycache.Client
	auth   *authstate.Provider
	router *routing.Router
	errs   *routing.Errors

	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// NewApp wires the client stack. The cache is built first since the auth state
// reads through it.
func NewApp(cfg Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	api, err := apiclient.New(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	cache := querycache.New(querycache.Options{StaleTime: cfg.StaleTime})
	auth := authstate.NewProvider(cache, api)

	n := &notifier{w: errOut}
	a := &App{
		api:    api,
		cache:  cache,
		auth:   auth,
		errs:   &routing.Errors{Notifier: n, Navigator: &navigator{n: n, baseURL: api.BaseURL()}},
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	a.router = routing.NewRouter(auth, newPages(api, cache, auth), n)
	return a, nil
}

// Run executes args as a single command, or starts the REPL when there are none.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		_, err := a.exec(ctx, args)
		return err
	}
	return a.repl(ctx)
}

func (a *App) repl(ctx context.Context) error {
	fmt.Fprintln(a.out, "MedFlow dashboard (type 'help' for commands)")
	for {
		fmt.Fprintf(a.out, "medflow %s> ", a.status())
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		quit, err := a.exec(ctx, parts)
		if err != nil {
			fmt.Fprintf(a.errOut, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (a *App) status() string {
	st := a.auth.State()
	switch routing.StateOf(st) {
	case routing.Authenticated:
		return fmt.Sprintf("(%s)", displayName(st.User))
	case routing.Unauthenticated:
		return "(signed out)"
	}
	return ""
}

func (a *App) exec(ctx context.Context, parts []string) (bool, error) {
	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "help":
		a.help()
	case "login":
		return false, a.login(ctx, args)
	case "logout":
		return false, a.logout(ctx)
	case "whoami":
		return false, a.whoami(ctx)
	case "open", "o":
		path := "/"
		if len(args) > 0 {
			path = args[0]
		}
		return false, a.open(ctx, path)
	case "paths":
		a.paths(ctx)
	case "refresh":
		a.cache.Invalidate("")
		a.auth.Reset()
		fmt.Fprintln(a.out, "cache cleared")
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true, nil
	default:
		fmt.Fprintf(a.out, "unknown command %q (type 'help')\n", cmd)
	}
	return false, nil
}

func (a *App) help() {
	fmt.Fprintln(a.out, `Commands:
  login [email]   sign in with a local account
  logout          end the session
  whoami          show the signed-in user
  open [path]     render a page, "/" by default
  paths           list the pages you can open
  refresh         drop cached data
  exit            leave`)
}

// settle resolves the auth state if it has not been resolved yet.
func (a *App) settle(ctx context.Context) {
	if !a.auth.State().IsLoading {
		return
	}
	if _, err := a.auth.Resolve(ctx); err != nil {
		a.errs.Report(err)
	}
}

func (a *App) open(ctx context.Context, path string) error {
	a.settle(ctx)
	page, req := a.router.Resolve(path)
	if err := page.Render(ctx, a.out, req); err != nil {
		a.errs.Report(err)
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			a.auth.Reset()
		}
	}
	return nil
}

func (a *App) paths(ctx context.Context) {
	a.settle(ctx)
	if a.router.State() != routing.Authenticated {
		fmt.Fprintln(a.out, "/")
		return
	}
	st := a.auth.State()
	fmt.Fprintln(a.out, "/")
	for _, rt := range a.router.Paths() {
		if rt.Required != "" && rt.Required != st.User.Role {
			continue
		}
		fmt.Fprintln(a.out, rt.Path)
	}
}
