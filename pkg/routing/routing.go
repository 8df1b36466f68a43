// Package routing maps dashboard paths to pages according to the auth state and
// gates admin pages by role. The gate only decides what is shown; the server
// authorizes every request on its own.
package routing

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/pkg/authstate"
)

type State int

const (
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func StateOf(st authstate.State) State {
	switch {
	case st.IsLoading:
		return Loading
	case st.IsAuthenticated && st.User != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Request is the parsed path a page is rendered for.
type Request struct {
	Path  string
	Query url.Values
}

type Page interface {
	Render(ctx context.Context, w io.Writer, req Request) error
}

type PageFunc func(ctx context.Context, w io.Writer, req Request) error

func (f PageFunc) Render(ctx context.Context, w io.Writer, req Request) error { return f(ctx, w, req) }

// Placeholder renders a fixed line of text.
type Placeholder string

func (p Placeholder) Render(_ context.Context, w io.Writer, _ Request) error {
	_, err := fmt.Fprintln(w, string(p))
	return err
}

const (
	LoadingPlaceholder  Placeholder = "Loading..."
	NotFoundPlaceholder Placeholder = "404: page not found"
)

type Notifier interface {
	Notify(title, message string)
}

type Navigator interface {
	Navigate(path string)
}

type AuthSource interface {
	State() authstate.State
}

// Pages is the set of screens the route table points at.
type Pages struct {
	Landing        Page
	AdminDashboard Page
	UserDashboard  Page
	NotFound       Page

	Users         Page
	Analytics     Page
	Security      Page
	AdminSettings Page

	KeyBindings Page
	Templates   Page
	Extension   Page
	Activity    Page
	Membership  Page
	Settings    Page
}

type Route struct {
	Path     string
	Page     Page
	Required models.Role
}

type Router struct {
	auth     AuthSource
	pages    Pages
	notifier Notifier
	table    []Route
	routes   map[string]Route
}

func NewRouter(auth AuthSource, pages Pages, n Notifier) *Router {
	if pages.NotFound == nil {
		pages.NotFound = NotFoundPlaceholder
	}
	r := &Router{auth: auth, pages: pages, notifier: n, routes: map[string]Route{}}
	for _, rt := range []Route{
		{Path: "/users", Page: pages.Users, Required: models.RoleAdmin},
		{Path: "/analytics", Page: pages.Analytics, Required: models.RoleAdmin},
		{Path: "/security", Page: pages.Security, Required: models.RoleAdmin},
		{Path: "/admin/settings", Page: pages.AdminSettings, Required: models.RoleAdmin},
		{Path: "/key-bindings", Page: pages.KeyBindings},
		{Path: "/templates", Page: pages.Templates},
		{Path: "/extension", Page: pages.Extension},
		{Path: "/activity", Page: pages.Activity},
		{Path: "/membership", Page: pages.Membership},
		{Path: "/settings", Page: pages.Settings},
	} {
		if rt.Page != nil {
			r.table = append(r.table, rt)
			r.routes[rt.Path] = rt
		}
	}
	return r
}

func (r *Router) State() State { return StateOf(r.auth.State()) }

// Paths lists the routed paths other than "/".
func (r *Router) Paths() []Route { return r.table }

// Resolve picks the page for rawPath in the current state. Signed-out visitors get
// the landing page whatever the path.
func (r *Router) Resolve(rawPath string) (Page, Request) {
	req := parse(rawPath)

	switch r.State() {
	case Loading:
		return LoadingPlaceholder, req
	case Unauthenticated:
		return r.pages.Landing, req
	}

	if req.Path == "/" {
		return r.home(r.auth.State().User.Role), req
	}
	rt, ok := r.routes[req.Path]
	if !ok {
		return r.pages.NotFound, req
	}
	if rt.Required != "" {
		return &Gate{Required: rt.Required, Page: rt.Page, Auth: r.auth, Notifier: r.notifier}, req
	}
	return rt.Page, req
}

func (r *Router) home(role models.Role) Page {
	switch role {
	case models.RoleAdmin:
		return r.pages.AdminDashboard
	case models.RoleUser:
		return r.pages.UserDashboard
	}
	panic(fmt.Sprintf("routing: no dashboard for role %q", role))
}

func parse(rawPath string) Request {
	u, err := url.Parse(rawPath)
	if err != nil || u.Path == "" {
		return Request{Path: "/", Query: url.Values{}}
	}
	path := u.Path
	if path[0] != '/' {
		path = "/" + path
	}
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return Request{Path: path, Query: u.Query()}
}
