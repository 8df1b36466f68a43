// Package authstate tracks who the dashboard is signed in as.
package authstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/pkg/apiclient"
	"github.com/Skotchmaster/medflow/pkg/querycache"
)

const CurrentUserPath = "/api/auth/user"

type State struct {
	User            *models.User
	IsLoading       bool
	IsAuthenticated bool
}

type Provider struct {
	cache *querycache.Client
	query apiclient.QueryFunc

	mu    sync.RWMutex
	state State
}

// NewProvider starts in the loading state; call Resolve to settle it.
func NewProvider(cache *querycache.Client, api *apiclient.Client) *Provider {
	return &Provider{
		cache: cache,
		query: api.QueryFn(apiclient.QueryOptions{On401: apiclient.ReturnNull}),
		state: State{IsLoading: true},
	}
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Resolve reads the current user through the cache. A 401 settles the state as
// signed out; any other failure does too and is returned. A user whose role is
// not known is a failure.
func (p *Provider) Resolve(ctx context.Context) (State, error) {
	u, err := querycache.Get(ctx, p.cache, CurrentUserPath, func(ctx context.Context) (*models.User, error) {
		payload, err := p.query(ctx, CurrentUserPath)
		if err != nil || payload == nil {
			return nil, err
		}
		var u models.User
		if err := payload.Decode(&u); err != nil {
			return nil, err
		}
		if _, err := models.ParseRole(string(u.Role)); err != nil {
			return nil, fmt.Errorf("current user: %w", err)
		}
		return &u, nil
	})

	st := State{User: u, IsAuthenticated: err == nil && u != nil}
	if !st.IsAuthenticated {
		st.User = nil
	}

	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
	return st, err
}

// Reset drops the cached user and returns to the loading state, for use after login
// or logout.
func (p *Provider) Reset() {
	p.cache.Invalidate(CurrentUserPath)
	p.mu.Lock()
	p.state = State{IsLoading: true}
	p.mu.Unlock()
}
