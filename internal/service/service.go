package service

import (
	"errors"

	"github.com/Skotchmaster/medflow/internal/models"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Actor is the authenticated caller of a mutation and the request it came from.
type Actor struct {
	UserID    string
	Role      models.Role
	IP        string
	UserAgent string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }
