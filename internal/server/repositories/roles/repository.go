// Package roles stores role assignments for identities.
package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the role store consumed by the authentication service.
type Repository interface {
	// AssignRole links user to the named role. An unknown role yields
	// common.ErrRoleNotFound.
	AssignRole(ctx context.Context, user *models.User, role string) error
	// GetRoles returns the names of every role held by user, sorted.
	GetRoles(ctx context.Context, user *models.User) ([]string, error)
}
