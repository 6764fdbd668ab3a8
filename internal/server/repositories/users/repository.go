// Package users is the user directory: lookup and creation of identities,
// including the identity policy enforced on creation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the user directory consumed by the authentication service.
// Lookups return common.ErrorNotFound when no identity matches.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, userName string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Create checks the identity policy, then stores user. Policy failures
	// come back as one *common.RegistrationError listing every reason; a
	// username or email collision as *common.DuplicateCredentialError.
	Create(ctx context.Context, user *models.User, password string) (*models.User, error)
}
