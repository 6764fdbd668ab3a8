// Package repomanager vends the user directory and role store for a storage
// backend and runs units of work that span both.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// TxFunc is a unit of work. The repositories it receives are bound to the
// enclosing transaction and must not be retained after it returns.
type TxFunc func(ctx context.Context, users users.Repository, roles roles.Repository) error

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Roles() roles.Repository
	// WithTx runs fn atomically: when fn fails nothing it wrote is kept.
	WithTx(ctx context.Context, fn TxFunc) error
	Close() error
}
