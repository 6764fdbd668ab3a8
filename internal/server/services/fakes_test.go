package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type fakeUsers struct {
	byEmail    *models.User
	byEmailErr error
	byName     *models.User
	byNameErr  error
	byID       *models.User
	byIDErr    error

	createErr error
	created   []*models.User
}

func lookup(u *models.User, err error) (*models.User, error) {
	if u == nil && err == nil {
		return nil, common.ErrorNotFound
	}
	return u, err
}

func (f *fakeUsers) FindByEmail(context.Context, string) (*models.User, error) {
	return lookup(f.byEmail, f.byEmailErr)
}

func (f *fakeUsers) FindByUsername(context.Context, string) (*models.User, error) {
	return lookup(f.byName, f.byNameErr)
}

func (f *fakeUsers) FindByID(context.Context, string) (*models.User, error) {
	return lookup(f.byID, f.byIDErr)
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User, password string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-1"
	f.created = append(f.created, u)
	return u, nil
}

type fakeRoles struct {
	assignErr error
	assigned  []string
	roles     []string
	rolesErr  error
}

func (f *fakeRoles) AssignRole(ctx context.Context, u *models.User, role string) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assigned = append(f.assigned, role)
	return nil
}

func (f *fakeRoles) GetRoles(context.Context, *models.User) ([]string, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	if f.roles != nil {
		return f.roles, nil
	}
	return f.assigned, nil
}

type fakeManager struct {
	users *fakeUsers
	roles *fakeRoles
	txs   int
}

var _ repomanager.RepositoryManager = (*fakeManager)(nil)

func (m *fakeManager) RunMigrations(context.Context) error { return nil }
func (m *fakeManager) Users() users.Repository             { return m.users }
func (m *fakeManager) Roles() roles.Repository             { return m.roles }
func (m *fakeManager) Close() error                        { return nil }

func (m *fakeManager) WithTx(ctx context.Context, fn repomanager.TxFunc) error {
	m.txs++
	return fn(ctx, m.users, m.roles)
}

// fakeHasher accepts a password when the stored hash equals "h:"+password.
type fakeHasher struct {
	hashErr error

	mu       sync.Mutex
	verifies int
}

func (f *fakeHasher) Hash(p string) (cryptox.CredentialPair, error) {
	if f.hashErr != nil {
		return cryptox.CredentialPair{}, f.hashErr
	}
	return cryptox.CredentialPair{Hash: []byte("h:" + p), Salt: []byte("salt")}, nil
}

func (f *fakeHasher) Verify(p string, hash, salt []byte) bool {
	f.mu.Lock()
	f.verifies++
	f.mu.Unlock()
	return string(hash) == "h:"+p
}

type fakeIssuer struct {
	err       error
	lastRoles []string
}

func (f *fakeIssuer) Mint(u *models.User, roles []string, extra []auth.Claim) (*auth.SignedToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastRoles = roles
	return &auth.SignedToken{Token: "tok-" + u.UserName, ID: "jti"}, nil
}

type recordedAttempt struct{ op, result string }

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []recordedAttempt
}

func (f *fakeRecorder) AuthAttempt(op, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, recordedAttempt{op, result})
}

var errDBDown = errors.New("db down")
