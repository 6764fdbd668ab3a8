package repomanager

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memoryState is everything the in-memory backend stores.
type memoryState struct {
	users       map[string]models.User // by id
	knownRoles  map[string]struct{}
	assignments map[string][]string // user id -> role names
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		users:       make(map[string]models.User, len(s.users)),
		knownRoles:  make(map[string]struct{}, len(s.knownRoles)),
		assignments: make(map[string][]string, len(s.assignments)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k := range s.knownRoles {
		c.knownRoles[k] = struct{}{}
	}
	for k, v := range s.assignments {
		c.assignments[k] = slices.Clone(v)
	}
	return c
}

// InMemoryRepositoryManager keeps identities in process memory. All access
// goes through one mutex; WithTx holds it for the whole unit of work.
type InMemoryRepositoryManager struct {
	mu     sync.Mutex
	state  *memoryState
	policy users.Policy
	now    func() time.Time
}

// NewInMemoryRepositoryManager seeds the same roles as the SQL migrations.
func NewInMemoryRepositoryManager(opts ...Option) *InMemoryRepositoryManager {
	o := newOptions(opts)
	return &InMemoryRepositoryManager{
		state: &memoryState{
			users:       map[string]models.User{},
			knownRoles:  map[string]struct{}{"User": {}, "Admin": {}},
			assignments: map[string][]string{},
		},
		policy: o.policy,
		now:    time.Now,
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return &memUsers{m: m, lock: true}
}

func (m *InMemoryRepositoryManager) Roles() roles.Repository {
	return &memRoles{m: m, lock: true}
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn TxFunc) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	defer func() {
		if p := recover(); p != nil {
			m.state = snapshot
			panic(p)
		}
		if err != nil {
			m.state = snapshot
		}
	}()

	return fn(ctx, &memUsers{m: m}, &memRoles{m: m})
}

func (m *InMemoryRepositoryManager) acquire(lock bool) func() {
	if !lock {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

type memUsers struct {
	m    *InMemoryRepositoryManager
	lock bool
}

func (r *memUsers) Create(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if reasons := r.m.policy.Check(user, password); len(reasons) > 0 {
		return nil, &common.RegistrationError{Reasons: reasons}
	}

	defer r.m.acquire(r.lock)()

	email := users.NormalizeEmail(user.Email)
	for _, u := range r.m.state.users {
		if u.Email == email {
			return nil, &common.DuplicateCredentialError{Field: "email"}
		}
	}
	for _, u := range r.m.state.users {
		if strings.EqualFold(u.UserName, user.UserName) {
			return nil, &common.DuplicateCredentialError{Field: "username"}
		}
	}

	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = r.m.now().UTC()
	r.m.state.users[user.ID] = *user

	return user, nil
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = users.NormalizeEmail(email)
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *memUsers) FindByUsername(ctx context.Context, userName string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.UserName, userName) })
}

func (r *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *memUsers) find(match func(models.User) bool) (*models.User, error) {
	defer r.m.acquire(r.lock)()

	for _, u := range r.m.state.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memRoles struct {
	m    *InMemoryRepositoryManager
	lock bool
}

func (r *memRoles) AssignRole(ctx context.Context, user *models.User, role string) error {
	defer r.m.acquire(r.lock)()

	if _, ok := r.m.state.knownRoles[role]; !ok {
		return common.ErrRoleNotFound
	}
	if _, ok := r.m.state.users[user.ID]; !ok {
		return common.ErrorNotFound
	}

	held := r.m.state.assignments[user.ID]
	if !slices.Contains(held, role) {
		r.m.state.assignments[user.ID] = append(held, role)
	}
	return nil
}

func (r *memRoles) GetRoles(ctx context.Context, user *models.User) ([]string, error) {
	defer r.m.acquire(r.lock)()

	names := slices.Clone(r.m.state.assignments[user.ID])
	if names == nil {
		names = []string{}
	}
	slices.Sort(names)
	return names, nil
}
