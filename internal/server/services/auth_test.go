package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *AuthService
	users    *fakeUsers
	roles    *fakeRoles
	manager  *fakeManager
	hasher   *fakeHasher
	issuer   *fakeIssuer
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    &fakeUsers{},
		roles:    &fakeRoles{},
		hasher:   &fakeHasher{},
		issuer:   &fakeIssuer{},
		recorder: &fakeRecorder{},
	}
	f.manager = &fakeManager{users: f.users, roles: f.roles}

	svc, err := NewAuthService(f.manager, f.hasher, f.issuer, logging.NewDiscard(), WithMetrics(f.recorder))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		UserName:    "alice",
		Email:       "alice@example.com",
		Password:    "Passw0rd!",
		FirstName:   "Alice",
		LastName:    "Smith",
		City:        "Cairo",
		PhoneNumber: "+201001234567",
		GenderID:    1,
		RegionID:    3,
	}
}

func requireRejected(t *testing.T, out Outcome, err error) *Rejected {
	t.Helper()
	require.NoError(t, err)
	rej, ok := out.(*Rejected)
	require.True(t, ok, "want *Rejected, got %T", out)
	return rej
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	a, ok := out.(*Authenticated)
	require.True(t, ok, "want *Authenticated, got %T", out)
	assert.Equal(t, "tok-alice", a.Token)
	assert.Equal(t, "alice", a.UserName)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Equal(t, []string{common.DefaultRole}, a.Roles)
	assert.Equal(t, []string{common.DefaultRole}, f.issuer.lastRoles)

	require.Len(t, f.users.created, 1)
	u := f.users.created[0]
	assert.Equal(t, []byte("h:Passw0rd!"), u.PasswordHash)
	assert.Equal(t, "Cairo", u.City)
	assert.Equal(t, 3, u.RegionID)
	assert.Equal(t, 1, f.manager.txs)
	assert.Contains(t, f.recorder.attempts, recordedAttempt{metrics.OpRegister, metrics.ResultSuccess})
}

func TestRegister_FreshIdentityPerRequest(t *testing.T) {
	f := newFixture(t)

	req := validRegister()
	_, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.UserName, req.Email = "bob", "bob@example.com"
	_, err = f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.users.created, 2)
	assert.NotSame(t, f.users.created[0], f.users.created[1])
	assert.Equal(t, "alice", f.users.created[0].UserName)
}

func TestRegister_ValidationRejected(t *testing.T) {
	f := newFixture(t)

	req := validRegister()
	req.Email = "not-an-email"
	req.UserName = "bad name"

	out, err := f.svc.Register(context.Background(), req)
	rej := requireRejected(t, out, err)

	var verr *common.ValidationError
	require.ErrorAs(t, rej.Err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Empty(t, f.users.created)
	assert.Contains(t, f.recorder.attempts, recordedAttempt{metrics.OpRegister, metrics.ResultRejected})
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.users.byEmail = &models.User{ID: "x"}

	out, err := f.svc.Register(context.Background(), validRegister())
	rej := requireRejected(t, out, err)

	var dup *common.DuplicateCredentialError
	require.ErrorAs(t, rej.Err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.Equal(t, "Email is already registered", rej.Message())
	assert.Empty(t, f.users.created)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.users.byName = &models.User{ID: "x"}

	out, err := f.svc.Register(context.Background(), validRegister())
	rej := requireRejected(t, out, err)

	var dup *common.DuplicateCredentialError
	require.ErrorAs(t, rej.Err, &dup)
	assert.Equal(t, "username", dup.Field)
	assert.Empty(t, f.users.created)
}

func TestRegister_LookupFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.users.byEmailErr = errDBDown

	out, err := f.svc.Register(context.Background(), validRegister())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, errDBDown)
	assert.Contains(t, f.recorder.attempts, recordedAttempt{metrics.OpRegister, metrics.ResultError})
}

func TestRegister_HashingFailure(t *testing.T) {
	f := newFixture(t)
	f.hasher.hashErr = &common.HashingError{Err: errors.New("no entropy")}

	_, err := f.svc.Register(context.Background(), validRegister())
	assert.ErrorIs(t, err, common.ErrHashing)
	assert.Empty(t, f.users.created)
}

func TestRegister_DirectoryPolicyRejected(t *testing.T) {
	f := newFixture(t)
	f.users.createErr = &common.RegistrationError{Reasons: []string{"first", "second"}}

	out, err := f.svc.Register(context.Background(), validRegister())
	rej := requireRejected(t, out, err)

	assert.ErrorIs(t, rej.Err, common.ErrRegistration)
	assert.Equal(t, "first, second", rej.Message())
	assert.Empty(t, f.roles.assigned)
}

func TestRegister_RoleAssignmentFailure(t *testing.T) {
	f := newFixture(t)
	f.roles.assignErr = common.ErrRoleNotFound

	out, err := f.svc.Register(context.Background(), validRegister())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, common.ErrRoleNotFound)
}

func TestRegister_CustomDefaultRole(t *testing.T) {
	f := newFixture(t)
	svc, err := NewAuthService(f.manager, f.hasher, f.issuer, logging.NewDiscard(), WithDefaultRole("Customer"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer"}, f.roles.assigned)
}

func TestRegister_SigningFailure(t *testing.T) {
	f := newFixture(t)
	f.issuer.err = &common.TokenSigningError{Err: errors.New("no key")}

	out, err := f.svc.Register(context.Background(), validRegister())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, common.ErrTokenSigning)
}

func storedAlice() *models.User {
	return &models.User{
		ID:           "u-1",
		UserName:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("h:Passw0rd!"),
		PasswordSalt: []byte("salt"),
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.users.byEmail = storedAlice()
	f.roles.roles = []string{"Admin", "User"}

	out, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	a, ok := out.(*Authenticated)
	require.True(t, ok, "want *Authenticated, got %T", out)
	assert.Equal(t, "tok-alice", a.Token)
	assert.Equal(t, []string{"Admin", "User"}, a.Roles)
	assert.Equal(t, []string{"Admin", "User"}, f.issuer.lastRoles)
}

func TestLogin_FailuresLookIdentical(t *testing.T) {
	f := newFixture(t)

	unknown, err := f.svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "Passw0rd!"})
	rejUnknown := requireRejected(t, unknown, err)
	assert.Equal(t, 1, f.hasher.verifies, "unknown account must still run a verify")

	f.users.byEmail = storedAlice()
	wrong, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "nope"})
	rejWrong := requireRejected(t, wrong, err)

	assert.ErrorIs(t, rejUnknown.Err, common.ErrAuthentication)
	assert.ErrorIs(t, rejWrong.Err, common.ErrAuthentication)
	assert.Equal(t, common.InvalidCredentialsMessage, rejUnknown.Message())
	assert.Equal(t, rejUnknown.Message(), rejWrong.Message())
}

func TestLogin_ValidationRejected(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice"})
	rej := requireRejected(t, out, err)
	assert.ErrorIs(t, rej.Err, common.ErrValidation)
}

func TestLogin_LookupFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.users.byEmailErr = errDBDown

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, errDBDown)
}

func TestLogin_RolesFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.users.byEmail = storedAlice()
	f.roles.rolesErr = errDBDown

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	assert.ErrorIs(t, err, errDBDown)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	f.users.byID = storedAlice()
	f.roles.roles = []string{"User"}

	out, err := f.svc.Me(context.Background(), auth.ClaimSet{{Name: auth.ClaimUserID, Value: "u-1"}})
	require.NoError(t, err)

	a, ok := out.(*Authenticated)
	require.True(t, ok)
	assert.Empty(t, a.Token)
	assert.Equal(t, "alice", a.UserName)
	assert.Equal(t, []string{"User"}, a.Roles)
}

func TestMe_UnknownOrMissingIdentity(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Me(context.Background(), auth.ClaimSet{})
	rej := requireRejected(t, out, err)
	assert.ErrorIs(t, rej.Err, common.ErrInvalidToken)

	out, err = f.svc.Me(context.Background(), auth.ClaimSet{{Name: auth.ClaimUserID, Value: "gone"}})
	rej = requireRejected(t, out, err)
	assert.ErrorIs(t, rej.Err, common.ErrInvalidToken)
}
