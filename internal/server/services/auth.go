// Package services contains server-side business logic. AuthService handles
// registration and login and issues the session token for both.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/validation"
)

// RegisterRequest is the registration form.
type RegisterRequest struct {
	UserName    string `json:"username" validate:"required,max=256,username"`
	Email       string `json:"email" validate:"required,email,max=256"`
	Password    string `json:"password" validate:"required,max=128"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	City        string `json:"city" validate:"max=100"`
	FullAddress string `json:"full_address" validate:"max=256"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	GenderID    int    `json:"gender_id" validate:"gte=0"`
	RegionID    int    `json:"region_id" validate:"gte=0"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CredentialHasher is implemented by *cryptox.Hasher.
type CredentialHasher interface {
	Hash(plaintext string) (cryptox.CredentialPair, error)
	Verify(plaintext string, hash, salt []byte) bool
}

// TokenIssuer is implemented by *auth.Issuer.
type TokenIssuer interface {
	Mint(user *models.User, roles []string, extra []auth.Claim) (*auth.SignedToken, error)
}

// AttemptRecorder is implemented by *metrics.Metrics.
type AttemptRecorder interface {
	AuthAttempt(operation, result string)
}

type nopRecorder struct{}

func (nopRecorder) AuthAttempt(string, string) {}

type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      CredentialHasher
	issuer      TokenIssuer
	defaultRole string
	log         logging.Logger
	metrics     AttemptRecorder

	// compared against when the account does not exist
	dummy cryptox.CredentialPair
}

// Option customizes an AuthService.
type Option func(*AuthService)

func WithDefaultRole(role string) Option {
	return func(s *AuthService) { s.defaultRole = role }
}

func WithMetrics(m AttemptRecorder) Option {
	return func(s *AuthService) { s.metrics = m }
}

// NewAuthService wires the service. It hashes a throwaway secret once so
// logins for unknown accounts cost the same as real ones.
func NewAuthService(m repomanager.RepositoryManager, hasher CredentialHasher, issuer TokenIssuer, log logging.Logger, opts ...Option) (*AuthService, error) {
	s := &AuthService{
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		defaultRole: common.DefaultRole,
		log:         log.With("module", "auth"),
		metrics:     nopRecorder{},
	}
	for _, o := range opts {
		o(s)
	}

	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, &common.HashingError{Err: err}
	}
	if s.dummy, err = hasher.Hash(filler); err != nil {
		return nil, err
	}

	return s, nil
}

// Register creates an identity holding the default role and returns a token
// for it. Client-class failures come back as *Rejected with a nil error;
// the error result is reserved for faults the caller cannot fix.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (Outcome, error) {
	if err := validation.Struct(req); err != nil {
		return s.reject(ctx, metrics.OpRegister, err), nil
	}

	dir := s.repomanager.Users()

	if _, err := dir.FindByEmail(ctx, req.Email); err == nil {
		return s.reject(ctx, metrics.OpRegister, &common.DuplicateCredentialError{Field: "email"}), nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.fail(ctx, metrics.OpRegister, fmt.Errorf("error searching user by email: %w", err))
	}

	if _, err := dir.FindByUsername(ctx, req.UserName); err == nil {
		return s.reject(ctx, metrics.OpRegister, &common.DuplicateCredentialError{Field: "username"}), nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return s.fail(ctx, metrics.OpRegister, fmt.Errorf("error searching user by username: %w", err))
	}

	pair, err := s.hasher.Hash(req.Password)
	if err != nil {
		return s.fail(ctx, metrics.OpRegister, err)
	}

	user := &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: pair.Hash,
		PasswordSalt: pair.Salt,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		City:         req.City,
		FullAddress:  req.FullAddress,
		PhoneNumber:  req.PhoneNumber,
		GenderID:     req.GenderID,
		RegionID:     req.RegionID,
	}

	var roleNames []string
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, ur users.Repository, rr roles.Repository) error {
		created, err := ur.Create(ctx, user, req.Password)
		if err != nil {
			return err
		}
		user = created

		if err := rr.AssignRole(ctx, user, s.defaultRole); err != nil {
			return fmt.Errorf("error assigning role %q: %w", s.defaultRole, err)
		}

		roleNames, err = rr.GetRoles(ctx, user)
		return err
	})
	if err != nil {
		if common.IsClientError(err) {
			return s.reject(ctx, metrics.OpRegister, err), nil
		}
		return s.fail(ctx, metrics.OpRegister, err)
	}

	out, err := s.authenticated(user, roleNames)
	if err != nil {
		return s.fail(ctx, metrics.OpRegister, err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	s.metrics.AuthAttempt(metrics.OpRegister, metrics.ResultSuccess)
	return out, nil
}

// Login checks the email/password pair and returns a token carrying the
// identity's current roles. A missing account and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (Outcome, error) {
	if err := validation.Struct(req); err != nil {
		return s.reject(ctx, metrics.OpLogin, err), nil
	}

	user, err := s.repomanager.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return s.fail(ctx, metrics.OpLogin, fmt.Errorf("error searching user by email: %w", err))
		}
		s.hasher.Verify(req.Password, s.dummy.Hash, s.dummy.Salt)
		return s.reject(ctx, metrics.OpLogin, &common.AuthenticationError{}), nil
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash, user.PasswordSalt) {
		return s.reject(ctx, metrics.OpLogin, &common.AuthenticationError{}), nil
	}

	roleNames, err := s.repomanager.Roles().GetRoles(ctx, user)
	if err != nil {
		return s.fail(ctx, metrics.OpLogin, fmt.Errorf("error reading roles: %w", err))
	}

	out, err := s.authenticated(user, roleNames)
	if err != nil {
		return s.fail(ctx, metrics.OpLogin, err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	s.metrics.AuthAttempt(metrics.OpLogin, metrics.ResultSuccess)
	return out, nil
}

// Me resolves the identity named by verified token claims. The outcome
// carries the current profile and roles but no new token.
func (s *AuthService) Me(ctx context.Context, claims auth.ClaimSet) (Outcome, error) {
	id := claims.First(auth.ClaimUserID)
	if id == "" {
		return &Rejected{Err: common.ErrInvalidToken}, nil
	}

	user, err := s.repomanager.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Rejected{Err: common.ErrInvalidToken}, nil
		}
		return nil, fmt.Errorf("error searching user by id: %w", err)
	}

	roleNames, err := s.repomanager.Roles().GetRoles(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error reading roles: %w", err)
	}

	return &Authenticated{UserName: user.UserName, Email: user.Email, Roles: roleNames}, nil
}

func (s *AuthService) authenticated(user *models.User, roleNames []string) (*Authenticated, error) {
	token, err := s.issuer.Mint(user, roleNames, nil)
	if err != nil {
		return nil, err
	}
	return &Authenticated{
		Token:     token.Token,
		ExpiresOn: token.ExpiresOn,
		UserName:  user.UserName,
		Email:     user.Email,
		Roles:     roleNames,
	}, nil
}

func (s *AuthService) reject(ctx context.Context, op string, err error) *Rejected {
	s.log.Info(ctx, op+" rejected", "reason", err.Error())
	s.metrics.AuthAttempt(op, metrics.ResultRejected)
	return &Rejected{Err: err}
}

func (s *AuthService) fail(ctx context.Context, op string, err error) (Outcome, error) {
	s.log.Error(ctx, op+" failed", "error", err)
	s.metrics.AuthAttempt(op, metrics.ResultError)
	return nil, err
}
