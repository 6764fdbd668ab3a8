// Package auth mints and verifies the signed session tokens handed out after
// registration and login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IssuerConfig carries the signing settings read from configuration.
type IssuerConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
	TTL       time.Duration
}

// SignedToken is a compact JWS together with its expiry, so callers can
// report the expiry without parsing the token again.
type SignedToken struct {
	Token     string
	ID        string
	ExpiresOn time.Time
}

// Issuer assembles claim sets and signs them with HS512. It is immutable
// after construction and safe for concurrent use.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces the wall clock used for iat/nbf/exp.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// MinSecretLength is the shortest HS512 secret accepted, in bytes: one
// SHA-512 output.
const MinSecretLength = 64

// NewIssuer validates cfg and returns an Issuer. A missing or short secret
// is a TokenSigningError; a missing issuer, audience or lifetime is a
// ConfigurationError. Both are meant to stop the process at startup.
func NewIssuer(cfg IssuerConfig, opts ...Option) (*Issuer, error) {
	if cfg.SecretKey == "" {
		return nil, &common.TokenSigningError{Err: errors.New("signing secret app_settings.token is empty")}
	}
	if len(cfg.SecretKey) < MinSecretLength {
		return nil, &common.TokenSigningError{
			Err: fmt.Errorf("signing secret app_settings.token is %d bytes, need at least %d", len(cfg.SecretKey), MinSecretLength),
		}
	}
	if cfg.Issuer == "" {
		return nil, &common.ConfigurationError{Setting: "jwt.issuer", Reason: "is not set"}
	}
	if cfg.Audience == "" {
		return nil, &common.ConfigurationError{Setting: "jwt.audience", Reason: "is not set"}
	}
	if cfg.TTL <= 0 {
		return nil, &common.ConfigurationError{Setting: "jwt.duration", Reason: "must be positive"}
	}

	i := &Issuer{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// Mint builds the claim set for user (base claims, then extra, then one
// claim per role), signs it and returns the token with its expiry.
func (i *Issuer) Mint(user *models.User, roles []string, extra []Claim) (*SignedToken, error) {
	if i == nil || len(i.secret) == 0 {
		return nil, &common.TokenSigningError{Err: errors.New("issuer has no signing secret")}
	}
	if user == nil {
		return nil, &common.TokenSigningError{Err: errors.New("no identity to sign for")}
	}

	jti := uuid.NewString()
	claims := make(ClaimSet, 0, 4+len(extra)+len(roles)+5)
	claims = append(claims,
		Claim{Name: ClaimSubject, Value: user.UserName},
		Claim{Name: ClaimTokenID, Value: jti},
		Claim{Name: ClaimEmail, Value: user.Email},
		Claim{Name: ClaimUserID, Value: user.ID},
	)

	for _, c := range extra {
		if _, reserved := reservedClaims[c.Name]; reserved {
			return nil, &common.TokenSigningError{Err: fmt.Errorf("claim %q is set by the issuer", c.Name)}
		}
		claims = append(claims, c)
	}

	for _, r := range roles {
		claims = append(claims, Claim{Name: ClaimRoles, Value: r})
	}

	now := i.now()
	expires := jwt.NewNumericDate(now.Add(i.ttl))
	issued := jwt.NewNumericDate(now)
	claims = append(claims,
		Claim{Name: ClaimIssuer, Value: i.issuer},
		Claim{Name: ClaimAudience, Value: i.audience},
		Claim{Name: ClaimExpires, Value: expires},
		Claim{Name: ClaimNotBefore, Value: issued},
		Claim{Name: ClaimIssuedAt, Value: issued},
	)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, &common.TokenSigningError{Err: err}
	}

	return &SignedToken{Token: signed, ID: jti, ExpiresOn: expires.Time}, nil
}

// Parse verifies signature, algorithm, issuer, audience and lifetime and
// returns the token's claims.
func (i *Issuer) Parse(tokenString string) (ClaimSet, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claimSetFromMap(claims), nil
}
