package users

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Policy is the set of constraints an identity must satisfy to be created.
type Policy struct {
	RequiredLength         int
	RequireDigit           bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireNonAlphanumeric bool
	AllowedUserNameChars   string
}

// DefaultPolicy mirrors the usual identity defaults.
var DefaultPolicy = Policy{
	RequiredLength:         6,
	RequireDigit:           true,
	RequireLowercase:       true,
	RequireUppercase:       true,
	RequireNonAlphanumeric: true,
	AllowedUserNameChars:   "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+",
}

// Check returns every reason user/password violate the policy, in a stable
// order. An empty result means the identity is acceptable.
func (p Policy) Check(user *models.User, password string) []string {
	var reasons []string

	if strings.TrimSpace(user.UserName) == "" {
		reasons = append(reasons, "Username is required.")
	} else if p.AllowedUserNameChars != "" {
		for _, r := range user.UserName {
			if !strings.ContainsRune(p.AllowedUserNameChars, r) {
				reasons = append(reasons, fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", user.UserName))
				break
			}
		}
	}

	if strings.TrimSpace(user.Email) == "" {
		reasons = append(reasons, "Email is required.")
	}

	if len([]rune(password)) < p.RequiredLength {
		reasons = append(reasons, fmt.Sprintf("Passwords must be at least %d characters.", p.RequiredLength))
	}

	var digit, lower, upper, other bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}

	if p.RequireNonAlphanumeric && !other {
		reasons = append(reasons, "Passwords must have at least one non alphanumeric character.")
	}
	if p.RequireDigit && !digit {
		reasons = append(reasons, "Passwords must have at least one digit ('0'-'9').")
	}
	if p.RequireLowercase && !lower {
		reasons = append(reasons, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if p.RequireUppercase && !upper {
		reasons = append(reasons, "Passwords must have at least one uppercase ('A'-'Z').")
	}

	return reasons
}

// NormalizeUserName is the form usernames are compared in. The stored
// username keeps the caller's casing.
func NormalizeUserName(userName string) string {
	return strings.ToLower(userName)
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
