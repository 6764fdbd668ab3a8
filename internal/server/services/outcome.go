package services

import "time"

// Outcome is the result of a register, login or profile call: either
// *Authenticated or *Rejected.
type Outcome interface {
	outcome()
}

// Authenticated carries the identity and, for register and login, a freshly
// signed token.
type Authenticated struct {
	Token     string
	ExpiresOn time.Time
	UserName  string
	Email     string
	Roles     []string
}

// Rejected carries a client-class failure: validation, duplicate
// credential, directory policy or bad credentials.
type Rejected struct {
	Err error
}

func (*Authenticated) outcome() {}
func (*Rejected) outcome()      {}

// Message is the human-readable reason, safe to return to the caller.
func (r *Rejected) Message() string { return r.Err.Error() }
