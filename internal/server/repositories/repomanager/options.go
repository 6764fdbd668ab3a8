package repomanager

import "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"

// Option configures a repository manager.
type Option func(*options)

type options struct {
	policy users.Policy
}

func newOptions(opts []Option) options {
	o := options{policy: users.DefaultPolicy}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithUserPolicy sets the policy new users are checked against.
func WithUserPolicy(p users.Policy) Option {
	return func(o *options) { o.policy = p }
}
