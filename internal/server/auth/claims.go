package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Well-known claim names.
const (
	ClaimSubject   = "sub"
	ClaimTokenID   = "jti"
	ClaimEmail     = "email"
	ClaimUserID    = "uid"
	ClaimRoles     = "roles"
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
	ClaimExpires   = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
)

// reservedClaims are set by the issuer only and may appear at most once.
var reservedClaims = map[string]struct{}{
	ClaimIssuer:    {},
	ClaimAudience:  {},
	ClaimExpires:   {},
	ClaimNotBefore: {},
	ClaimIssuedAt:  {},
}

// Claim is one (name, value) pair of a token payload.
type Claim struct {
	Name  string
	Value any
}

// ClaimSet is an ordered multimap of claims. Repeated names are kept; when
// serialized they collapse into a JSON array at the position of the first
// occurrence.
type ClaimSet []Claim

// Values returns every value recorded under name, in order.
func (cs ClaimSet) Values(name string) []any {
	var out []any
	for _, c := range cs {
		if c.Name == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// Count returns how many claims carry the given name.
func (cs ClaimSet) Count(name string) int {
	n := 0
	for _, c := range cs {
		if c.Name == name {
			n++
		}
	}
	return n
}

// First returns the first value under name rendered as a string, or "".
func (cs ClaimSet) First(name string) string {
	for _, c := range cs {
		if c.Name == name {
			return stringValue(c.Value)
		}
	}
	return ""
}

// Strings returns every value under name rendered as a string.
func (cs ClaimSet) Strings(name string) []string {
	vals := cs.Values(name)
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, stringValue(v))
	}
	return out
}

// Roles returns the role claims.
func (cs ClaimSet) Roles() []string { return cs.Strings(ClaimRoles) }

// MarshalJSON writes the claims as one JSON object, preserving first
// appearance order of names.
func (cs ClaimSet) MarshalJSON() ([]byte, error) {
	order := make([]string, 0, len(cs))
	grouped := make(map[string][]any, len(cs))
	for _, c := range cs {
		if _, seen := grouped[c.Name]; !seen {
			order = append(order, c.Name)
		}
		grouped[c.Name] = append(grouped[c.Name], c.Value)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val []byte
		if vs := grouped[name]; len(vs) == 1 {
			val, err = json.Marshal(vs[0])
		} else {
			val, err = json.Marshal(vs)
		}
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// claimSetFromMap flattens parsed claims. Map order is lost, so names are
// sorted; arrays expand into repeated claims.
func claimSetFromMap(m jwt.MapClaims) ClaimSet {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	cs := make(ClaimSet, 0, len(m))
	for _, name := range names {
		if arr, ok := m[name].([]any); ok {
			for _, v := range arr {
				cs = append(cs, Claim{Name: name, Value: v})
			}
			continue
		}
		cs = append(cs, Claim{Name: name, Value: m[name]})
	}
	return cs
}

// jwt.Claims implementation

func (cs ClaimSet) GetExpirationTime() (*jwt.NumericDate, error) { return cs.numericDate(ClaimExpires) }
func (cs ClaimSet) GetIssuedAt() (*jwt.NumericDate, error)       { return cs.numericDate(ClaimIssuedAt) }
func (cs ClaimSet) GetNotBefore() (*jwt.NumericDate, error)      { return cs.numericDate(ClaimNotBefore) }
func (cs ClaimSet) GetIssuer() (string, error)                   { return cs.First(ClaimIssuer), nil }
func (cs ClaimSet) GetSubject() (string, error)                  { return cs.First(ClaimSubject), nil }

func (cs ClaimSet) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings(cs.Strings(ClaimAudience)), nil
}

func (cs ClaimSet) numericDate(name string) (*jwt.NumericDate, error) {
	vals := cs.Values(name)
	if len(vals) == 0 {
		return nil, nil
	}
	if len(vals) > 1 {
		return nil, fmt.Errorf("claim %q appears %d times", name, len(vals))
	}
	switch v := vals[0].(type) {
	case *jwt.NumericDate:
		return v, nil
	case float64:
		return jwt.NewNumericDate(time.Unix(int64(v), 0)), nil
	case int64:
		return jwt.NewNumericDate(time.Unix(v, 0)), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return jwt.NewNumericDate(time.Unix(n, 0)), nil
	default:
		return nil, fmt.Errorf("claim %q has unexpected type %T", name, v)
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
