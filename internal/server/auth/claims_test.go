package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSet_MarshalJSON_GroupsDuplicates(t *testing.T) {
	cs := ClaimSet{
		{Name: "sub", Value: "bob"},
		{Name: "roles", Value: "User"},
		{Name: "email", Value: "bob@example.com"},
		{Name: "roles", Value: "Admin"},
	}

	b, err := json.Marshal(cs)
	require.NoError(t, err)
	assert.Equal(t, `{"sub":"bob","roles":["User","Admin"],"email":"bob@example.com"}`, string(b))
}

func TestClaimSet_Empty(t *testing.T) {
	b, err := json.Marshal(ClaimSet{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestClaimSet_Accessors(t *testing.T) {
	exp := jwt.NewNumericDate(time.Unix(1_800_000_000, 0))
	cs := ClaimSet{
		{Name: "sub", Value: "bob"},
		{Name: "aud", Value: "svc"},
		{Name: "exp", Value: exp},
		{Name: "iat", Value: float64(1_700_000_000)},
	}

	sub, err := cs.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)

	aud, err := cs.GetAudience()
	require.NoError(t, err)
	assert.Equal(t, jwt.ClaimStrings{"svc"}, aud)

	got, err := cs.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), got.Unix())

	iat, err := cs.GetIssuedAt()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), iat.Unix())

	nbf, err := cs.GetNotBefore()
	require.NoError(t, err)
	assert.Nil(t, nbf)

	assert.Equal(t, "", cs.First("missing"))
}

func TestClaimSet_DuplicateTimeClaimIsError(t *testing.T) {
	cs := ClaimSet{{Name: "exp", Value: float64(1)}, {Name: "exp", Value: float64(2)}}
	_, err := cs.GetExpirationTime()
	assert.Error(t, err)
}

func TestClaimSetFromMap_ExpandsArrays(t *testing.T) {
	cs := claimSetFromMap(jwt.MapClaims{
		"sub":   "bob",
		"roles": []any{"User", "Admin"},
	})
	assert.Equal(t, 2, cs.Count("roles"))
	assert.Equal(t, []string{"User", "Admin"}, cs.Roles())
	assert.Equal(t, "bob", cs.First("sub"))
}
