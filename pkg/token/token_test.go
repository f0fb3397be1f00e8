package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/pkg/token"
)

var secret = []byte("test-secret")

func TestGenerateVerifyRoundTrip(t *testing.T) {
	tok, err := token.Generate(secret, "merchant-1", models.RoleMerchant, 7, time.Hour)
	require.NoError(t, err)

	claims, err := token.Verify(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMerchant, claims.Role)
	assert.Equal(t, 7, claims.MerchantID)
	assert.Equal(t, "merchant-1", claims.Subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := token.Generate(secret, "admin", models.RoleAdmin, 0, time.Hour)
	require.NoError(t, err)

	_, err = token.Verify([]byte("other-secret"), tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tok, err := token.Generate(secret, "admin", models.RoleAdmin, 0, -time.Minute)
	require.NoError(t, err)

	_, err = token.Verify(secret, tok)
	assert.Error(t, err)
}

func TestDecodeRoleNeedsNoSecret(t *testing.T) {
	tok, err := token.Generate(secret, "admin", models.RoleAdmin, 0, time.Hour)
	require.NoError(t, err)

	role, err := token.DecodeRole(tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestDecodeRoleMalformedToken(t *testing.T) {
	_, err := token.DecodeRole("definitely-not-a-jwt")
	assert.Error(t, err)
}

func TestDecodeRoleMissingClaim(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nobody"}).SignedString(secret)
	require.NoError(t, err)

	_, err = token.DecodeRole(tok)
	assert.ErrorIs(t, err, token.ErrNoRoleClaim)
}

func TestDecodeRoleUnknownRoleValue(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "SUPERUSER"}).SignedString(secret)
	require.NoError(t, err)

	_, err = token.DecodeRole(tok)
	assert.ErrorIs(t, err, token.ErrNoRoleClaim)
}
