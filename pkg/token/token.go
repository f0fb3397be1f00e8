// Package token handles the bearer credential's JWT claims: the console
// side decodes the role claim for routing, the sandbox side issues and
// verifies full tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatewaylabs/payconsole/internal/models"
)

// Claims is the token payload shared by the issuer and the console.
type Claims struct {
	Role       models.Role `json:"role"`
	MerchantID int         `json:"merchantId,omitempty"`
	jwt.RegisteredClaims
}

var ErrNoRoleClaim = errors.New("token carries no valid role claim")

// DecodeRole extracts the role claim WITHOUT verifying the signature. The
// console only uses the claim for screen routing; it is not a security
// boundary. The backend verifies the token and enforces authorization on
// every request independently.
func DecodeRole(tokenStr string) (models.Role, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return "", err
	}
	switch claims.Role {
	case models.RoleAdmin, models.RoleMerchant:
		return claims.Role, nil
	}
	return "", ErrNoRoleClaim
}

// Generate issues an HS256-signed token for the given subject and role.
// MerchantID is zero for admin tokens.
func Generate(secret []byte, subject string, role models.Role, merchantID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:       role,
		MerchantID: merchantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses the token and validates its signature and expiry.
func Verify(secret []byte, tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return &claims, nil
}
