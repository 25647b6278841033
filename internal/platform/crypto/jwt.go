package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the tokens the identity provider issues for staff accounts.
type Claims struct {
	Sub  string `json:"sub"`  // subject id
	Role string `json:"role"` // STAFF/ADMIN
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 token with the given subject and role. The API
// itself only verifies tokens; this exists for tests and local tooling.
func GenerateToken(secret, userID, role string, ttl time.Duration) (string, error) {
	c := Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry and returns the claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(*Claims); ok && t.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
