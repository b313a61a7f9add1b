package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature verification,
// carry no user id, or have expired. Callers must not distinguish between
// those cases.
var ErrInvalidToken = errors.New("invalid or expired token")

// resetClaims ties a reset token to a user id
type resetClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// ResetTokenIssuer mints and verifies stateless, time-limited password-reset
// tokens. Tokens are signed but not persisted: a token stays valid for any
// holder until it expires, and is not invalidated by use.
type ResetTokenIssuer struct {
	secret []byte
	maxAge time.Duration
}

// NewResetTokenIssuer creates an issuer with the given signing secret and
// token lifetime
func NewResetTokenIssuer(secret []byte, maxAge time.Duration) *ResetTokenIssuer {
	return &ResetTokenIssuer{secret: secret, maxAge: maxAge}
}

// Issue mints a signed reset token for the given user
func (i *ResetTokenIssuer) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
		UserID: userID,
	})
	return token.SignedString(i.secret)
}

// Verify checks the token's signature and expiry and returns the user id it
// was minted for. Any failure yields ErrInvalidToken.
func (i *ResetTokenIssuer) Verify(tokenString string) (int64, error) {
	claims := &resetClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
