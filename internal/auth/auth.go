// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Annany2002/datalens-backend/internal/logger"
)

const tokenIssuer = "datalens-backend"

var (
	ErrInvalidCredentials      = errors.New("invalid username or password")
	ErrTokenMissing            = errors.New("authorization header required")
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	customLog                  = logger.NewLogger()
)

// Claims carries the authenticated user in a signed token.
type Claims struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// HashPassword generates a bcrypt hash for the given password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		customLog.Warnf("Auth: Error generating bcrypt hash: %v", err)
		return "", fmt.Errorf("failed to hash password")
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		customLog.Warnf("Auth: Unexpected error comparing password hash: %v", err)
	}
	return err == nil
}

// GenerateJWT creates an HS256 token for the user valid for expiration.
func GenerateJWT(userID, username, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Auth: Error signing JWT for user %s: %v", userID, err)
		return "", fmt.Errorf("failed to generate token")
	}
	return signed, nil
}

// ValidateJWT parses tokenString and returns its claims when the signature,
// issuer and validity window all check out.
func ValidateJWT(tokenString, jwtSecret string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		customLog.Warnf("Auth: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return nil, ErrUnexpectedSigningMethod
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, ErrTokenClaimsInvalid
	}
	return claims, nil
}
