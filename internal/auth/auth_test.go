// internal/auth/auth_test.go
package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("battery staple", hash))
	assert.False(t, CheckPasswordHash("correct horse", "not-a-hash"))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "ada", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestValidateJWTFailures(t *testing.T) {
	valid, err := GenerateJWT("user-1", "ada", "secret", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateJWT("user-1", "ada", "secret", -time.Minute)
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{"wrong secret", valid, "other", ErrTokenInvalid},
		{"expired", expired, "secret", ErrTokenExpired},
		{"garbage", "not.a.token", "secret", ErrTokenMalformed},
		{"none algorithm", noneSigned, "secret", ErrUnexpectedSigningMethod},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := ValidateJWT(tc.token, tc.secret)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
