package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	parser := NewParser("secret")

	raw := signToken(t, "secret", Claims{
		UserID: "drv-1",
		Name:   "Mike Ortiz",
		Role:   "driver",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := parser.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "drv-1", claims.UserID)
	require.Equal(t, "driver", claims.Role)
}

func TestParseRejectsBadTokens(t *testing.T) {
	parser := NewParser("secret")

	_, err := parser.Parse("not-a-token")
	require.Error(t, err)

	// Wrong secret.
	raw := signToken(t, "other-secret", Claims{UserID: "drv-1"})
	_, err = parser.Parse(raw)
	require.Error(t, err)

	// Expired.
	raw = signToken(t, "secret", Claims{
		UserID: "drv-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err = parser.Parse(raw)
	require.Error(t, err)

	// Missing user_id.
	raw = signToken(t, "secret", Claims{Name: "nobody"})
	_, err = parser.Parse(raw)
	require.Error(t, err)
}
