package authutils_test

import (
	"context"
	"testing"
	"time"

	"mythweaver-server/shared/authutils"
	"mythweaver-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

func TestNewJWTVerifier(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		_, err := authutils.NewJWTVerifier("", nil)
		require.Error(t, err)
	})

	t.Run("nil logger is allowed", func(t *testing.T) {
		v, err := authutils.NewJWTVerifier(testSecret, nil)
		require.NoError(t, err)
		require.NotNil(t, v)
	})
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()
	verifier, err := authutils.NewJWTVerifier(testSecret, nil)
	require.NoError(t, err)

	t.Run("valid token round-trips claims", func(t *testing.T) {
		userID := uuid.New()
		tokenString, err := authutils.GenerateTestJWT(userID, "Geralt", testSecret, time.Hour)
		require.NoError(t, err)

		claims, err := verifier.VerifyToken(ctx, tokenString)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "Geralt", claims.DisplayName)
		assert.Contains(t, claims.Roles, models.RoleUser)
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString, err := authutils.GenerateTestJWT(uuid.New(), "Geralt", testSecret, -time.Minute)
		require.NoError(t, err)

		_, err = verifier.VerifyToken(ctx, tokenString)
		require.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tokenString, err := authutils.GenerateTestJWT(uuid.New(), "Geralt", "another-secret", time.Hour)
		require.NoError(t, err)

		_, err = verifier.VerifyToken(ctx, tokenString)
		require.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := verifier.VerifyToken(ctx, "not-a-jwt")
		require.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("token without user id", func(t *testing.T) {
		claims := &models.Claims{
			DisplayName: "Ghost",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = verifier.VerifyToken(ctx, tokenString)
		require.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("none signing method is rejected", func(t *testing.T) {
		claims := &models.Claims{
			UserID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.VerifyToken(ctx, tokenString)
		require.Error(t, err)
	})
}
