package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository/memory"
	"github.com/nkiryanov/digibank/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:             uuid.New(),
		CreatedAt:      testutil.MustParseTime("2024-01-01 19:00:01Z"),
		Username:       "testuser",
		HashedPassword: "hashed_password",
		Role:           models.RoleUser,
	}

	newManager := func(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration) *TokenManager {
		cfg := Config{
			SecretKey:  "test-secret-key",
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		}

		m, err := New(cfg, memory.NewStorage().Refresh())
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("secret"), m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
		require.Equal(t, defaultIssuer, m.issuer)
	})

	t.Run("new fails", func(t *testing.T) {
		_, err := New(Config{}, nil)
		require.Error(t, err, "empty secret must be rejected")

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"}, nil)
		require.Error(t, err, "only HMAC methods are supported")

		_, err = New(Config{SecretKey: "secret", Alg: "unknown"}, nil)
		require.Error(t, err)
	})

	t.Run("GeneratePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair, err := m.GeneratePair(t.Context(), testUser)

			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
			assert.Len(t, pair.Refresh.Value, 32, "refresh token is 16 hex encoded bytes")
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
		})

		t.Run("access claims", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, testUser.ID, claims.UserID, "user ID in token should match")
			assert.Equal(t, "testuser", claims.Subject)
			assert.Equal(t, "digibank", claims.Issuer)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair1, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)
			pair2, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
			assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
		})
	})

	t.Run("UseRefresh", func(t *testing.T) {
		t.Run("use token once", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			token, err := m.UseRefresh(t.Context(), pair.Refresh.Value)

			require.NoError(t, err, "using refresh token should not return an error")
			require.Equal(t, testUser.ID, token.UserID)
			require.NotNil(t, token.UsedAt)
		})

		t.Run("use token twice", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)
			require.NoError(t, err)

			_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed)
		})

		t.Run("use unknown token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			_, err := m.UseRefresh(t.Context(), "not-issued")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})

		t.Run("use expired token", func(t *testing.T) {
			m := newManager(t, time.Second, time.Second)
			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			time.Sleep(time.Second)

			_, err = m.UseRefresh(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			userID, err := m.ParseAccess(t.Context(), pair.Access.Value)

			require.NoError(t, err, "valid token should be parsed without errors")
			require.Equal(t, testUser.ID, userID)
		})

		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			_, err := m.ParseAccess(t.Context(), "invalid token")
			require.Error(t, err)
		})

		t.Run("expired token", func(t *testing.T) {
			m := newManager(t, time.Second, time.Second)
			pair, err := m.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			time.Sleep(time.Second)

			_, err = m.ParseAccess(t.Context(), pair.Access.Value)
			require.ErrorIs(t, err, jwt.ErrTokenExpired)
		})

		t.Run("signed with other key", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			other, err := New(Config{SecretKey: "other-key"}, memory.NewStorage().Refresh())
			require.NoError(t, err)

			pair, err := other.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), pair.Access.Value)
			require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
		})

		t.Run("foreign issuer", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			foreign, err := New(Config{SecretKey: "test-secret-key", Issuer: "someone-else"}, memory.NewStorage().Refresh())
			require.NoError(t, err)

			pair, err := foreign.GeneratePair(t.Context(), testUser)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), pair.Access.Value)
			require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Issuer:    "digibank",
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					UserID: testUser.ID,
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), access)
			require.Error(t, err, "Valid token with empty alg must fail")
		})
	})
}
