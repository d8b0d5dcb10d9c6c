package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasks-api/internal/config"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 0})
	assert.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := newJWTService(testSecret, time.Hour, fixedClock(issued))
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), "person-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "person-1", claims.PersonID)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), "")
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	mint := func(t *testing.T, secret string, at time.Time) string {
		t.Helper()
		svc, err := newJWTService(secret, time.Hour, fixedClock(at))
		require.NoError(t, err)
		token, err := svc.GenerateToken(context.Background(), "person-1")
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		now     time.Time
		wantErr error
	}{
		{
			name:  "valid",
			token: func(t *testing.T) string { return mint(t, testSecret, issued) },
			now:   issued.Add(30 * time.Minute),
		},
		{
			name:  "within clock skew after expiry",
			token: func(t *testing.T) string { return mint(t, testSecret, issued) },
			now:   issued.Add(time.Hour + time.Minute),
		},
		{
			name:    "expired",
			token:   func(t *testing.T) string { return mint(t, testSecret, issued) },
			now:     issued.Add(2 * time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return mint(t, wrongSecret, issued) },
			now:     issued,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   func(*testing.T) string { return "not.a.jwt" },
			now:     issued,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty",
			token:   func(*testing.T) string { return "" },
			now:     issued,
			wantErr: ErrMissingToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
					Subject:   "person-1",
					ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
				})
				s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return s
			},
			now:     issued,
			wantErr: ErrInvalidToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					Subject:   "person-1",
					NotBefore: jwt.NewNumericDate(issued.Add(time.Hour)),
					ExpiresAt: jwt.NewNumericDate(issued.Add(2 * time.Hour)),
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			now:     issued,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
				})
				s, err := tok.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			now:     issued,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, err := newJWTService(testSecret, time.Hour, fixedClock(tc.now))
			require.NoError(t, err)

			claims, err := svc.ValidateToken(context.Background(), tc.token(t))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "person-1", claims.PersonID)
		})
	}
}
