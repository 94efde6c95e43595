package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

var engineer = domain.Actor{ID: "eng-1", Name: "Jane", Role: domain.ActorRoleEngineer}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "service-desk", time.Hour)
	token, expiresAt, err := tm.GenerateToken("org-1", engineer)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Equal(t, engineer, claims.Actor())
}

func TestParseTokenRejects(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "service-desk", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", "service-desk", time.Hour)
		token, _, err := other.GenerateToken("org-1", engineer)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("secret", "service-desk", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken("org-1", engineer)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenManager("secret", "someone-else", time.Hour)
		token, _, err := other.GenerateToken("org-1", engineer)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			OrganizationID:   "org-1",
			Role:             domain.ActorRoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "service-desk", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	_, _, err := tm.GenerateToken("", engineer)
	assert.Error(t, err)
	_, _, err = tm.GenerateToken("org-1", domain.Actor{ID: "x", Role: "OWNER"})
	assert.Error(t, err)
}

func newTestApp(tm *TokenManager, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	app.Get("/whoami", NewAuthMiddleware(tm).Handle, guard, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(principal.OrganizationID + "/" + principal.Actor.ID + "/" + c.Locals(OrganizationKey).(string))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "service-desk", time.Hour)
	engineerToken, _, err := tm.GenerateToken("org-1", engineer)
	require.NoError(t, err)
	customerToken, _, err := tm.GenerateToken("org-1", domain.Actor{ID: "cust-1", Role: domain.ActorRoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"customer blocked", "Bearer " + customerToken, http.StatusForbidden, "FORBIDDEN"},
		{"engineer allowed", "Bearer " + engineerToken, http.StatusOK, "org-1/eng-1/org-1"},
	}
	app := newTestApp(tm, RequireStaff())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}
