package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func newProtectedApp(t *testing.T) (*fiber.App, *models.UserIdentity) {
	t.Setenv("JWT_SECRET", testSecret)

	var captured models.UserIdentity
	app := fiber.New()
	app.Use(AuthMiddleware())
	app.Get("/me", func(c *fiber.Ctx) error {
		captured = c.Locals(IdentityKey).(models.UserIdentity)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &captured
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	app, captured := newProtectedApp(t)

	token := signToken(t, jwt.MapClaims{
		"sub":        "clerk_abc",
		"email":      "jane@example.com",
		"first_name": "Jane",
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "clerk_abc", captured.ProviderID)
	assert.Equal(t, "jane@example.com", captured.Email)
	assert.Equal(t, "Jane", captured.FirstName)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	app, _ := newProtectedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_BadScheme(t *testing.T) {
	app, _ := newProtectedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	app, _ := newProtectedApp(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "clerk_abc"}).
		SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_MissingSubject(t *testing.T) {
	app, _ := newProtectedApp(t)

	token := signToken(t, jwt.MapClaims{"email": "jane@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
