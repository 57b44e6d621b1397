package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"portal-chat/database"
	"portal-chat/logger"
	"portal-chat/model"
	"portal-chat/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("middleware-secret")

type roles map[string]string

func (r roles) Role(ctx context.Context, userID string) (string, error) {
	role, ok := r[userID]
	if !ok {
		return "", errors.New("no such profile")
	}
	return role, nil
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	logger.Nop()

	enforcer, err := database.NewEnforcer(nil)
	require.NoError(t, err)

	app := fiber.New()
	v1 := app.Group("/v1", JWT(key), RBAC(enforcer, roles{
		"stu": model.RoleStudent,
		"adm": model.RoleAdmin,
	}))
	v1.Get("/chat/whoami", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + ":" + Role(c))
	})
	v1.Get("/admin/stats", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, userID string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if userID != "" {
		token, err := utils.GenerateToken(userID, "", time.Hour, key)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTMissingToken(t *testing.T) {
	status, body := call(t, newApp(t), "/v1/chat/whoami", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.Equal(t, "error", envelope["status"])
	assert.Equal(t, "Missing or malformed JWT", envelope["message"])
}

func TestJWTInvalidToken(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/v1/chat/whoami", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err := newApp(t).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRBACAllowsStudentChat(t *testing.T) {
	status, body := call(t, newApp(t), "/v1/chat/whoami", "stu")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "stu:student", body)
}

func TestRBACForbidsStudentAdmin(t *testing.T) {
	status, _ := call(t, newApp(t), "/v1/admin/stats", "stu")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, newApp(t), "/v1/admin/stats", "adm")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRBACUnknownProfile(t *testing.T) {
	status, _ := call(t, newApp(t), "/v1/chat/whoami", "ghost")
	assert.Equal(t, fiber.StatusForbidden, status)
}
