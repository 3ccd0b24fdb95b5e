package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/utils"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{JWTSecret: testSecret}
}

func protectedApp(t *testing.T) (*fiber.App, *uuid.UUID) {
	t.Helper()
	var seen uuid.UUID
	app := fiber.New()
	app.Get("/me", Protect(testConfig()), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		if !ok {
			t.Error("user id missing from context after Protect")
		}
		seen = id
		return c.SendStatus(http.StatusOK)
	})
	return app, &seen
}

func request(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestProtectAcceptsValidToken(t *testing.T) {
	app, seen := protectedApp(t)

	userID := uuid.New()
	token, err := utils.GenerateToken(testSecret, userID, models.RoleMember, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	resp := request(t, app, "/me", "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if *seen != userID {
		t.Errorf("context user = %s, want %s", *seen, userID)
	}
}

func TestProtectRejectsBadHeaders(t *testing.T) {
	app, _ := protectedApp(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "no token", header: "Bearer"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := request(t, app, "/me", tt.header)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", Protect(testConfig()), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	memberToken, err := utils.GenerateToken(testSecret, uuid.New(), models.RoleMember, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	adminToken, err := utils.GenerateToken(testSecret, uuid.New(), models.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if resp := request(t, app, "/admin", "Bearer "+memberToken); resp.StatusCode != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", resp.StatusCode)
	}
	if resp := request(t, app, "/admin", "Bearer "+adminToken); resp.StatusCode != http.StatusOK {
		t.Errorf("admin status = %d, want 200", resp.StatusCode)
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/maybe", OptionalAuth(testConfig()), func(c *fiber.Ctx) error {
		if _, ok := GetCurrentUserID(c); ok {
			return c.SendString("known")
		}
		return c.SendString("anonymous")
	})

	if resp := request(t, app, "/maybe", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("anonymous status = %d, want 200", resp.StatusCode)
	}
	if resp := request(t, app, "/maybe", "Bearer garbage"); resp.StatusCode != http.StatusOK {
		t.Errorf("bad-token status = %d, OptionalAuth must never reject", resp.StatusCode)
	}

	token, err := utils.GenerateToken(testSecret, uuid.New(), models.RoleMember, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if resp := request(t, app, "/maybe", "Bearer "+token); resp.StatusCode != http.StatusOK {
		t.Errorf("valid-token status = %d, want 200", resp.StatusCode)
	}
}
