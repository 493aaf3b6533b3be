package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"classnexy/config"
	"classnexy/middleware"
	"classnexy/models"
	"classnexy/testutil"
	"classnexy/utils"
)

func newProtectedApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig.JWTSecret = "test-secret"
	config.DB = testutil.OpenTestDB(t)

	app := fiber.New()
	app.Get("/me", middleware.Protected(), func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)
		return c.JSON(fiber.Map{"id": user.ID})
	})
	app.Get("/admin", middleware.Protected(), middleware.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func seedWithToken(t *testing.T, role string, frozen bool) (*models.User, string) {
	t.Helper()

	u := models.User{Email: role + "@example.com", Name: role, Role: role, PasswordHash: "x", IsFrozen: frozen}
	if err := config.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	access, _, err := utils.GenerateJWTToken(&u)
	if err != nil {
		t.Fatal(err)
	}
	return &u, access
}

func TestProtected_BearerToken(t *testing.T) {
	app := newProtectedApp(t)
	_, token := seedWithToken(t, models.RoleStudent, false)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProtected_CookieFallback(t *testing.T) {
	app := newProtectedApp(t)
	_, token := seedWithToken(t, models.RoleStudent, false)

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProtected_MissingToken(t *testing.T) {
	app := newProtectedApp(t)

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtected_FrozenAccount(t *testing.T) {
	app := newProtectedApp(t)
	_, token := seedWithToken(t, models.RoleTeacher, true)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminOnly(t *testing.T) {
	app := newProtectedApp(t)
	_, studentToken := seedWithToken(t, models.RoleStudent, false)
	_, adminToken := seedWithToken(t, models.RoleAdmin, false)
	_, devToken := seedWithToken(t, models.RoleDev, false)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"student", studentToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
		{"dev", devToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}
