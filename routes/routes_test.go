package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"classnexy/config"
	"classnexy/models"
	"classnexy/routes"
	"classnexy/testutil"
	"classnexy/utils"
)

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig.JWTSecret = "test-secret"
	config.DB = testutil.OpenTestDB(t)

	app := fiber.New()
	routes.SetupAuthRoutes(app, config.DB)
	return app
}

// Every Locals-consuming endpoint must answer an anonymous request with
// 401, never fall over on a missing session.
func TestOTPRoutes_RequireAuth(t *testing.T) {
	app := newAuthApp(t)

	for _, path := range []string{"/otp/send", "/otp/verify"} {
		req := httptest.NewRequest("POST", path, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("POST %s: status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestAuthRoutes_ProtectedGroup(t *testing.T) {
	app := newAuthApp(t)

	u := models.User{Email: "s@example.com", Name: "s", Role: models.RoleStudent, PasswordHash: "x"}
	if err := config.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	token, _, err := utils.GenerateJWTToken(&u)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/auth/me", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous /auth/me: status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated /auth/me: status = %d, want 200", resp.StatusCode)
	}
}
