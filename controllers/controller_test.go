package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "classnexy/controllers"
	"classnexy/models"
)

// newTestApp wires the handlers under test behind a middleware that
// plants the given user, standing in for the JWT middleware.
func newTestApp(db *gorm.DB, user *models.User) (*fiber.App, *controller.FeedRegistry) {
	logger := log.New(io.Discard, "", 0)
	feed := controller.NewFeedRegistry(logger)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		c.Locals("userID", user.ID)
		return c.Next()
	})

	ac := controller.NewAnnouncementController(db, logger, feed)
	ic := controller.NewInvitationController(db, logger)
	tc := controller.NewTeamController(db, logger)

	app.Post("/announcements", ac.Send)
	app.Get("/announcements/feed", ac.GetUserAnnouncements)
	app.Get("/announcements/team/:id", ac.GetTeamAnnouncements)
	app.Put("/announcements/recipients", ac.BulkReassign)
	app.Put("/announcements/:id/recipients", ac.Reassign)
	app.Put("/announcements/:id", ac.Update)
	app.Delete("/announcements/:id", ac.Delete)
	app.Post("/announcements/bulk-delete", ac.BulkDelete)

	app.Post("/invitation-codes", ic.GenerateCode)
	app.Get("/invitation-codes", ic.ListActive)
	app.Get("/invitation-codes/:code/validate", ic.ValidateCode)
	app.Post("/invitation-codes/join", ic.JoinTeam)
	app.Delete("/invitation-codes/:id", ic.RevokeCode)

	app.Post("/teams", tc.CreateTeam)
	app.Get("/teams", tc.GetTeams)
	app.Get("/teams/:id/members", tc.GetTeamMembers)
	app.Post("/teams/remove-member", tc.RemoveMember)

	dc := controller.NewDashboardController(db, logger)
	app.Get("/dashboard/stats", dc.GetDashboardStats)
	app.Get("/dashboard/activity", dc.GetActivityOverTime)

	xc := controller.NewActivityController(db, logger)
	app.Get("/activity", xc.GetActivity)
	app.Get("/activity/export", xc.ExportActivity)

	return app, feed
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: role, PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return &u
}

func seedTeam(t *testing.T, db *gorm.DB, name string) *models.Team {
	t.Helper()
	team := models.Team{Name: name}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("seed team %s: %v", name, err)
	}
	return &team
}

func seedMembership(t *testing.T, db *gorm.DB, userID, teamID uint, role string) {
	t.Helper()
	m := models.TeamMembership{UserID: userID, TeamID: teamID, Role: role}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}
