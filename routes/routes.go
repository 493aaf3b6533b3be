package routes

import (
	"log"
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "classnexy/controllers"
	"classnexy/metrics"
	"classnexy/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// OTP routes group; handlers read the user from Locals, so the
	// group requires a valid session
	otp := app.Group("/otp", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	otp.Post("/send", controller.SendOTP)
	otp.Post("/verify", controller.VerifyOTP)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, feed *controller.FeedRegistry) {
	invitationController := controller.NewInvitationController(db, log.New(os.Stdout, "INVITE: ", log.LstdFlags))
	announcementController := controller.NewAnnouncementController(db, log.New(os.Stdout, "ANNOUNCE: ", log.LstdFlags), feed)
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	activityController := controller.NewActivityController(db, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))
	teamController := controller.NewTeamController(db, log.New(os.Stdout, "TEAM: ", log.LstdFlags))
	adminController := controller.NewAdminController(db, log.New(os.Stdout, "ADMIN: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Invitation code routes; join and validate share a rate limiter
	codes := api.Group("/invitation-codes")
	codes.Post("/", invitationController.GenerateCode)
	codes.Get("/", invitationController.ListActive)
	codes.Get("/:code/validate", middleware.JoinRateLimiter(), invitationController.ValidateCode)
	codes.Post("/join", middleware.JoinRateLimiter(), invitationController.JoinTeam)
	codes.Delete("/:id", invitationController.RevokeCode)

	// Announcement routes
	announcement := api.Group("/announcements")
	announcement.Post("/", announcementController.Send)
	announcement.Post("/preview", controller.PreviewAnnouncement)
	announcement.Get("/feed", announcementController.GetUserAnnouncements)
	announcement.Get("/team/:id", announcementController.GetTeamAnnouncements)
	announcement.Put("/recipients", announcementController.BulkReassign)
	announcement.Put("/:id/recipients", announcementController.Reassign)
	announcement.Put("/:id", announcementController.Update)
	announcement.Delete("/:id", announcementController.Delete)
	announcement.Post("/bulk-delete", announcementController.BulkDelete)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/activity", dashboardController.GetActivityOverTime)

	// Activity audit routes (admin only)
	activity := api.Group("/activity", middleware.AdminOnly())
	activity.Get("/", activityController.GetActivity)
	activity.Get("/export", activityController.ExportActivity)

	// Team routes
	team := api.Group("/teams")
	team.Post("/", teamController.CreateTeam)
	team.Get("/", teamController.GetTeams)
	team.Get("/:id/members", teamController.GetTeamMembers)
	team.Post("/remove-member", teamController.RemoveMember)
	team.Put("/reorder", middleware.AdminOnly(), teamController.ReorderTeams)

	// Admin user management routes
	admin := api.Group("/admin", middleware.AdminOnly())
	admin.Get("/users", adminController.GetUsers)
	admin.Post("/users/:id/freeze", adminController.FreezeUser)
	admin.Post("/users/:id/unfreeze", adminController.UnfreezeUser)
	admin.Delete("/users/:id", adminController.DeleteUser)
	admin.Put("/users/:id/role", adminController.SetRole)

	// WebSocket route for the live announcement feed
	app.Get("/ws/announcements", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		feed.HandleAnnouncementFeedWS(c)
	}))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, feed *controller.FeedRegistry) {
	// Initialize Google OAuth
	controller.InitOAuth()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db, feed)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
