package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/models"
	"classnexy/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type DashboardStats struct {
	Users         int64 `json:"users"`
	Teams         int64 `json:"teams"`
	Announcements int64 `json:"announcements"`
	Redemptions   int64 `json:"redemptions"`
}

type ActivityBucket struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetDashboardStats returns the headline counters. Admins see platform
// totals; everyone else sees counts scoped to their own teams.
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var stats DashboardStats
	if user.IsPlatformAdmin() {
		if err := dc.DB.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get stats", err)
		}
		dc.DB.Model(&models.Team{}).Count(&stats.Teams)
		dc.DB.Model(&models.Announcement{}).Count(&stats.Announcements)
		dc.DB.Model(&models.InvitationCodeUse{}).Count(&stats.Redemptions)
		return c.JSON(utils.SuccessResponse(stats))
	}

	teamSub := dc.DB.Model(&models.TeamMembership{}).
		Select("team_id").
		Where("user_id = ?", user.ID)
	if err := dc.DB.Model(&models.TeamMembership{}).
		Where("team_id IN (?)", teamSub).
		Distinct("user_id").
		Count(&stats.Users).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get stats", err)
	}
	dc.DB.Model(&models.TeamMembership{}).Where("user_id = ?", user.ID).Count(&stats.Teams)
	dc.DB.Model(&models.AnnouncementRecipient{}).
		Where("team_id IN (?)", teamSub).
		Distinct("announcement_id").
		Count(&stats.Announcements)
	dc.DB.Model(&models.InvitationCodeUse{}).
		Where("code_id IN (?)", dc.DB.Model(&models.InvitationCode{}).Select("id").Where("team_id IN (?)", teamSub)).
		Count(&stats.Redemptions)

	return c.JSON(utils.SuccessResponse(stats))
}

// GetActivityOverTime buckets activity-log entries by day within the
// requested window.
func (dc *DashboardController) GetActivityOverTime(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	timeFrame := c.Query("time_frame", "week") // hour, day, week, month

	// Calculate time range based on timeframe
	now := time.Now()
	var startTime time.Time
	switch timeFrame {
	case "hour":
		startTime = now.Add(-1 * time.Hour)
	case "day":
		startTime = now.Add(-24 * time.Hour)
	case "week":
		startTime = now.Add(-7 * 24 * time.Hour)
	case "month":
		startTime = now.Add(-30 * 24 * time.Hour)
	default:
		startTime = now.Add(-7 * 24 * time.Hour)
	}

	q := dc.DB.Model(&models.ActivityLog{}).
		Where("created_at BETWEEN ? AND ?", startTime, now)
	if !user.IsPlatformAdmin() {
		teamSub := dc.DB.Model(&models.TeamMembership{}).
			Select("team_id").
			Where("user_id = ?", user.ID)
		q = q.Where("team_id IN (?)", teamSub)
	}

	var buckets []ActivityBucket
	err := q.Select("date(created_at) AS date, count(*) AS count").
		Group("date(created_at)").
		Order("date").
		Scan(&buckets).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get activity", err)
	}

	return c.JSON(utils.SuccessResponse(buckets))
}
