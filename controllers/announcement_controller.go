package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/metrics"
	"classnexy/models"
	"classnexy/utils"
)

type AnnouncementController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Feed   *FeedRegistry
}

func NewAnnouncementController(db *gorm.DB, logger *log.Logger, feed *FeedRegistry) *AnnouncementController {
	return &AnnouncementController{
		DB:     db,
		Logger: logger,
		Feed:   feed,
	}
}

// canSendTo reports whether the user may address the team. Platform
// admins may always; everyone else needs a teacher or owner membership.
func canSendTo(db *gorm.DB, user *models.User, teamID uint) (bool, error) {
	if user.IsPlatformAdmin() {
		return true, nil
	}
	m, err := membershipFor(db, user.ID, teamID)
	if err != nil {
		return false, err
	}
	return m != nil && m.CanManageTeam(), nil
}

// Send creates an announcement and fans it out to every target team.
// Authorization is all-or-nothing: a sender lacking rights on any one
// target team gets a full rejection with zero rows written.
func (ac *AnnouncementController) Send(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Content    string     `json:"content" validate:"required"`
		TeamIDs    []uint     `json:"team_ids" validate:"required,min=1"`
		Type       string     `json:"type" validate:"omitempty,oneof=plain mdx"`
		Schedule   *time.Time `json:"schedule"`
		Importance string     `json:"importance" validate:"omitempty,oneof=low normal high urgent"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if input.Type == "" {
		input.Type = models.AnnouncementPlain
	}
	if input.Importance == "" {
		input.Importance = models.ImportanceNormal
	}
	if input.Schedule != nil && !input.Schedule.After(time.Now()) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "schedule must be in the future", nil)
	}

	// Authorization check for every target team before any write.
	for _, teamID := range input.TeamIDs {
		var team models.Team
		if err := ac.DB.First(&team, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorResponse(c, fiber.StatusNotFound, "Team not found", nil)
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up team", nil)
		}
		ok, err := canSendTo(ac.DB, user, teamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", nil)
		}
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "No permission to send to all selected teams", nil)
		}
	}

	announcement := models.Announcement{
		SenderID:   user.ID,
		Content:    input.Content,
		Type:       input.Type,
		Importance: input.Importance,
		Schedule:   input.Schedule,
	}
	if input.Schedule == nil {
		announcement.PublishedAt = utils.Pointer(time.Now())
	}

	tx := ac.DB.Begin()
	if err := tx.Create(&announcement).Error; err != nil {
		tx.Rollback()
		ac.Logger.Printf("Failed to create announcement: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create announcement", nil)
	}
	for _, teamID := range input.TeamIDs {
		if err := tx.Create(&models.AnnouncementRecipient{
			AnnouncementID: announcement.ID,
			TeamID:         teamID,
		}).Error; err != nil {
			tx.Rollback()
			ac.Logger.Printf("Failed to create recipient row: %v", err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create announcement", nil)
		}
	}
	if err := tx.Commit().Error; err != nil {
		ac.Logger.Printf("Transaction commit failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create announcement", nil)
	}

	// Activity entries are per target team and best effort.
	for _, teamID := range input.TeamIDs {
		utils.RecordActivity(ac.DB, models.ActionSendAnnouncement, user.ID, teamID, &announcement.ID, input.Importance)
	}

	metrics.AnnouncementsSent.Inc()
	if announcement.Published() && ac.Feed != nil {
		ac.Feed.Broadcast(FeedEvent{
			AnnouncementID: announcement.ID,
			Importance:     announcement.Importance,
			TeamIDs:        input.TeamIDs,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"id": announcement.ID,
	}))
}

// publishedScope filters out scheduled announcements that the worker
// has not released yet.
func publishedScope(db *gorm.DB) *gorm.DB {
	return db.Where("schedule IS NULL OR published_at IS NOT NULL")
}

// GetTeamAnnouncements lists announcements addressed to one team,
// newest first. Any member of the team (or an admin) may read them.
func (ac *AnnouncementController) GetTeamAnnouncements(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID := utils.ParseUint(c.Params("id"))
	if teamID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "team id is required", nil)
	}

	if !user.IsPlatformAdmin() {
		m, err := membershipFor(ac.DB, user.ID, teamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		}
		if m == nil {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a member of this team", nil)
		}
	}

	var announcements []models.Announcement
	sub := ac.DB.Model(&models.AnnouncementRecipient{}).
		Select("announcement_id").
		Where("team_id = ?", teamID)
	err := publishedScope(ac.DB.Preload("Sender").Preload("Recipients")).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&announcements).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch announcements", nil)
	}

	return c.JSON(utils.SuccessResponse(announcements))
}

// GetUserAnnouncements lists announcements across every team the caller
// belongs to (all teams for admins). A user in several recipient teams
// of the same announcement sees it once.
func (ac *AnnouncementController) GetUserAnnouncements(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	q := publishedScope(ac.DB.Preload("Sender").Preload("Recipients"))
	if !user.IsPlatformAdmin() {
		teamSub := ac.DB.Model(&models.TeamMembership{}).
			Select("team_id").
			Where("user_id = ?", user.ID)
		recipientSub := ac.DB.Model(&models.AnnouncementRecipient{}).
			Select("announcement_id").
			Where("team_id IN (?)", teamSub)
		q = q.Where("id IN (?)", recipientSub)
	}

	var announcements []models.Announcement
	if err := q.Order("created_at DESC").Find(&announcements).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch announcements", nil)
	}

	return c.JSON(utils.SuccessResponse(announcements))
}
