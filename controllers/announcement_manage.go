package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/models"
	"classnexy/utils"
)

// canManageAnnouncement allows the original sender and platform admins.
func canManageAnnouncement(user *models.User, a *models.Announcement) bool {
	return user.IsPlatformAdmin() || a.SenderID == user.ID
}

// replaceRecipients swaps the full recipient set of an announcement
// inside tx. The old set is deleted wholesale, never diffed.
func replaceRecipients(tx *gorm.DB, announcementID uint, teamIDs []uint) error {
	if err := tx.Unscoped().
		Where("announcement_id = ?", announcementID).
		Delete(&models.AnnouncementRecipient{}).Error; err != nil {
		return err
	}
	for _, teamID := range teamIDs {
		if err := tx.Create(&models.AnnouncementRecipient{
			AnnouncementID: announcementID,
			TeamID:         teamID,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Update edits content and type in place. The recipient set is replaced
// by the single given team: updating a multi-team announcement through
// this endpoint drops the other teams. Callers that want to keep a
// multi-team target must use Reassign with the full set.
func (ac *AnnouncementController) Update(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	var input struct {
		Content string `json:"content" validate:"required"`
		Type    string `json:"type" validate:"omitempty,oneof=plain mdx"`
		TeamID  uint   `json:"team_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var announcement models.Announcement
	if err := ac.DB.First(&announcement, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Announcement not found", nil)
	}
	if !canManageAnnouncement(user, &announcement) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Not allowed to edit this announcement", nil)
	}

	var team models.Team
	if err := ac.DB.First(&team, input.TeamID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team not found", nil)
	}

	tx := ac.DB.Begin()
	updates := map[string]interface{}{"content": input.Content}
	if input.Type != "" {
		updates["type"] = input.Type
	}
	if err := tx.Model(&announcement).Updates(updates).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update announcement", nil)
	}
	if err := replaceRecipients(tx, announcement.ID, []uint{input.TeamID}); err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update recipients", nil)
	}
	if err := tx.Commit().Error; err != nil {
		ac.Logger.Printf("Transaction commit failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update announcement", nil)
	}

	utils.RecordActivity(ac.DB, models.ActionUpdateAnnouncement, user.ID, input.TeamID, &announcement.ID, "")

	return c.JSON(fiber.Map{"message": "Announcement updated"})
}

// Reassign replaces the recipient set with the given teams.
func (ac *AnnouncementController) Reassign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	var input struct {
		TeamIDs []uint `json:"team_ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := ac.reassignOne(user, id, input.TeamIDs); err != nil {
		return respondManageError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Announcement reassigned"})
}

// BulkReassign applies full-replacement reassignment independently to
// each announcement id.
func (ac *AnnouncementController) BulkReassign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		IDs     []uint `json:"ids" validate:"required,min=1"`
		TeamIDs []uint `json:"team_ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	for _, id := range input.IDs {
		if err := ac.reassignOne(user, id, input.TeamIDs); err != nil {
			return respondManageError(c, err)
		}
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("%d announcements reassigned", len(input.IDs))})
}

// Delete removes one announcement and its recipient rows.
func (ac *AnnouncementController) Delete(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	if err := ac.deleteOne(user, id); err != nil {
		return respondManageError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Announcement deleted"})
}

// BulkDelete removes the given announcements and their recipient rows.
func (ac *AnnouncementController) BulkDelete(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		IDs []uint `json:"ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	for _, id := range input.IDs {
		if err := ac.deleteOne(user, id); err != nil {
			return respondManageError(c, err)
		}
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("%d announcements deleted", len(input.IDs))})
}

var (
	errManageNotFound  = errors.New("announcement not found")
	errManageForbidden = errors.New("not allowed to manage this announcement")
)

func (ac *AnnouncementController) reassignOne(user *models.User, id uint, teamIDs []uint) error {
	var announcement models.Announcement
	if err := ac.DB.First(&announcement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errManageNotFound
		}
		return err
	}
	if !canManageAnnouncement(user, &announcement) {
		return errManageForbidden
	}

	tx := ac.DB.Begin()
	if err := replaceRecipients(tx, announcement.ID, teamIDs); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	utils.RecordActivity(ac.DB, models.ActionUpdateAnnouncement, user.ID, 0, &announcement.ID, "reassigned")
	return nil
}

func (ac *AnnouncementController) deleteOne(user *models.User, id uint) error {
	var announcement models.Announcement
	if err := ac.DB.First(&announcement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errManageNotFound
		}
		return err
	}
	if !canManageAnnouncement(user, &announcement) {
		return errManageForbidden
	}

	// Hard delete: recipient readAt history goes with it.
	tx := ac.DB.Begin()
	if err := tx.Unscoped().
		Where("announcement_id = ?", announcement.ID).
		Delete(&models.AnnouncementRecipient{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Unscoped().Delete(&announcement).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	utils.RecordActivity(ac.DB, models.ActionDeleteAnnouncement, user.ID, 0, &id, "")
	return nil
}

func respondManageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errManageNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Announcement not found", nil)
	case errors.Is(err, errManageForbidden):
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Not allowed to manage this announcement", nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Operation failed", nil)
	}
}
