package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/models"
	"classnexy/utils"
)

type AdminController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAdminController(db *gorm.DB, logger *log.Logger) *AdminController {
	return &AdminController{
		DB:     db,
		Logger: logger,
	}
}

// GetUsers lists users with optional search and role filters. Route is
// admin-gated.
func (ac *AdminController) GetUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := ac.DB.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if frozen := c.Query("frozen"); frozen == "true" {
		q = q.Where("is_frozen = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count users", nil)
	}

	var users []models.User
	if err := q.Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch users", nil)
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"id":        u.ID,
			"name":      u.Name,
			"email":     u.Email,
			"role":      u.Role,
			"is_frozen": u.IsFrozen,
			"created":   u.CreatedAt,
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  out,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (ac *AdminController) loadTarget(c *fiber.Ctx) (*models.User, error) {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return nil, utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	var target models.User
	if err := ac.DB.First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		}
		return nil, utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user", nil)
	}
	return &target, nil
}

// FreezeUser blocks an account from logging in or using the API. A
// frozen user's data stays intact.
func (ac *AdminController) FreezeUser(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	target, err := ac.loadTarget(c)
	if target == nil {
		return err
	}
	if target.IsPlatformAdmin() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot freeze an admin account", nil)
	}

	if err := ac.DB.Model(target).Update("is_frozen", true).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to freeze user", nil)
	}

	utils.RecordActivity(ac.DB, models.ActionFreezeUser, admin.ID, 0, nil, target.Email)

	return c.JSON(fiber.Map{"message": "User frozen"})
}

func (ac *AdminController) UnfreezeUser(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	target, err := ac.loadTarget(c)
	if target == nil {
		return err
	}

	if err := ac.DB.Model(target).Update("is_frozen", false).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unfreeze user", nil)
	}

	utils.RecordActivity(ac.DB, models.ActionUnfreezeUser, admin.ID, 0, nil, target.Email)

	return c.JSON(fiber.Map{"message": "User unfrozen"})
}

// DeleteUser soft-deletes an account and removes its memberships so the
// user drops out of rosters and feeds immediately. Announcements and
// activity rows keep their author id for the audit trail.
func (ac *AdminController) DeleteUser(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	target, err := ac.loadTarget(c)
	if target == nil {
		return err
	}
	if target.IsPlatformAdmin() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot delete an admin account", nil)
	}

	tx := ac.DB.Begin()
	if err := tx.Unscoped().
		Where("user_id = ?", target.ID).
		Delete(&models.TeamMembership{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete user", nil)
	}
	if err := tx.Delete(target).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete user", nil)
	}
	if err := tx.Commit().Error; err != nil {
		ac.Logger.Printf("Transaction commit failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete user", nil)
	}

	utils.RecordActivity(ac.DB, models.ActionDeleteUser, admin.ID, 0, nil, target.Email)

	return c.JSON(fiber.Map{"message": "User deleted"})
}

// SetRole changes a user's platform role.
func (ac *AdminController) SetRole(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	target, err := ac.loadTarget(c)
	if target == nil {
		return err
	}

	var input struct {
		Role string `json:"role" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if !models.ValidRole(input.Role) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown role", nil)
	}
	if target.ID == admin.ID && input.Role != admin.Role {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Cannot change your own role", nil)
	}

	if err := ac.DB.Model(target).Update("role", input.Role).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update role", nil)
	}

	utils.RecordActivity(ac.DB, models.ActionSetRole, admin.ID, 0, nil, target.Email+" -> "+input.Role)

	return c.JSON(fiber.Map{"message": "Role updated"})
}
