package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/models"
	"classnexy/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
	}
}

// CreateTeam makes a new team with the caller as its teacher.
func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if !user.IsPlatformAdmin() && user.Role != models.RoleTeacher {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Not allowed to create teams", nil)
	}

	var input struct {
		Name  string `json:"name" validate:"required,max=100"`
		Type  string `json:"type" validate:"omitempty,max=50"`
		Order int    `json:"order"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	team := models.Team{
		Name:  input.Name,
		Order: input.Order,
	}
	if input.Type != "" {
		team.Type = input.Type
	}

	tx := tc.DB.Begin()
	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusConflict, "Team name already exists", nil)
	}
	if err := tx.Create(&models.TeamMembership{
		UserID: user.ID,
		TeamID: team.ID,
		Role:   models.MembershipTeacher,
	}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create team", nil)
	}
	if err := tx.Commit().Error; err != nil {
		tc.Logger.Printf("Transaction commit failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create team", nil)
	}

	utils.RecordActivity(tc.DB, models.ActionCreateTeam, user.ID, team.ID, nil, team.Name)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

// GetTeams lists teams ordered by sort order then name. Admins see all
// teams; everyone else sees the teams they belong to.
func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	q := tc.DB.Model(&models.Team{})
	if !user.IsPlatformAdmin() {
		sub := tc.DB.Model(&models.TeamMembership{}).
			Select("team_id").
			Where("user_id = ?", user.ID)
		q = q.Where("id IN (?)", sub)
	}

	var teams []models.Team
	if err := q.Order("sort_order, name").Find(&teams).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch teams", nil)
	}

	return c.JSON(utils.SuccessResponse(teams))
}

// GetTeamMembers lists the roster of one team.
func (tc *TeamController) GetTeamMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID := utils.ParseUint(c.Params("id"))
	if teamID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	if !user.IsPlatformAdmin() {
		m, err := membershipFor(tc.DB, user.ID, teamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		}
		if m == nil {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a member of this team", nil)
		}
	}

	var memberships []models.TeamMembership
	if err := tc.DB.Preload("User").
		Where("team_id = ?", teamID).
		Find(&memberships).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch members", nil)
	}

	out := make([]fiber.Map, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, fiber.Map{
			"user_id": m.UserID,
			"name":    m.User.Name,
			"email":   m.User.Email,
			"role":    m.Role,
		})
	}

	return c.JSON(utils.SuccessResponse(out))
}

// RemoveMember deletes a membership row. Membership rows are never
// updated in place, only inserted and removed.
func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		TeamID uint `json:"team_id" validate:"required"`
		UserID uint `json:"user_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if !user.IsPlatformAdmin() {
		m, err := membershipFor(tc.DB, user.ID, input.TeamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		}
		if m == nil || !m.CanManageTeam() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a teacher of this team", nil)
		}
	}

	var membership models.TeamMembership
	err := tc.DB.Where("user_id = ? AND team_id = ?", input.UserID, input.TeamID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Membership not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up membership", nil)
	}

	if err := tc.DB.Unscoped().Delete(&membership).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove member", nil)
	}

	utils.RecordActivity(tc.DB, models.ActionRemoveMember, user.ID, input.TeamID, nil, "")

	return c.JSON(fiber.Map{"message": "Member removed"})
}

// ReorderTeams updates display order for the given teams. Admin only
// (route-gated).
func (tc *TeamController) ReorderTeams(c *fiber.Ctx) error {
	var input struct {
		Orders []struct {
			TeamID uint `json:"team_id" validate:"required"`
			Order  int  `json:"order"`
		} `json:"orders" validate:"required,min=1,dive"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	tx := tc.DB.Begin()
	for _, o := range input.Orders {
		if err := tx.Model(&models.Team{}).
			Where("id = ?", o.TeamID).
			Update("sort_order", o.Order).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reorder teams", nil)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reorder teams", nil)
	}

	return c.JSON(fiber.Map{"message": "Teams reordered"})
}
