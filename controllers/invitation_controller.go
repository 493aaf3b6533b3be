package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"classnexy/metrics"
	"classnexy/models"
	"classnexy/utils"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInvitationController(db *gorm.DB, logger *log.Logger) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
	}
}

// membershipFor returns the caller's membership row in the team, or nil.
func membershipFor(db *gorm.DB, userID, teamID uint) (*models.TeamMembership, error) {
	var m models.TeamMembership
	err := db.Where("user_id = ? AND team_id = ?", userID, teamID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// requireTeamManager reports whether the caller must be rejected: true
// when the user is neither a platform admin nor a managing member.
func (ic *InvitationController) requireTeamManager(user *models.User, teamID uint) (bool, error) {
	if user.IsPlatformAdmin() {
		return false, nil
	}
	m, err := membershipFor(ic.DB, user.ID, teamID)
	if err != nil {
		return false, err
	}
	return m == nil || !m.CanManageTeam(), nil
}

// GenerateCode creates an invitation code for a team, creating the team
// itself when the name is new (the requester becomes its teacher).
func (ic *InvitationController) GenerateCode(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		TeamName       string `json:"team_name" validate:"required,max=100"`
		MaxUses        *int   `json:"max_uses" validate:"omitempty,gt=0"`
		ExpiresInHours *int   `json:"expires_in_hours" validate:"omitempty,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	teamName := strings.TrimSpace(input.TeamName)
	if teamName == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "team_name is required", nil)
	}

	// Team resolution, implicit creation and code insertion share one
	// transaction, so a failed code insert never strands an empty team.
	tx := ic.DB.Begin()
	if tx.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up team", nil)
	}

	var team models.Team
	createdTeam := false
	err := tx.Where("name = ?", teamName).First(&team).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Implicit team creation. Only staff can open a new team.
		if !user.IsPlatformAdmin() && user.Role != models.RoleTeacher {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not allowed to create teams", nil)
		}
		team = models.Team{Name: teamName}
		if err := tx.Create(&team).Error; err != nil {
			tx.Rollback()
			if !utils.IsDuplicateKey(err) {
				ic.Logger.Printf("Failed to create team %q: %v", teamName, err)
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create team", nil)
			}
			// Lost a concurrent create for the same name; the team
			// exists now, so fall through to the existing-team rules.
			if err := ic.DB.Where("name = ?", teamName).First(&team).Error; err != nil {
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up team", nil)
			}
			if forbidden, err := ic.requireTeamManager(user, team.ID); err != nil {
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
			} else if forbidden {
				return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a teacher of this team", nil)
			}
			tx = ic.DB.Begin()
			if tx.Error != nil {
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create invitation code", nil)
			}
			break
		}
		if err := tx.Create(&models.TeamMembership{
			UserID: user.ID,
			TeamID: team.ID,
			Role:   models.MembershipTeacher,
		}).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create team", nil)
		}
		createdTeam = true
	case err != nil:
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up team", nil)
	default:
		if forbidden, err := ic.requireTeamManager(user, team.ID); err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		} else if forbidden {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a teacher of this team", nil)
		}
	}

	var expiresAt *time.Time
	if input.ExpiresInHours != nil {
		expiresAt = utils.Pointer(time.Now().Add(time.Duration(*input.ExpiresInHours) * time.Hour))
	}

	code, err := utils.CreateInvitationCode(tx, team.ID, user.ID, input.MaxUses, expiresAt)
	if err != nil {
		tx.Rollback()
		ic.Logger.Printf("Failed to create invitation code for team %d: %v", team.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create invitation code", nil)
	}
	if err := tx.Commit().Error; err != nil {
		ic.Logger.Printf("Transaction commit failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create invitation code", nil)
	}

	if createdTeam {
		utils.RecordActivity(ic.DB, models.ActionCreateTeam, user.ID, team.ID, nil, teamName)
	}
	utils.RecordActivity(ic.DB, models.ActionGenerateCode, user.ID, team.ID, nil,
		fmt.Sprintf("code=%s max_uses=%v", code.Code, input.MaxUses))

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"code":       code.Code,
		"team_id":    team.ID,
		"team_name":  team.Name,
		"max_uses":   code.MaxUses,
		"expires_at": code.ExpiresAt,
	}))
}

// ValidateCode is the read-only pre-join check. Any failure axis yields
// the same generic answer.
func (ic *InvitationController) ValidateCode(c *fiber.Ctx) error {
	raw := c.Params("code")
	if len(raw) != utils.CodeLength {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invitation code is invalid or expired", nil)
	}

	var code models.InvitationCode
	err := ic.DB.Preload("Team").Where("code = ?", strings.ToUpper(raw)).First(&code).Error
	if err != nil || !code.Usable(time.Now()) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			ic.Logger.Printf("Failed to look up code: %v", err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate code", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invitation code is invalid or expired", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"team_name": code.Team.Name,
	}))
}

// JoinTeam redeems a code for the calling user.
func (ic *InvitationController) JoinTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Code string `json:"code" validate:"required,len=6"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	code, err := utils.RedeemInvitationCode(ic.DB, input.Code, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrAlreadyMember):
			return utils.ErrorResponse(c, fiber.StatusConflict, "Already a member of this team", nil)
		case errors.Is(err, utils.ErrCodeInvalid):
			metrics.CodesRejected.Inc()
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Invitation code is invalid or expired", nil)
		default:
			ic.Logger.Printf("Redemption failed for user %d: %v", user.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to join team", nil)
		}
	}

	metrics.CodesRedeemed.Inc()
	utils.RecordActivity(ic.DB, models.ActionRedeemCode, user.ID, code.TeamID, nil, code.Code)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"team_id": code.TeamID,
	}))
}

// RevokeCode deactivates a code unconditionally.
func (ic *InvitationController) RevokeCode(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	codeID := utils.ParseUint(c.Params("id"))
	if codeID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "id is required", nil)
	}

	var code models.InvitationCode
	if err := ic.DB.First(&code, codeID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invitation code not found", nil)
	}

	if !user.IsPlatformAdmin() {
		m, err := membershipFor(ic.DB, user.ID, code.TeamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		}
		if m == nil || !m.CanManageTeam() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a teacher of this team", nil)
		}
	}

	if err := ic.DB.Model(&code).Update("is_active", false).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to revoke code", nil)
	}

	utils.RecordActivity(ic.DB, models.ActionRevokeCode, user.ID, code.TeamID, nil, code.Code)

	return c.JSON(fiber.Map{"message": "Code revoked"})
}

// ListActive returns the team's active codes, newest first, with
// creator identity.
func (ic *InvitationController) ListActive(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID := utils.ParseUint(c.Query("team_id"))
	if teamID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "team_id is required", nil)
	}

	if !user.IsPlatformAdmin() {
		m, err := membershipFor(ic.DB, user.ID, teamID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check membership", nil)
		}
		if m == nil || !m.CanManageTeam() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Not a teacher of this team", nil)
		}
	}

	var codes []models.InvitationCode
	if err := ic.DB.Preload("Creator").
		Where("team_id = ? AND is_active = ?", teamID, true).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list codes", nil)
	}

	out := make([]fiber.Map, 0, len(codes))
	for _, code := range codes {
		out = append(out, fiber.Map{
			"id":         code.ID,
			"code":       code.Code,
			"max_uses":   code.MaxUses,
			"used_count": code.UsedCount,
			"expires_at": code.ExpiresAt,
			"created_at": code.CreatedAt,
			"created_by": fiber.Map{
				"id":   code.Creator.ID,
				"name": code.Creator.Name,
			},
		})
	}

	return c.JSON(utils.SuccessResponse(out))
}
