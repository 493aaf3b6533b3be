package controller

import (
	"github.com/gofiber/fiber/v2"

	"classnexy/config"
	"classnexy/models"
	"classnexy/utils"
)

type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}

// SendOTP issues a fresh verification code to the logged-in user.
func SendOTP(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	otp, err := utils.GenerateOTP()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate code", nil)
	}
	if err := utils.SaveOTP(config.DB, user.ID, otp); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save code", nil)
	}
	if err := utils.SendOTPEmail(user.Email, otp); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send email", nil)
	}

	return c.JSON(fiber.Map{"message": "Verification code sent"})
}

// VerifyOTP confirms the emailed code and marks the account verified.
func VerifyOTP(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	ok, err := utils.VerifyOTP(config.DB, user.ID, req.OTP)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Verification failed", nil)
	}
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid or expired code", nil)
	}

	return c.JSON(fiber.Map{"message": "Email verified"})
}
