package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"classnexy/utils"
)

// PreviewAnnouncement compiles a rich announcement body for the editor.
// Nothing is persisted; compile failures are ordinary 400s.
func PreviewAnnouncement(c *fiber.Ctx) error {
	var input struct {
		Content string `json:"content" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	doc, err := utils.RenderDocument(input.Content)
	if err != nil {
		var compileErr *utils.CompileError
		if errors.As(err, &compileErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, compileErr.Message, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to render document", nil)
	}

	return c.JSON(utils.SuccessResponse(doc))
}
