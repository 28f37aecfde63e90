package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
)

func respondError(c *fiber.Ctx, err error) error {
	code := apperr.CodeOf(err)
	msg := err.Error()
	if code == apperr.CodeUnknown || code == apperr.CodeStoreUnavailable {
		// don't leak internals
		msg = "internal error"
		if code == apperr.CodeStoreUnavailable {
			msg = "store unavailable"
		}
	}
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{
		"error": fiber.Map{"code": code, "message": msg},
	})
}
