package api

import (
	"errors"
	"log/slog"

	"portfolio/app/service/quote"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleQuote(c *fiber.Ctx) error {
	var req quote.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.quoteSvc.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, email and details are required"})
	}

	if err := s.quoteSvc.Send(c.UserContext(), &req); err != nil {
		if errors.Is(err, quote.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "email service is not configured"})
		}

		slog.Error("Quote delivery failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "failed to send quote request",
			"details": err.Error(),
		})
	}

	slog.Info("Quote request delivered", "name", req.Name, "email", req.Email)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Quote request sent successfully",
	})
}
