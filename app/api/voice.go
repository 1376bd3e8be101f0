package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleVoiceToken(c *fiber.Ctx) error {
	if !s.voiceClient.Configured() {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "voice service is not configured"})
	}

	token, err := s.voiceClient.MintToken(c.UserContext())
	if err != nil {
		slog.Error("Voice token minting failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to mint voice token"})
	}

	return c.JSON(fiber.Map{"token": token})
}
