package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/Islomov1/eit-lc-crm/internal/services"
	"github.com/Islomov1/eit-lc-crm/internal/telegram"
)

// TelegramHandler receives inbound bot updates from the provider.
type TelegramHandler struct {
	processor     *services.WebhookProcessor
	webhookSecret string
}

// NewTelegramHandler creates a new telegram webhook handler
func NewTelegramHandler(processor *services.WebhookProcessor, webhookSecret string) *TelegramHandler {
	return &TelegramHandler{
		processor:     processor,
		webhookSecret: webhookSecret,
	}
}

// Webhook handles POST /api/telegram/webhook. The provider retries any
// non-2xx response, so every accepted update is acknowledged with ok:true
// no matter how processing went; only a bad secret or an unparseable body
// is rejected. An unconfigured secret rejects everything.
func (h *TelegramHandler) Webhook(c *fiber.Ctx) error {
	if h.webhookSecret == "" || c.Get("X-Telegram-Bot-Api-Secret-Token") != h.webhookSecret {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid webhook secret",
		})
	}

	raw := c.Body()

	var update telegram.Update
	if err := json.Unmarshal(raw, &update); err != nil || update.UpdateID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid update payload",
		})
	}

	h.processor.Process(&update, raw)

	return c.JSON(fiber.Map{"ok": true})
}
