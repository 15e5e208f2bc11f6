package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/services"
)

const (
	sweepDefaultLimit = 50
	sweepMaxLimit     = 200
)

// DeliveryHandler exposes the retry sweep and delivery inspection endpoints.
type DeliveryHandler struct {
	db          *gorm.DB
	sweeper     *services.RetrySweeper
	cronSecret  string
	maxAttempts int
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(db *gorm.DB, sweeper *services.RetrySweeper, cronSecret string, maxAttempts int) *DeliveryHandler {
	return &DeliveryHandler{
		db:          db,
		sweeper:     sweeper,
		cronSecret:  cronSecret,
		maxAttempts: maxAttempts,
	}
}

// Sweep handles POST /api/telegram/retry-sweep. It is called by an external
// scheduler; the caller authenticates with the cron secret.
func (h *DeliveryHandler) Sweep(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", sweepDefaultLimit)
	if limit < 1 {
		limit = sweepDefaultLimit
	}
	if limit > sweepMaxLimit {
		limit = sweepMaxLimit
	}
	includePending := c.QueryBool("includePending", false)

	summary, err := h.sweeper.Sweep(time.Now().UTC(), limit, includePending, h.maxAttempts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Sweep failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}

func (h *DeliveryHandler) authorized(c *fiber.Ctx) bool {
	if h.cronSecret == "" {
		return false
	}
	if c.Get("X-Cron-Secret") == h.cronSecret {
		return true
	}
	auth := c.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == h.cronSecret
}

// Status handles GET /api/admin/telegram-status: recent deliveries filtered
// by status and/or student, newest first.
func (h *DeliveryHandler) Status(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", sweepDefaultLimit)
	if limit < 1 {
		limit = sweepDefaultLimit
	}
	if limit > sweepMaxLimit {
		limit = sweepMaxLimit
	}

	query := h.db.Model(&models.TelegramDelivery{}).Order("created_at DESC").Limit(limit)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}
	if studentID := c.QueryInt("student_id", 0); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}

	var deliveries []models.TelegramDelivery
	if err := query.Find(&deliveries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load deliveries",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    deliveries,
	})
}
