package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Islomov1/eit-lc-crm/internal/models"
	"github.com/Islomov1/eit-lc-crm/internal/services"
)

// AdminHandler covers the administrative CRM surface: creating reports and
// invites, pushing ad-hoc notifications, running attendance warnings.
type AdminHandler struct {
	reports    *services.ReportService
	invites    *services.InviteService
	attendance *services.AttendanceWarningService
	dispatcher *services.DeliveryDispatcher
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reports *services.ReportService, invites *services.InviteService, attendance *services.AttendanceWarningService, dispatcher *services.DeliveryDispatcher) *AdminHandler {
	return &AdminHandler{
		reports:    reports,
		invites:    invites,
		attendance: attendance,
		dispatcher: dispatcher,
	}
}

// CreateLessonReport handles POST /api/admin/reports
func (h *AdminHandler) CreateLessonReport(c *fiber.Ctx) error {
	var req services.LessonReportInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	report, dispatch, err := h.reports.CreateLessonReport(req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"report":   report,
			"delivery": dispatch,
		},
	})
}

// CreateSupportSession handles POST /api/admin/support-sessions
func (h *AdminHandler) CreateSupportSession(c *fiber.Ctx) error {
	var req services.SupportSessionInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	session, dispatch, err := h.reports.CreateSupportSession(req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session":  session,
			"delivery": dispatch,
		},
	})
}

// CreateInviteRequest represents the invite creation request
type CreateInviteRequest struct {
	StudentID uint `json:"student_id"`
}

// CreateInvite handles POST /api/admin/invites
func (h *AdminHandler) CreateInvite(c *fiber.Ctx) error {
	var req CreateInviteRequest
	if err := c.BodyParser(&req); err != nil || req.StudentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "student_id is required",
		})
	}

	invite, err := h.invites.CreateInvite(req.StudentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    invite,
	})
}

// NotifyRequest represents an ad-hoc notification to a student's parents
type NotifyRequest struct {
	StudentID      uint   `json:"student_id"`
	Message        string `json:"message"`
	ParseMode      string `json:"parse_mode"`
	IdempotencyKey string `json:"idempotency_key"`
	Force          bool   `json:"force"`
	ActorID        string `json:"actor_id"`
}

// Notify handles POST /api/admin/notify
func (h *AdminHandler) Notify(c *fiber.Ctx) error {
	var req NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	result, err := h.dispatcher.Dispatch(
		req.StudentID,
		req.Message,
		services.Actor{Type: models.ActorUser, ID: req.ActorID},
		services.DispatchOptions{
			ParseMode:      req.ParseMode,
			IdempotencyKey: req.IdempotencyKey,
			Force:          req.Force,
		},
	)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// AttendanceWarningsRequest represents the monthly warning run request
type AttendanceWarningsRequest struct {
	Month string `json:"month"` // YYYY-MM
}

// RunAttendanceWarnings handles POST /api/admin/attendance-warnings
func (h *AdminHandler) RunAttendanceWarnings(c *fiber.Ctx) error {
	var req AttendanceWarningsRequest
	if err := c.BodyParser(&req); err != nil || req.Month == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "month is required (YYYY-MM)",
		})
	}

	run, err := h.attendance.SendWarnings(req.Month)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    run,
	})
}

func respondServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, services.ErrStudentNotFound) {
		status = fiber.StatusNotFound
	} else if services.IsValidationError(err) {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
