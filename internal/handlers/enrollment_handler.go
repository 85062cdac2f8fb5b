package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

type EnrollmentHandler struct {
	service enrollmentApplicationService
}

type enrollmentApplicationService interface {
	CreateEnrollment(ctx context.Context, programID string, memberID string) (*models.Enrollment, error)
	CreateManagedEnrollment(ctx context.Context, coachID string, input services.ManagedEnrollmentInput) (*models.Enrollment, error)
	FindOrCreateCoachSelfEnrollment(ctx context.Context, programID string) (*models.Enrollment, error)
	MarkAsOld(ctx context.Context, enrollmentID string) (int64, error)
	GetActiveEnrollments(ctx context.Context, programID string, filter models.EnrollmentFilter) ([]models.Member, error)
}

func NewEnrollmentHandler(service enrollmentApplicationService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type createEnrollmentRequest struct {
	ProgramID string `json:"program_id"`
}

type managedEnrollmentRequest struct {
	ProgramID   string `json:"program_id"`
	MemberEmail string `json:"member_email"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
}

func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	memberID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	enrollment, err := h.service.CreateEnrollment(c.Context(), req.ProgramID, memberID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) CreateManagedEnrollment(c *fiber.Ctx) error {
	coachID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req managedEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	enrollment, err := h.service.CreateManagedEnrollment(c.Context(), coachID, services.ManagedEnrollmentInput{
		ProgramID:   req.ProgramID,
		MemberEmail: req.MemberEmail,
		Subject:     req.Subject,
		Message:     req.Message,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) CoachSelfEnrollment(c *fiber.Ctx) error {
	enrollment, err := h.service.FindOrCreateCoachSelfEnrollment(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) MarkSeen(c *fiber.Ctx) error {
	rows, err := h.service.MarkAsOld(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"updated": rows})
}

func (h *EnrollmentHandler) ListMembers(c *fiber.Ctx) error {
	filter := models.EnrollmentFilter(strings.ToUpper(strings.TrimSpace(c.Query("filter"))))

	members, err := h.service.GetActiveEnrollments(c.Context(), c.Params("id"), filter)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"members": members})
}
