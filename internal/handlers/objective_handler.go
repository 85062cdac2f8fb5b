package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

type ObjectiveHandler struct {
	service objectiveApplicationService
	now     func() time.Time
}

type objectiveApplicationService interface {
	CreateObjective(ctx context.Context, input services.ObjectiveInput) (*models.Objective, error)
	UpdateObjective(ctx context.Context, objectiveID string, input services.ObjectiveInput) (*models.Objective, error)
	ListObjectives(ctx context.Context, enrollmentID string) ([]models.Objective, error)
}

func NewObjectiveHandler(service objectiveApplicationService) *ObjectiveHandler {
	return &ObjectiveHandler{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type objectiveRequest struct {
	EnrollmentID string  `json:"enrollment_id"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Description  *string `json:"description"`
}

func (r objectiveRequest) input() services.ObjectiveInput {
	return services.ObjectiveInput{
		EnrollmentID: r.EnrollmentID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Description:  r.Description,
	}
}

type objectiveResponse struct {
	models.Objective
	Status models.ObjectiveStatus `json:"status"`
}

func (h *ObjectiveHandler) CreateObjective(c *fiber.Ctx) error {
	var req objectiveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	objective, err := h.service.CreateObjective(c.Context(), req.input())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"objective": objectiveResponse{Objective: *objective, Status: objective.StatusAt(h.now())},
	})
}

func (h *ObjectiveHandler) UpdateObjective(c *fiber.Ctx) error {
	var req objectiveRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	objective, err := h.service.UpdateObjective(c.Context(), c.Params("id"), req.input())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"objective": objectiveResponse{Objective: *objective, Status: objective.StatusAt(h.now())},
	})
}

func (h *ObjectiveHandler) ListObjectives(c *fiber.Ctx) error {
	objectives, err := h.service.ListObjectives(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	now := h.now()
	responses := make([]objectiveResponse, 0, len(objectives))
	for _, objective := range objectives {
		responses = append(responses, objectiveResponse{Objective: objective, Status: objective.StatusAt(now)})
	}
	return c.JSON(fiber.Map{"objectives": responses})
}
