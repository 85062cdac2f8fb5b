package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

type ProgramHandler struct {
	service programApplicationService
}

type programApplicationService interface {
	CreateRootProgram(ctx context.Context, coachID string, input services.CreateProgramInput) (*models.Program, error)
	AssociateCoach(ctx context.Context, actorID, programID, peerCoachEmail string) (*models.Program, error)
	ChangeProgramState(ctx context.Context, actorID, programID string, target models.ProgramTargetState) (int64, error)
	GetPeerCoaches(ctx context.Context, programID string) ([]models.ProgramCoach, error)
	GetProgram(ctx context.Context, programID string) (*models.ProgramCoach, error)
	ListPrograms(ctx context.Context, userID string, desire models.ProgramDesire) ([]models.ProgramCoach, error)
}

func NewProgramHandler(service programApplicationService) *ProgramHandler {
	return &ProgramHandler{service: service}
}

type createProgramRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type associateCoachRequest struct {
	CoachEmail string `json:"coach_email"`
}

type changeProgramStateRequest struct {
	TargetState string `json:"target_state"`
}

type programResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	CoachID         string    `json:"coach_id"`
	Active          bool      `json:"active"`
	ParentProgramID *string   `json:"parent_program_id"`
	IsParent        bool      `json:"is_parent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type programCoachResponse struct {
	Program programResponse `json:"program"`
	Coach   models.User     `json:"coach"`
}

func toProgramResponse(program models.Program) programResponse {
	return programResponse{
		ID:              program.ID,
		Name:            program.Name,
		Description:     program.Description,
		CoachID:         program.CoachID,
		Active:          program.Active,
		ParentProgramID: program.ParentProgramID(),
		IsParent:        program.IsParent(),
		CreatedAt:       program.CreatedAt,
		UpdatedAt:       program.UpdatedAt,
	}
}

func toProgramCoachResponses(items []models.ProgramCoach) []programCoachResponse {
	responses := make([]programCoachResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, programCoachResponse{
			Program: toProgramResponse(item.Program),
			Coach:   item.Coach,
		})
	}
	return responses
}

func parseTargetState(value string) models.ProgramTargetState {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case models.ProgramActivate.String():
		return models.ProgramActivate
	case models.ProgramDeactivate.String():
		return models.ProgramDeactivate
	default:
		return 0
	}
}

func (h *ProgramHandler) CreateProgram(c *fiber.Ctx) error {
	coachID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	program, err := h.service.CreateRootProgram(c.Context(), coachID, services.CreateProgramInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"program": toProgramResponse(*program)})
}

func (h *ProgramHandler) ListPrograms(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	desire := models.ProgramDesire(strings.ToUpper(strings.TrimSpace(c.Query("desire", string(models.DesireExplore)))))
	programs, err := h.service.ListPrograms(c.Context(), userID, desire)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"programs": toProgramCoachResponses(programs)})
}

func (h *ProgramHandler) GetProgram(c *fiber.Ctx) error {
	item, err := h.service.GetProgram(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"program": toProgramResponse(item.Program),
		"coach":   item.Coach,
	})
}

func (h *ProgramHandler) AssociateCoach(c *fiber.Ctx) error {
	coachID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req associateCoachRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	program, err := h.service.AssociateCoach(c.Context(), coachID, c.Params("id"), req.CoachEmail)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"program": toProgramResponse(*program)})
}

func (h *ProgramHandler) GetPeerCoaches(c *fiber.Ctx) error {
	peers, err := h.service.GetPeerCoaches(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"peers": toProgramCoachResponses(peers)})
}

func (h *ProgramHandler) ChangeState(c *fiber.Ctx) error {
	coachID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req changeProgramStateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	rows, err := h.service.ChangeProgramState(c.Context(), coachID, c.Params("id"), parseTargetState(req.TargetState))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"updated": rows})
}
