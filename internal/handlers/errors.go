package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

func actorID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

func mapServiceError(c *fiber.Ctx, err error) error {
	var problems services.ValidationErrors
	if errors.As(err, &problems) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": problems})
	}

	switch {
	case errors.Is(err, services.ErrCoachNotFound),
		errors.Is(err, services.ErrInvalidCoach),
		errors.Is(err, services.ErrInvalidProgram),
		errors.Is(err, services.ErrProgramNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrEnrollmentNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrObjectiveNotFound),
		errors.Is(err, services.ErrActorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrCoachAlreadyAssociated),
		errors.Is(err, services.ErrCoachWasMember),
		errors.Is(err, services.ErrMemberIsPeerCoach),
		errors.Is(err, services.ErrAlreadyParticipant),
		errors.Is(err, services.ErrAlreadyInState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotARootProgram),
		errors.Is(err, services.ErrIllegalStateTransition),
		errors.Is(err, services.ErrSessionNotDeletable),
		errors.Is(err, services.ErrSessionNotConference),
		errors.Is(err, services.ErrForeignEnrollment):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotProgramOwner),
		errors.Is(err, services.ErrNotSessionParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
