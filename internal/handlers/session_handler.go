package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
	now     func() time.Time
}

type sessionApplicationService interface {
	CreateSession(ctx context.Context, input services.CreateSessionInput) (*models.SessionDetail, error)
	ChangeSessionState(ctx context.Context, sessionID string, target models.SessionTransition, closingNotes string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
	GetSession(ctx context.Context, sessionID string) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, enrollmentID string) ([]models.Session, error)
	AddSessionParticipant(ctx context.Context, sessionID, enrollmentID string) (*models.SessionDetail, error)
	CreateSessionNote(ctx context.Context, input services.CreateSessionNoteInput) (*models.SessionNote, error)
	ListSessionNotes(ctx context.Context, sessionID, viewerID string) ([]models.SessionNote, error)
}

func NewSessionHandler(service sessionApplicationService) *SessionHandler {
	return &SessionHandler{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type createSessionRequest struct {
	EnrollmentID string  `json:"enrollment_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	StartTime    string  `json:"start_time"`
	Duration     int     `json:"duration"`
	SessionType  string  `json:"session_type"`
	ConferenceID *string `json:"conference_id"`
}

type sessionResponse struct {
	models.Session
	Status    models.SessionStatus `json:"status"`
	CanDelete bool                 `json:"can_delete"`
}

type sessionDetailResponse struct {
	sessionResponse
	Participants []models.SessionParticipant `json:"participants"`
}

type addParticipantRequest struct {
	EnrollmentID string `json:"enrollment_id"`
}

type createNoteRequest struct {
	Description string `json:"description"`
	RemindAt    string `json:"remind_at"`
	IsPrivate   bool   `json:"is_private"`
}

func toSessionDetailResponse(detail models.SessionDetail, now time.Time) sessionDetailResponse {
	return sessionDetailResponse{
		sessionResponse: toSessionResponse(detail.Session, now),
		Participants:    detail.Participants,
	}
}

func toSessionResponse(session models.Session, now time.Time) sessionResponse {
	return sessionResponse{
		Session:   session,
		Status:    session.StatusAt(now),
		CanDelete: session.CanDelete(),
	}
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	session, err := h.service.CreateSession(c.Context(), services.CreateSessionInput{
		EnrollmentID: req.EnrollmentID,
		Name:         req.Name,
		Description:  req.Description,
		StartTime:    req.StartTime,
		Duration:     req.Duration,
		SessionType:  models.SessionType(strings.ToLower(strings.TrimSpace(req.SessionType))),
		ConferenceID: req.ConferenceID,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": toSessionDetailResponse(*session, h.now())})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": toSessionDetailResponse(*session, h.now())})
}

func (h *SessionHandler) ChangeState(c *fiber.Ctx) error {
	var req targetStateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	target := models.SessionTransition(strings.ToUpper(strings.TrimSpace(req.TargetState)))
	session, err := h.service.ChangeSessionState(c.Context(), c.Params("id"), target, req.ClosingNotes)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": toSessionResponse(*session, h.now())})
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	rows, err := h.service.DeleteSession(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": rows})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListSessions(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	now := h.now()
	responses := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session, now))
	}
	return c.JSON(fiber.Map{"sessions": responses})
}

func (h *SessionHandler) AddParticipant(c *fiber.Ctx) error {
	var req addParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	session, err := h.service.AddSessionParticipant(c.Context(), c.Params("id"), req.EnrollmentID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": toSessionDetailResponse(*session, h.now())})
}

func (h *SessionHandler) CreateNote(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	note, err := h.service.CreateSessionNote(c.Context(), services.CreateSessionNoteInput{
		SessionID:   c.Params("id"),
		ActorID:     userID,
		Description: req.Description,
		RemindAt:    req.RemindAt,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"note": note})
}

// ListNotes lists the notes the caller may read.
func (h *SessionHandler) ListNotes(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	notes, err := h.service.ListSessionNotes(c.Context(), c.Params("id"), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"notes": notes})
}
