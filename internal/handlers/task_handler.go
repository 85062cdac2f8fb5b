package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/services"
)

type TaskHandler struct {
	service taskApplicationService
	now     func() time.Time
}

type taskApplicationService interface {
	CreateTask(ctx context.Context, input services.CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, taskID string, input services.UpdateTaskInput) (*models.Task, error)
	UpdateResponse(ctx context.Context, taskID, response string) (*models.Task, error)
	UpdateClosingNotes(ctx context.Context, taskID, notes string) (*models.Task, error)
	ChangeMemberTaskState(ctx context.Context, taskID string, target models.TaskTransition) (*models.Task, error)
	ChangeCoachTaskState(ctx context.Context, taskID string, target models.TaskTransition) (*models.Task, error)
	ListTasks(ctx context.Context, enrollmentID string) ([]models.Task, error)
}

func NewTaskHandler(service taskApplicationService) *TaskHandler {
	return &TaskHandler{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type createTaskRequest struct {
	EnrollmentID string  `json:"enrollment_id"`
	ActorID      string  `json:"actor_id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	StartTime    string  `json:"start_time"`
	Duration     int     `json:"duration"`
}

type updateTaskRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	Duration    int     `json:"duration"`
}

type taskResponseRequest struct {
	Response string `json:"response"`
}

type closingNotesRequest struct {
	Notes string `json:"notes"`
}

type targetStateRequest struct {
	TargetState  string `json:"target_state"`
	ClosingNotes string `json:"closing_notes"`
}

type taskActions struct {
	CanStart    bool `json:"can_start"`
	CanRespond  bool `json:"can_respond"`
	CanFinish   bool `json:"can_finish"`
	CanComplete bool `json:"can_complete"`
	CanCancel   bool `json:"can_cancel"`
	CanReopen   bool `json:"can_reopen"`
	CanEdit     bool `json:"can_edit"`
}

type taskResponse struct {
	models.Task
	Status  models.TaskStatus `json:"status"`
	Actions taskActions       `json:"actions"`
}

func toTaskResponse(task models.Task, now time.Time) taskResponse {
	return taskResponse{
		Task:   task,
		Status: task.StatusAt(now),
		Actions: taskActions{
			CanStart:    task.CanStart(),
			CanRespond:  task.CanRespond(),
			CanFinish:   task.CanFinish(),
			CanComplete: task.CanComplete(),
			CanCancel:   task.CanCancel(),
			CanReopen:   task.CanReopen(),
			CanEdit:     task.CanEdit(),
		},
	}
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return unauthorized(c)
	}

	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = userID
	}

	task, err := h.service.CreateTask(c.Context(), services.CreateTaskInput{
		EnrollmentID: req.EnrollmentID,
		ActorID:      req.ActorID,
		Name:         req.Name,
		Description:  req.Description,
		StartTime:    req.StartTime,
		Duration:     req.Duration,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": toTaskResponse(*task, h.now())})
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	task, err := h.service.UpdateTask(c.Context(), c.Params("id"), services.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
	})
	return h.respond(c, task, err)
}

func (h *TaskHandler) UpdateResponse(c *fiber.Ctx) error {
	var req taskResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	task, err := h.service.UpdateResponse(c.Context(), c.Params("id"), req.Response)
	return h.respond(c, task, err)
}

func (h *TaskHandler) UpdateClosingNotes(c *fiber.Ctx) error {
	var req closingNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	task, err := h.service.UpdateClosingNotes(c.Context(), c.Params("id"), req.Notes)
	return h.respond(c, task, err)
}

func (h *TaskHandler) ChangeMemberState(c *fiber.Ctx) error {
	var req targetStateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	task, err := h.service.ChangeMemberTaskState(c.Context(), c.Params("id"), taskTransition(req.TargetState))
	return h.respond(c, task, err)
}

func (h *TaskHandler) ChangeCoachState(c *fiber.Ctx) error {
	var req targetStateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	task, err := h.service.ChangeCoachTaskState(c.Context(), c.Params("id"), taskTransition(req.TargetState))
	return h.respond(c, task, err)
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.service.ListTasks(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	now := h.now()
	responses := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, toTaskResponse(task, now))
	}
	return c.JSON(fiber.Map{"tasks": responses})
}

func (h *TaskHandler) respond(c *fiber.Ctx, task *models.Task, err error) error {
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"task": toTaskResponse(*task, h.now())})
}

func taskTransition(value string) models.TaskTransition {
	return models.TaskTransition(strings.ToUpper(strings.TrimSpace(value)))
}
