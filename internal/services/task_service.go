package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

type TaskService struct {
	repos Repositories
	tx    Transactor
	log   zerolog.Logger
	now   func() time.Time
}

type CreateTaskInput struct {
	EnrollmentID string
	ActorID      string
	Name         string
	Description  *string
	StartTime    string
	Duration     int
}

type UpdateTaskInput struct {
	Name        string
	Description *string
	StartTime   string
	Duration    int
}

func NewTaskService(repos Repositories, tx Transactor, logger zerolog.Logger) *TaskService {
	return &TaskService{
		repos: repos,
		tx:    tx,
		log:   logger.With().Str("component", "tasks").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("enrollment_id", input.EnrollmentID)
	problems.required("actor_id", input.ActorID)
	problems.required("name", input.Name)
	start := problems.futureDate("start_time", input.StartTime, s.now())
	problems.minDuration("duration", input.Duration)
	if err := problems.err(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Enrollments.GetByID(ctx, input.EnrollmentID); err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}
	if _, err := s.repos.Users.GetByID(ctx, input.ActorID); err != nil {
		return nil, wrap("find actor", notFound(err, ErrActorNotFound))
	}

	task := &models.Task{
		ID:           uuid.NewString(),
		EnrollmentID: input.EnrollmentID,
		ActorID:      input.ActorID,
		Name:         strings.TrimSpace(input.Name),
		Description:  trimmedPtr(input.Description),
		Duration:     input.Duration,
		Schedule: models.Schedule{
			OriginalStart: start,
			OriginalEnd:   utils.EndAfterHours(start, input.Duration),
		},
	}
	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return nil, wrap("create task", err)
	}
	return s.reload(ctx, task.ID)
}

// UpdateTask edits the plain fields of a task that has not been responded
// to, cancelled or finished.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("id", taskID)
	problems.required("name", input.Name)
	start := problems.futureDate("start_time", input.StartTime, s.now())
	problems.minDuration("duration", input.Duration)
	if err := problems.err(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, taskID, "update task", func(task models.Task) (models.Task, error) {
		if !task.CanEdit() {
			return task, ErrIllegalStateTransition
		}
		task.Name = strings.TrimSpace(input.Name)
		task.Description = trimmedPtr(input.Description)
		task.Duration = input.Duration
		task.OriginalStart = start
		task.OriginalEnd = utils.EndAfterHours(start, input.Duration)
		return task, nil
	})
}

// UpdateResponse records the member's response text.
func (s *TaskService) UpdateResponse(ctx context.Context, taskID, response string) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("id", taskID)
	problems.required("response", response)
	if err := problems.err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, taskID, models.TaskRespond, strings.TrimSpace(response))
}

func (s *TaskService) UpdateClosingNotes(ctx context.Context, taskID, notes string) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("id", taskID)
	problems.required("notes", notes)
	if err := problems.err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(notes)
	return s.mutate(ctx, taskID, "update closing notes", func(task models.Task) (models.Task, error) {
		if task.CancelledAt != nil {
			return task, ErrIllegalStateTransition
		}
		task.ClosingNotes = &trimmed
		return task, nil
	})
}

// ChangeMemberTaskState accepts START and FINISH.
func (s *TaskService) ChangeMemberTaskState(
	ctx context.Context,
	taskID string,
	target models.TaskTransition,
) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("id", taskID)
	if target != models.TaskStart && target != models.TaskFinish {
		problems.add("target_state", "must be START or FINISH")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, taskID, target, "")
}

// ChangeCoachTaskState accepts DONE, CANCEL and REOPEN.
func (s *TaskService) ChangeCoachTaskState(
	ctx context.Context,
	taskID string,
	target models.TaskTransition,
) (*models.Task, error) {
	var problems ValidationErrors
	problems.required("id", taskID)
	switch target {
	case models.TaskComplete, models.TaskCancel, models.TaskReopen:
	default:
		problems.add("target_state", "must be DONE, CANCEL or REOPEN")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, taskID, target, "")
}

func (s *TaskService) ListTasks(ctx context.Context, enrollmentID string) ([]models.Task, error) {
	if _, err := s.repos.Enrollments.GetByID(ctx, enrollmentID); err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}
	tasks, err := s.repos.Tasks.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) transition(
	ctx context.Context,
	taskID string,
	transition models.TaskTransition,
	response string,
) (*models.Task, error) {
	task, err := s.mutate(ctx, taskID, "update task state", func(task models.Task) (models.Task, error) {
		next, ok := task.Apply(transition, s.now(), response)
		if !ok {
			return task, ErrIllegalStateTransition
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("task_id", taskID).Str("transition", string(transition)).Msg("task transitioned")
	return task, nil
}

// mutate locks the task row, applies change to it and writes the result in
// one transaction, so the guard inside change always sees the current row.
func (s *TaskService) mutate(
	ctx context.Context,
	taskID, op string,
	change func(models.Task) (models.Task, error),
) (*models.Task, error) {
	var updated *models.Task
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		task, err := repos.Tasks.GetForUpdate(ctx, taskID)
		if err != nil {
			return notFound(err, ErrTaskNotFound)
		}
		next, err := change(*task)
		if err != nil {
			return err
		}
		if err := repos.Tasks.Update(ctx, &next); err != nil {
			return err
		}
		updated, err = repos.Tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return updated, nil
}

func (s *TaskService) reload(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, wrap("reload task", err)
	}
	return task, nil
}
