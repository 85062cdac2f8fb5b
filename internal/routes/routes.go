package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/config"
	"github.com/saeid-a/CoachProgramBack/internal/handlers"
	"github.com/saeid-a/CoachProgramBack/internal/middleware"
	"github.com/saeid-a/CoachProgramBack/internal/services"
	notifyws "github.com/saeid-a/CoachProgramBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, hub *notifyws.Hub, logger zerolog.Logger) {
	repos := services.NewRepositories(db)
	tx := services.NewPgTransactor(db)
	mailer := services.NewOutboxMailer(tx, hub)

	programService := services.NewProgramService(repos, tx, logger, cfg.ExploreLimit)
	enrollmentService := services.NewEnrollmentService(repos, tx, mailer, logger)
	taskService := services.NewTaskService(repos, tx, logger)
	sessionService := services.NewSessionService(repos, tx, logger)
	objectiveService := services.NewObjectiveService(repos, logger)

	handlerSet := handlerSet{
		programs:      handlers.NewProgramHandler(programService),
		enrollments:   handlers.NewEnrollmentHandler(enrollmentService),
		tasks:         handlers.NewTaskHandler(taskService),
		sessions:      handlers.NewSessionHandler(sessionService),
		objectives:    handlers.NewObjectiveHandler(objectiveService),
		notifications: handlers.NewNotificationHandler(hub, cfg.JWTSecret),
	}

	mount(app, cfg.JWTSecret, handlerSet)
}

type handlerSet struct {
	programs      *handlers.ProgramHandler
	enrollments   *handlers.EnrollmentHandler
	tasks         *handlers.TaskHandler
	sessions      *handlers.SessionHandler
	objectives    *handlers.ObjectiveHandler
	notifications *handlers.NotificationHandler
}

func mount(app *fiber.App, jwtSecret string, h handlerSet) {
	api := app.Group("/api")

	// The websocket route authenticates itself so browsers can pass the
	// token as a query parameter.
	api.Use("/v1/ws", h.notifications.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(h.notifications.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(jwtSecret))

	programs := authProtected.Group("/programs")
	programs.Post("", h.programs.CreateProgram)
	programs.Get("", h.programs.ListPrograms)
	programs.Get("/:id", h.programs.GetProgram)
	programs.Post("/:id/coaches", h.programs.AssociateCoach)
	programs.Get("/:id/coaches", h.programs.GetPeerCoaches)
	programs.Put("/:id/state", h.programs.ChangeState)
	programs.Post("/:id/enrollments/coach", h.enrollments.CoachSelfEnrollment)
	programs.Get("/:id/members", h.enrollments.ListMembers)

	enrollments := authProtected.Group("/enrollments")
	enrollments.Post("", h.enrollments.CreateEnrollment)
	enrollments.Post("/managed", h.enrollments.CreateManagedEnrollment)
	enrollments.Put("/:id/seen", h.enrollments.MarkSeen)
	enrollments.Get("/:id/tasks", h.tasks.ListTasks)
	enrollments.Get("/:id/sessions", h.sessions.ListSessions)
	enrollments.Get("/:id/objectives", h.objectives.ListObjectives)

	tasks := authProtected.Group("/tasks")
	tasks.Post("", h.tasks.CreateTask)
	tasks.Put("/:id", h.tasks.UpdateTask)
	tasks.Put("/:id/response", h.tasks.UpdateResponse)
	tasks.Put("/:id/closing-notes", h.tasks.UpdateClosingNotes)
	tasks.Put("/:id/member-state", h.tasks.ChangeMemberState)
	tasks.Put("/:id/coach-state", h.tasks.ChangeCoachState)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", h.sessions.CreateSession)
	sessions.Get("/:id", h.sessions.GetSession)
	sessions.Put("/:id/state", h.sessions.ChangeState)
	sessions.Delete("/:id", h.sessions.DeleteSession)
	sessions.Post("/:id/participants", h.sessions.AddParticipant)
	sessions.Post("/:id/notes", h.sessions.CreateNote)
	sessions.Get("/:id/notes", h.sessions.ListNotes)

	objectives := authProtected.Group("/objectives")
	objectives.Post("", h.objectives.CreateObjective)
	objectives.Put("/:id", h.objectives.UpdateObjective)
}
