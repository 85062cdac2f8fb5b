package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
)

type ObjectiveService struct {
	repos Repositories
	log   zerolog.Logger
	now   func() time.Time
}

type ObjectiveInput struct {
	EnrollmentID string
	StartTime    string
	EndTime      string
	Description  *string
}

func NewObjectiveService(repos Repositories, logger zerolog.Logger) *ObjectiveService {
	return &ObjectiveService{
		repos: repos,
		log:   logger.With().Str("component", "objectives").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ObjectiveService) validateWindow(problems *ValidationErrors, input ObjectiveInput) (time.Time, time.Time) {
	now := s.now()
	start := problems.futureDate("start_time", input.StartTime, now)
	end := problems.futureDate("end_time", input.EndTime, now)
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		problems.add("end_time", "should be after start_time")
	}
	return start, end
}

func (s *ObjectiveService) CreateObjective(ctx context.Context, input ObjectiveInput) (*models.Objective, error) {
	var problems ValidationErrors
	problems.required("enrollment_id", input.EnrollmentID)
	start, end := s.validateWindow(&problems, input)
	if err := problems.err(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Enrollments.GetByID(ctx, input.EnrollmentID); err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}

	objective := &models.Objective{
		ID:           uuid.NewString(),
		EnrollmentID: input.EnrollmentID,
		Duration:     durationHours(start, end),
		Schedule:     models.Schedule{OriginalStart: start, OriginalEnd: end},
		Description:  trimmedPtr(input.Description),
	}
	if err := s.repos.Objectives.Create(ctx, objective); err != nil {
		return nil, wrap("create objective", err)
	}

	s.log.Debug().Str("objective_id", objective.ID).Str("enrollment_id", objective.EnrollmentID).Msg("objective created")
	return s.reload(ctx, objective.ID)
}

// UpdateObjective replaces the planned window and description. The
// enrollment of an objective never changes.
func (s *ObjectiveService) UpdateObjective(
	ctx context.Context,
	objectiveID string,
	input ObjectiveInput,
) (*models.Objective, error) {
	var problems ValidationErrors
	problems.required("id", objectiveID)
	start, end := s.validateWindow(&problems, input)
	if err := problems.err(); err != nil {
		return nil, err
	}

	objective, err := s.repos.Objectives.GetByID(ctx, objectiveID)
	if err != nil {
		return nil, wrap("find objective", notFound(err, ErrObjectiveNotFound))
	}

	objective.OriginalStart = start
	objective.OriginalEnd = end
	objective.Duration = durationHours(start, end)
	objective.Description = trimmedPtr(input.Description)
	if err := s.repos.Objectives.Update(ctx, objective); err != nil {
		return nil, wrap("update objective", err)
	}
	return s.reload(ctx, objective.ID)
}

func (s *ObjectiveService) ListObjectives(ctx context.Context, enrollmentID string) ([]models.Objective, error) {
	if _, err := s.repos.Enrollments.GetByID(ctx, enrollmentID); err != nil {
		return nil, wrap("find enrollment", notFound(err, ErrEnrollmentNotFound))
	}
	objectives, err := s.repos.Objectives.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, wrap("list objectives", err)
	}
	return objectives, nil
}

func (s *ObjectiveService) reload(ctx context.Context, objectiveID string) (*models.Objective, error) {
	objective, err := s.repos.Objectives.GetByID(ctx, objectiveID)
	if err != nil {
		return nil, wrap("reload objective", err)
	}
	return objective, nil
}

// durationHours rounds the window up to whole hours, minimum one.
func durationHours(start, end time.Time) int {
	hours := int(end.Sub(start) / time.Hour)
	if end.Sub(start)%time.Hour != 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}
