package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
)

type ProgramService struct {
	repos        Repositories
	tx           Transactor
	log          zerolog.Logger
	exploreLimit int
}

type CreateProgramInput struct {
	Name        string
	Description *string
}

func NewProgramService(repos Repositories, tx Transactor, logger zerolog.Logger, exploreLimit int) *ProgramService {
	return &ProgramService{
		repos:        repos,
		tx:           tx,
		log:          logger.With().Str("component", "programs").Logger(),
		exploreLimit: exploreLimit,
	}
}

// CreateRootProgram inserts a new family root owned by coachID.
func (s *ProgramService) CreateRootProgram(
	ctx context.Context,
	coachID string,
	input CreateProgramInput,
) (*models.Program, error) {
	var problems ValidationErrors
	problems.required("coach_id", coachID)
	problems.required("name", input.Name)
	if err := problems.err(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users.GetByID(ctx, coachID); err != nil {
		return nil, wrap("find coach", notFound(err, ErrCoachNotFound))
	}

	program := &models.Program{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: trimmedPtr(input.Description),
		CoachID:     coachID,
		Lineage:     models.RootLineage(),
	}
	if err := s.repos.Programs.Create(ctx, program); err != nil {
		return nil, wrap("create program", err)
	}

	created, err := s.repos.Programs.GetByID(ctx, program.ID)
	if err != nil {
		return nil, wrap("reload program", err)
	}

	s.log.Info().Str("program_id", created.ID).Str("coach_id", coachID).Msg("root program created")
	return created, nil
}

// AssociateCoach spawns a peer of the family containing programID for the
// coach registered under peerCoachEmail. Only the root's coach may do so.
func (s *ProgramService) AssociateCoach(
	ctx context.Context,
	actorID string,
	programID string,
	peerCoachEmail string,
) (*models.Program, error) {
	var problems ValidationErrors
	problems.required("actor_id", actorID)
	problems.required("program_id", programID)
	problems.required("coach_email", peerCoachEmail)
	if err := problems.err(); err != nil {
		return nil, err
	}

	var spawned *models.Program
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		peer, err := repos.Users.GetByEmail(ctx, strings.TrimSpace(peerCoachEmail))
		if err != nil {
			return notFound(err, ErrInvalidCoach)
		}

		program, err := repos.Programs.GetByID(ctx, programID)
		if err != nil {
			return notFound(err, ErrInvalidProgram)
		}

		rootID := program.CoalesceParentID()
		if err := repos.Programs.LockFamily(ctx, rootID); err != nil {
			return err
		}

		root := program
		if !program.IsParent() {
			root, err = repos.Programs.GetByID(ctx, rootID)
			if err != nil {
				return notFound(err, ErrInvalidProgram)
			}
		}
		if root.CoachID != actorID {
			return ErrNotProgramOwner
		}

		wasMember, err := repos.Enrollments.HasMemberHistoryInFamily(ctx, rootID, peer.ID)
		if err != nil {
			return err
		}
		if wasMember {
			return ErrCoachWasMember
		}

		_, err = repos.Programs.FindInFamilyByCoach(ctx, rootID, peer.ID)
		switch {
		case err == nil:
			return ErrCoachAlreadyAssociated
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		peerProgram := &models.Program{
			ID:          uuid.NewString(),
			Name:        root.Name,
			Description: root.Description,
			CoachID:     peer.ID,
			Active:      root.Active,
			Lineage:     models.SpawnedLineage(root.ID),
		}
		if err := repos.Programs.Create(ctx, peerProgram); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCoachAlreadyAssociated
			}
			return err
		}

		spawned, err = repos.Programs.GetByID(ctx, peerProgram.ID)
		return err
	})
	if err != nil {
		return nil, wrap("associate coach", err)
	}

	s.log.Info().
		Str("program_id", spawned.ID).
		Str("root_id", spawned.CoalesceParentID()).
		Str("coach_id", spawned.CoachID).
		Msg("peer program spawned")
	return spawned, nil
}

// ChangeProgramState activates or deactivates a whole family. It returns
// the number of programs flipped, root included. Only the root's coach may
// change it.
func (s *ProgramService) ChangeProgramState(
	ctx context.Context,
	actorID string,
	programID string,
	target models.ProgramTargetState,
) (int64, error) {
	var problems ValidationErrors
	problems.required("actor_id", actorID)
	problems.required("program_id", programID)
	if target != models.ProgramActivate && target != models.ProgramDeactivate {
		problems.add("target_state", "must be ACTIVATE or DEACTIVATE")
	}
	if err := problems.err(); err != nil {
		return 0, err
	}

	var flipped int64
	err := s.tx.WithinTx(ctx, func(repos Repositories) error {
		// A root's family key is its own id, so the lock is taken before the
		// state is read.
		if err := repos.Programs.LockFamily(ctx, programID); err != nil {
			return err
		}
		program, err := repos.Programs.GetByID(ctx, programID)
		if err != nil {
			return notFound(err, ErrProgramNotFound)
		}
		if !program.IsParent() {
			return ErrNotARootProgram
		}
		if program.CoachID != actorID {
			return ErrNotProgramOwner
		}

		active := target == models.ProgramActivate
		if program.Active == active {
			return ErrAlreadyInState
		}

		flipped, err = repos.Programs.SetFamilyActive(ctx, program.ID, active)
		return err
	})
	if err != nil {
		return 0, wrap("change program state", err)
	}

	s.log.Info().
		Str("program_id", programID).
		Stringer("target", target).
		Int64("rows", flipped).
		Msg("program family state changed")
	return flipped, nil
}

// GetPeerCoaches lists the spawned offerings of the family, root excluded.
func (s *ProgramService) GetPeerCoaches(ctx context.Context, programID string) ([]models.ProgramCoach, error) {
	var problems ValidationErrors
	problems.required("program_id", programID)
	if err := problems.err(); err != nil {
		return nil, err
	}

	program, err := s.repos.Programs.GetByID(ctx, programID)
	if err != nil {
		return nil, wrap("find program", notFound(err, ErrProgramNotFound))
	}

	peers, err := s.repos.Programs.ListPeersWithCoach(ctx, program.CoalesceParentID())
	if err != nil {
		return nil, wrap("list peer coaches", err)
	}
	return peers, nil
}

func (s *ProgramService) GetProgram(ctx context.Context, programID string) (*models.ProgramCoach, error) {
	item, err := s.repos.Programs.GetWithCoach(ctx, programID)
	if err != nil {
		return nil, wrap("find program", notFound(err, ErrProgramNotFound))
	}
	return item, nil
}

func (s *ProgramService) ListPrograms(
	ctx context.Context,
	userID string,
	desire models.ProgramDesire,
) ([]models.ProgramCoach, error) {
	var (
		programs []models.ProgramCoach
		err      error
	)
	switch desire {
	case models.DesireExplore:
		programs, err = s.repos.Programs.ListActiveWithCoach(ctx, s.exploreLimit)
	case models.DesireEnrolled:
		programs, err = s.repos.Programs.ListEnrolledWithCoach(ctx, userID)
	case models.DesireYours:
		programs, err = s.repos.Programs.ListByCoachWithCoach(ctx, userID)
	default:
		return nil, ValidationErrors{{Field: "desire", Message: "must be EXPLORE, ENROLLED or YOURS"}}
	}
	if err != nil {
		return nil, wrap("list programs", err)
	}
	return programs, nil
}
