package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestProgramFamilyAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	repos := NewRepositories(pool)
	tx := NewPgTransactor(pool)
	programs := NewProgramService(repos, tx, zerolog.Nop(), 10)
	enrollments := NewEnrollmentService(repos, tx, NewOutboxMailer(tx, nil), zerolog.Nop())

	c1 := createTestUser(t, ctx, pool, "coach1")
	c2 := createTestUser(t, ctx, pool, "coach2")
	member := createTestUser(t, ctx, pool, "member")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, c1.ID, c2.ID, member.ID) })

	root, err := programs.CreateRootProgram(ctx, c1.ID, CreateProgramInput{Name: "Fitness"})
	if err != nil {
		t.Fatalf("CreateRootProgram: %v", err)
	}
	peer, err := programs.AssociateCoach(ctx, c1.ID, root.ID, c2.Email)
	if err != nil {
		t.Fatalf("AssociateCoach: %v", err)
	}
	if parent := peer.ParentProgramID(); parent == nil || *parent != root.ID {
		t.Fatalf("expected peer under root, got %v", parent)
	}
	if _, err := programs.AssociateCoach(ctx, c1.ID, root.ID, c2.Email); !errors.Is(err, ErrCoachAlreadyAssociated) {
		t.Fatalf("expected ErrCoachAlreadyAssociated, got %v", err)
	}

	rows, err := programs.ChangeProgramState(ctx, c1.ID, root.ID, models.ProgramActivate)
	if err != nil || rows != 2 {
		t.Fatalf("ChangeProgramState: rows=%d err=%v", rows, err)
	}

	if _, err := enrollments.CreateEnrollment(ctx, root.ID, member.ID); err != nil {
		t.Fatalf("CreateEnrollment: %v", err)
	}
	if _, err := enrollments.CreateEnrollment(ctx, peer.ID, member.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}

	fresh, err := enrollments.GetActiveEnrollments(ctx, root.ID, models.EnrollmentFilterNew)
	if err != nil || len(fresh) != 1 || fresh[0].UserID != member.ID {
		t.Fatalf("GetActiveEnrollments: %v %+v", err, fresh)
	}
}

func TestSessionParticipantsAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	repos := NewRepositories(pool)
	tx := NewPgTransactor(pool)
	programs := NewProgramService(repos, tx, zerolog.Nop(), 10)
	enrollments := NewEnrollmentService(repos, tx, NewOutboxMailer(tx, nil), zerolog.Nop())
	sessions := NewSessionService(repos, tx, zerolog.Nop())

	coach := createTestUser(t, ctx, pool, "coach")
	member := createTestUser(t, ctx, pool, "member")
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, coach.ID, member.ID) })

	root, err := programs.CreateRootProgram(ctx, coach.ID, CreateProgramInput{Name: "Mobility"})
	if err != nil {
		t.Fatalf("CreateRootProgram: %v", err)
	}
	enrollment, err := enrollments.CreateEnrollment(ctx, root.ID, member.ID)
	if err != nil {
		t.Fatalf("CreateEnrollment: %v", err)
	}

	detail, err := sessions.CreateSession(ctx, CreateSessionInput{
		EnrollmentID: enrollment.ID,
		Name:         "Kickoff",
		Description:  "Baseline",
		StartTime:    time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
		Duration:     1,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(detail.Participants) != 2 ||
		detail.Participants[0].UserType != models.ParticipantCoach ||
		detail.Participants[1].UserID != member.ID {
		t.Fatalf("unexpected participants: %+v", detail.Participants)
	}

	if _, err := sessions.CreateSessionNote(ctx, CreateSessionNoteInput{
		SessionID:   detail.ID,
		ActorID:     coach.ID,
		Description: "coach only",
		IsPrivate:   true,
	}); err != nil {
		t.Fatalf("CreateSessionNote: %v", err)
	}
	notes, err := sessions.ListSessionNotes(ctx, detail.ID, member.ID)
	if err != nil || len(notes) != 0 {
		t.Fatalf("ListSessionNotes: %v %+v", err, notes)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) *models.User {
	t.Helper()

	suffix := time.Now().UnixNano()
	user := &models.User{
		ID:       fmt.Sprintf("it-%s-%d", role, suffix),
		FullName: fmt.Sprintf("Test %s %d", role, suffix),
		Email:    fmt.Sprintf("programs-test-%s-%d@example.com", role, suffix),
	}
	if err := repository.NewUserRepository(pool).Create(ctx, user); err != nil {
		t.Fatalf("Create user (%s): %v", role, err)
	}
	return user
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...string) {
	t.Helper()

	statements := []string{
		"DELETE FROM mail_outs WHERE id IN (SELECT mail_out_id FROM mail_recipients WHERE user_id = ANY($1))",
		"DELETE FROM enrollments WHERE member_id = ANY($1) OR program_id IN (SELECT id FROM programs WHERE coach_id = ANY($1))",
		"DELETE FROM programs WHERE parent_program_id IS NOT NULL AND coach_id = ANY($1)",
		"DELETE FROM programs WHERE coach_id = ANY($1)",
		"DELETE FROM users WHERE id = ANY($1)",
	}
	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement, userIDs); err != nil {
			t.Fatalf("cleanup %q: %v", statement, err)
		}
	}
}
