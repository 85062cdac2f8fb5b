package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachProgramBack/internal/models"
	"github.com/saeid-a/CoachProgramBack/internal/repository"
)

// memState is the whole fake database. It is copied by value for
// transaction snapshots, so every map is cloned in snapshot.
type memState struct {
	users       map[string]models.User
	programs    map[string]models.Program
	enrollments map[string]models.Enrollment
	tasks       map[string]models.Task
	sessions    map[string]models.Session
	members     map[string]models.SessionParticipant
	notes       map[string]models.SessionNote
	objectives  map[string]models.Objective
	mails       []models.MailOut
	seq         int
}

func (s memState) snapshot() memState {
	next := memState{
		users:       make(map[string]models.User, len(s.users)),
		programs:    make(map[string]models.Program, len(s.programs)),
		enrollments: make(map[string]models.Enrollment, len(s.enrollments)),
		tasks:       make(map[string]models.Task, len(s.tasks)),
		sessions:    make(map[string]models.Session, len(s.sessions)),
		members:     make(map[string]models.SessionParticipant, len(s.members)),
		notes:       make(map[string]models.SessionNote, len(s.notes)),
		objectives:  make(map[string]models.Objective, len(s.objectives)),
		mails:       append([]models.MailOut(nil), s.mails...),
		seq:         s.seq,
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.programs {
		next.programs[k] = v
	}
	for k, v := range s.enrollments {
		next.enrollments[k] = v
	}
	for k, v := range s.tasks {
		next.tasks[k] = v
	}
	for k, v := range s.sessions {
		next.sessions[k] = v
	}
	for k, v := range s.members {
		next.members[k] = v
	}
	for k, v := range s.notes {
		next.notes[k] = v
	}
	for k, v := range s.objectives {
		next.objectives[k] = v
	}
	return next
}

type memStore struct {
	mu    sync.Mutex
	state memState
	clock time.Time
	// txMu serializes transactions the way row and advisory locks do.
	txMu sync.Mutex

	// failEnqueue makes every mail enqueue fail.
	failEnqueue error
	// failTaskUpdate makes every task update fail.
	failTaskUpdate error
	// failRecipient makes the n-th recipient insert of a mail fail. Zero
	// disables it.
	failRecipient int
}

var errRecipientInsert = errors.New("recipient insert failed")

func newMemStore() *memStore {
	return &memStore{
		state: memState{}.snapshot(),
		clock: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so created_at ordering is
// deterministic.
func (m *memStore) tick() time.Time {
	m.state.seq++
	return m.clock.Add(time.Duration(m.state.seq) * time.Second)
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Users:        memUsers{m},
		Programs:     memPrograms{m},
		Enrollments:  memEnrollments{m},
		Tasks:        memTasks{m},
		Sessions:     memSessions{m},
		Participants: memParticipants{m},
		Notes:        memNotes{m},
		Objectives:   memObjectives{m},
		Mails:        memMails{m},
	}
}

// WithinTx restores the pre-call state when fn fails.
func (m *memStore) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	saved := m.state.snapshot()
	m.mu.Unlock()

	if err := fn(m.repos()); err != nil {
		m.mu.Lock()
		m.state = saved
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) addUser(id, fullName, email string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	user := models.User{ID: id, FullName: fullName, Email: email, CreatedAt: now, UpdatedAt: now}
	m.state.users[id] = user
	return user
}

func (m *memStore) program(id string) models.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.programs[id]
}

func (m *memStore) task(id string) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.tasks[id]
}

func (m *memStore) queuedMails() []models.MailOut {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MailOut(nil), m.state.mails...)
}

func (m *memStore) countEnrollments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.enrollments)
}

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.state.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.state.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memPrograms struct{ m *memStore }

func (r memPrograms) Create(_ context.Context, program *models.Program) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	family := program.CoalesceParentID()
	for _, existing := range r.m.state.programs {
		if existing.CoalesceParentID() == family && existing.CoachID == program.CoachID {
			return repository.ErrDuplicate
		}
	}
	if !program.IsParent() {
		parent, ok := r.m.state.programs[program.CoalesceParentID()]
		if !ok || !parent.IsParent() {
			return errors.New("parent must be an existing root")
		}
	}
	now := r.m.tick()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.m.state.programs[program.ID] = *program
	return nil
}

func (r memPrograms) GetByID(_ context.Context, id string) (*models.Program, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	program, ok := r.m.state.programs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &program, nil
}

func (r memPrograms) withCoach(program models.Program) models.ProgramCoach {
	return models.ProgramCoach{Program: program, Coach: r.m.state.users[program.CoachID]}
}

func (r memPrograms) GetWithCoach(_ context.Context, id string) (*models.ProgramCoach, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	program, ok := r.m.state.programs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	item := r.withCoach(program)
	return &item, nil
}

func (r memPrograms) FindInFamilyByCoach(_ context.Context, rootID, coachID string) (*models.Program, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, program := range r.m.state.programs {
		if program.CoalesceParentID() == rootID && program.CoachID == coachID {
			found := program
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memPrograms) ListPeersWithCoach(_ context.Context, rootID string) ([]models.ProgramCoach, error) {
	return r.list(func(p models.Program) bool {
		parent := p.ParentProgramID()
		return parent != nil && *parent == rootID
	}, byCreatedAsc), nil
}

func (r memPrograms) SetFamilyActive(_ context.Context, rootID string, active bool) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var rows int64
	for id, program := range r.m.state.programs {
		if program.CoalesceParentID() != rootID {
			continue
		}
		program.Active = active
		program.UpdatedAt = r.m.tick()
		r.m.state.programs[id] = program
		rows++
	}
	return rows, nil
}

func (r memPrograms) ListActiveWithCoach(_ context.Context, limit int) ([]models.ProgramCoach, error) {
	items := r.list(func(p models.Program) bool { return p.Active }, byCreatedAsc)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r memPrograms) ListByCoachWithCoach(_ context.Context, coachID string) ([]models.ProgramCoach, error) {
	return r.list(func(p models.Program) bool { return p.CoachID == coachID }, byName), nil
}

func (r memPrograms) ListEnrolledWithCoach(_ context.Context, memberID string) ([]models.ProgramCoach, error) {
	r.m.mu.Lock()
	enrolled := make(map[string]bool)
	for _, enrollment := range r.m.state.enrollments {
		if enrollment.MemberID == memberID {
			enrolled[enrollment.ProgramID] = true
		}
	}
	r.m.mu.Unlock()
	return r.list(func(p models.Program) bool { return enrolled[p.ID] }, byCreatedDesc), nil
}

func (r memPrograms) LockFamily(context.Context, string) error {
	return nil
}

type programOrder func(a, b models.Program) bool

func byCreatedAsc(a, b models.Program) bool  { return a.CreatedAt.Before(b.CreatedAt) }
func byCreatedDesc(a, b models.Program) bool { return a.CreatedAt.After(b.CreatedAt) }
func byName(a, b models.Program) bool        { return a.Name < b.Name }

func (r memPrograms) list(keep func(models.Program) bool, less programOrder) []models.ProgramCoach {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	programs := make([]models.Program, 0)
	for _, program := range r.m.state.programs {
		if keep(program) {
			programs = append(programs, program)
		}
	}
	sort.Slice(programs, func(i, j int) bool { return less(programs[i], programs[j]) })

	items := make([]models.ProgramCoach, 0, len(programs))
	for _, program := range programs {
		items = append(items, r.withCoach(program))
	}
	return items
}

type memEnrollments struct{ m *memStore }

func (r memEnrollments) Create(_ context.Context, enrollment *models.Enrollment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.state.enrollments {
		if existing.ProgramID == enrollment.ProgramID && existing.MemberID == enrollment.MemberID {
			return repository.ErrDuplicate
		}
	}
	now := r.m.tick()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	r.m.state.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r memEnrollments) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	enrollment, ok := r.m.state.enrollments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &enrollment, nil
}

func (r memEnrollments) GetByProgramAndMember(_ context.Context, programID, memberID string) (*models.Enrollment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, enrollment := range r.m.state.enrollments {
		if enrollment.ProgramID == programID && enrollment.MemberID == memberID {
			found := enrollment
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memEnrollments) FindInFamily(_ context.Context, rootID, memberID string) (*models.Enrollment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, enrollment := range r.m.state.enrollments {
		program := r.m.state.programs[enrollment.ProgramID]
		if enrollment.MemberID == memberID && program.CoalesceParentID() == rootID {
			found := enrollment
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memEnrollments) HasMemberHistoryInFamily(_ context.Context, rootID, userID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, enrollment := range r.m.state.enrollments {
		program := r.m.state.programs[enrollment.ProgramID]
		if enrollment.MemberID == userID && program.CoalesceParentID() == rootID && program.CoachID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEnrollments) MarkAsOld(_ context.Context, id string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	enrollment, ok := r.m.state.enrollments[id]
	if !ok {
		return 0, nil
	}
	enrollment.IsNew = false
	r.m.state.enrollments[id] = enrollment
	return 1, nil
}

func (r memEnrollments) ListMembers(_ context.Context, programID string, onlyNew bool) ([]models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	members := make([]models.Member, 0)
	for _, enrollment := range r.m.state.enrollments {
		if enrollment.ProgramID != programID || (onlyNew && !enrollment.IsNew) {
			continue
		}
		user := r.m.state.users[enrollment.MemberID]
		members = append(members, models.Member{
			EnrollmentID: enrollment.ID,
			UserID:       user.ID,
			FullName:     user.FullName,
			Email:        user.Email,
			IsNew:        enrollment.IsNew,
			EnrolledAt:   enrollment.CreatedAt,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].FullName < members[j].FullName })
	return members, nil
}

type memTasks struct{ m *memStore }

func (r memTasks) Create(_ context.Context, task *models.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.tick()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.m.state.tasks[task.ID] = *task
	return nil
}

func (r memTasks) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	task, ok := r.m.state.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &task, nil
}

// GetForUpdate relies on txMu for exclusion.
func (r memTasks) GetForUpdate(ctx context.Context, id string) (*models.Task, error) {
	return r.GetByID(ctx, id)
}

func (r memTasks) Update(_ context.Context, task *models.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failTaskUpdate != nil {
		return r.m.failTaskUpdate
	}
	if _, ok := r.m.state.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	task.UpdatedAt = r.m.tick()
	r.m.state.tasks[task.ID] = *task
	return nil
}

func (r memTasks) ListByEnrollment(_ context.Context, enrollmentID string) ([]models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tasks := make([]models.Task, 0)
	for _, task := range r.m.state.tasks {
		if task.EnrollmentID == enrollmentID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].EffectiveStart().Before(tasks[j].EffectiveStart()) })
	return tasks, nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, session *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.tick()
	session.CreatedAt = now
	session.UpdatedAt = now
	r.m.state.sessions[session.ID] = *session
	return nil
}

func (r memSessions) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	session, ok := r.m.state.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &session, nil
}

func (r memSessions) GetForUpdate(ctx context.Context, id string) (*models.Session, error) {
	return r.GetByID(ctx, id)
}

func (r memSessions) Update(_ context.Context, session *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.sessions[session.ID]; !ok {
		return pgx.ErrNoRows
	}
	session.UpdatedAt = r.m.tick()
	r.m.state.sessions[session.ID] = *session
	return nil
}

func (r memSessions) Delete(_ context.Context, id string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.sessions[id]; !ok {
		return 0, nil
	}
	delete(r.m.state.sessions, id)
	for key, participant := range r.m.state.members {
		if participant.SessionID == id {
			delete(r.m.state.members, key)
		}
	}
	for key, note := range r.m.state.notes {
		if note.SessionID == id {
			delete(r.m.state.notes, key)
		}
	}
	return 1, nil
}

func (r memSessions) ListByEnrollment(_ context.Context, enrollmentID string) ([]models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	sessions := make([]models.Session, 0)
	for _, session := range r.m.state.sessions {
		if session.EnrollmentID == enrollmentID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].EffectiveStart().Before(sessions[j].EffectiveStart())
	})
	return sessions, nil
}

type memParticipants struct{ m *memStore }

func (r memParticipants) Add(_ context.Context, participant *models.SessionParticipant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.state.members {
		if existing.SessionID == participant.SessionID && existing.UserID == participant.UserID {
			return repository.ErrDuplicate
		}
	}
	participant.CreatedAt = r.m.tick()
	r.m.state.members[participant.ID] = *participant
	return nil
}

func (r memParticipants) FindByUser(_ context.Context, sessionID, userID string) (*models.SessionParticipant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, participant := range r.m.state.members {
		if participant.SessionID == sessionID && participant.UserID == userID {
			return &participant, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memParticipants) ListBySession(_ context.Context, sessionID string) ([]models.SessionParticipant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	participants := make([]models.SessionParticipant, 0)
	for _, participant := range r.m.state.members {
		if participant.SessionID == sessionID {
			participants = append(participants, participant)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.UserType != b.UserType {
			return a.UserType == models.ParticipantCoach
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return participants, nil
}

type memNotes struct{ m *memStore }

func (r memNotes) Create(_ context.Context, note *models.SessionNote) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.tick()
	note.CreatedAt = now
	note.UpdatedAt = now
	r.m.state.notes[note.ID] = *note
	return nil
}

func (r memNotes) ListVisible(_ context.Context, sessionID, viewerID string) ([]models.SessionNote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	notes := make([]models.SessionNote, 0)
	for _, note := range r.m.state.notes {
		if note.SessionID == sessionID && (!note.IsPrivate || note.CreatedByID == viewerID) {
			notes = append(notes, note)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

type memObjectives struct{ m *memStore }

func (r memObjectives) Create(_ context.Context, objective *models.Objective) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := r.m.tick()
	objective.CreatedAt = now
	objective.UpdatedAt = now
	r.m.state.objectives[objective.ID] = *objective
	return nil
}

func (r memObjectives) GetByID(_ context.Context, id string) (*models.Objective, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	objective, ok := r.m.state.objectives[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &objective, nil
}

func (r memObjectives) Update(_ context.Context, objective *models.Objective) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.objectives[objective.ID]; !ok {
		return pgx.ErrNoRows
	}
	objective.UpdatedAt = r.m.tick()
	r.m.state.objectives[objective.ID] = *objective
	return nil
}

func (r memObjectives) ListByEnrollment(_ context.Context, enrollmentID string) ([]models.Objective, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	objectives := make([]models.Objective, 0)
	for _, objective := range r.m.state.objectives {
		if objective.EnrollmentID == enrollmentID {
			objectives = append(objectives, objective)
		}
	}
	sort.Slice(objectives, func(i, j int) bool {
		return objectives[i].EffectiveStart().Before(objectives[j].EffectiveStart())
	})
	return objectives, nil
}

type memMails struct{ m *memStore }

func (r memMails) Enqueue(_ context.Context, mail *models.MailOut) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failEnqueue != nil {
		return r.m.failEnqueue
	}

	header := *mail
	header.Recipients = nil
	r.m.state.mails = append(r.m.state.mails, header)
	stored := &r.m.state.mails[len(r.m.state.mails)-1]
	for i, recipient := range mail.Recipients {
		if r.m.failRecipient == i+1 {
			return errRecipientInsert
		}
		stored.Recipients = append(stored.Recipients, recipient)
	}
	return nil
}
