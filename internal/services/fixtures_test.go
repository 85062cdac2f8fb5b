package services

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
)

var fixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	delivered map[string][]models.MailOut
}

func (n *recordingNotifier) Notify(userID string, mail models.MailOut) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.delivered == nil {
		n.delivered = make(map[string][]models.MailOut)
	}
	n.delivered[userID] = append(n.delivered[userID], mail)
}

func (n *recordingNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered[userID])
}

type testEnv struct {
	store       *memStore
	notifier    *recordingNotifier
	programs    *ProgramService
	enrollments *EnrollmentService
	tasks       *TaskService
	sessions    *SessionService
	objectives  *ObjectiveService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	repos := store.repos()
	logger := zerolog.Nop()
	notifier := &recordingNotifier{}
	mailer := NewOutboxMailer(store, notifier)
	clock := func() time.Time { return fixedNow }
	mailer.now = clock

	tasks := NewTaskService(repos, store, logger)
	tasks.now = clock
	sessions := NewSessionService(repos, store, logger)
	sessions.now = clock
	objectives := NewObjectiveService(repos, logger)
	objectives.now = clock

	return &testEnv{
		store:       store,
		notifier:    notifier,
		programs:    NewProgramService(repos, store, logger, 10),
		enrollments: NewEnrollmentService(repos, store, mailer, logger),
		tasks:       tasks,
		sessions:    sessions,
		objectives:  objectives,
	}
}
