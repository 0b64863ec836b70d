package reminder

import (
	"math/rand"
	"testing"
	"time"

	"flashpack-service/internal/app"
	"flashpack-service/internal/domain"
	"flashpack-service/internal/infra/memory"
	"flashpack-service/internal/scheduler"
)

type recordingNotifier struct {
	events chan app.EventKind
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan app.EventKind, 16)}
}

func (n *recordingNotifier) RoundEvent(_ string, kind app.EventKind, _ app.RoundEventPayload) {
	n.events <- kind
}

func (n *recordingNotifier) wait(t *testing.T) app.EventKind {
	t.Helper()
	select {
	case kind := <-n.events:
		return kind
	case <-time.After(5 * time.Second):
		t.Fatal("no reminder fired in time")
		return ""
	}
}

func newTestStudy(notifier app.RoundNotifier) *app.StudyService {
	sched := scheduler.New(domain.DefaultCurriculum(), rand.New(rand.NewSource(1)))
	catalog := memory.NewPackCatalog(memory.NewStaticPackLoader(nil), time.Minute)
	return app.NewStudyService(memory.NewDeckStore(), catalog, sched, notifier)
}

func TestScheduleValidatesInput(t *testing.T) {
	study := newTestStudy(nil)
	if _, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("create deck: %v", err)
	}
	service := NewService(study, nil, time.Hour)

	if err := service.Schedule("u1", "d1", -time.Minute, 0); err != domain.ErrInvalidPeriod {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if err := service.Schedule("u1", "missing", time.Hour, 0); err != domain.ErrDeckNotFound {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}

	// zero means the service default period
	if err := service.Schedule("u1", "d1", 0, 0); err != nil {
		t.Fatalf("schedule with default period: %v", err)
	}
	if !service.Scheduled("u1", "d1") {
		t.Fatal("default-period reminder not armed")
	}
}

func TestReminderFiresAndRollsOver(t *testing.T) {
	notifier := newRecordingNotifier()
	study := newTestStudy(nil)
	deck, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}

	service := NewService(study, notifier, time.Hour)
	service.Start()
	defer service.Stop()

	if err := service.Schedule("u1", "d1", 50*time.Millisecond, 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !service.Scheduled("u1", "d1") {
		t.Fatal("reminder not armed")
	}

	// the round was active and untouched, so the firing forces a rollover
	if kind := notifier.wait(t); kind != app.EventRolledOver {
		t.Fatalf("kind = %s, want rolled_over", kind)
	}
	if deck.TierIndex != 1 {
		t.Fatalf("tier index = %d, want 1", deck.TierIndex)
	}
	if !deck.Round.Active {
		t.Fatal("firing must leave the round active")
	}
}

func TestReminderReactivatesParkedRound(t *testing.T) {
	notifier := newRecordingNotifier()
	study := newTestStudy(nil)
	deck, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{
		{Question: "q1", Answer: "a1"},
	})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	deck.Round.Active = false
	tierIndexBefore := deck.TierIndex

	service := NewService(study, notifier, time.Hour)
	service.Start()
	defer service.Stop()

	if err := service.Schedule("u1", "d1", 50*time.Millisecond, 1); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if kind := notifier.wait(t); kind != app.EventActivated {
		t.Fatalf("kind = %s, want activated", kind)
	}
	if deck.TierIndex != tierIndexBefore {
		t.Fatal("activation must not advance the curriculum")
	}
	if !deck.Round.Active {
		t.Fatal("round should be active after the reminder")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	study := newTestStudy(nil)
	if _, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("create deck: %v", err)
	}

	service := NewService(study, nil, time.Hour)
	if err := service.Schedule("u1", "d1", time.Hour, 0); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	service.Cancel("u1", "d1")
	if service.Scheduled("u1", "d1") {
		t.Fatal("reminder still armed after cancel")
	}
	service.Cancel("u1", "d1")
	service.Cancel("u1", "never-scheduled")
}

func TestRescheduleReplacesExistingJob(t *testing.T) {
	study := newTestStudy(nil)
	if _, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("create deck: %v", err)
	}

	service := NewService(study, nil, time.Hour)
	if err := service.Schedule("u1", "d1", time.Hour, 0); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := service.Schedule("u1", "d1", 2*time.Hour, 0); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	service.mu.Lock()
	jobs := len(service.jobs)
	service.mu.Unlock()
	if jobs != 1 {
		t.Fatalf("expected a single job after reschedule, got %d", jobs)
	}
}

func TestReminderSelfCancelsWhenDeckVanishes(t *testing.T) {
	study := newTestStudy(nil)
	if _, _, err := study.CreateDeck("u1", "d1", "", "", []domain.CardEntry{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("create deck: %v", err)
	}

	service := NewService(study, nil, time.Hour)
	service.Start()
	defer service.Stop()

	if err := service.Schedule("u1", "d1", 50*time.Millisecond, 0); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := study.DeleteDeck("u1", "d1"); err != nil {
		t.Fatalf("delete deck: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for service.Scheduled("u1", "d1") {
		select {
		case <-deadline:
			t.Fatal("reminder never cancelled itself after deck deletion")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
