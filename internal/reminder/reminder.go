// Package reminder drives the per-deck "time to study" timers that pace the
// spaced-repetition cycle.
package reminder

import (
	"log"
	"sync"
	"time"

	"flashpack-service/internal/app"
	"flashpack-service/internal/domain"
	"github.com/go-co-op/gocron"
)

// Service schedules one recurring gocron job per reminded deck. Each firing
// rolls the deck's round over (when the owner stalled mid-round) or
// reactivates a round parked at its last completion, then notifies the
// collaborator. Jobs wait a full period before the first run, so scheduling a
// reminder only arms the timer.
type Service struct {
	sched         *gocron.Scheduler
	study         *app.StudyService
	notifier      app.RoundNotifier
	defaultPeriod time.Duration

	mu   sync.Mutex
	jobs map[string]*gocron.Job
}

func NewService(study *app.StudyService, notifier app.RoundNotifier, defaultPeriod time.Duration) *Service {
	if notifier == nil {
		notifier = app.NopNotifier{}
	}
	if defaultPeriod <= 0 {
		defaultPeriod = 24 * time.Hour
	}
	return &Service{
		sched:         gocron.NewScheduler(time.UTC),
		study:         study,
		notifier:      notifier,
		defaultPeriod: defaultPeriod,
		jobs:          make(map[string]*gocron.Job),
	}
}

// Start runs the underlying scheduler without blocking.
func (s *Service) Start() {
	s.sched.StartAsync()
}

// Stop halts the scheduler and all reminder jobs.
func (s *Service) Stop() {
	s.sched.Stop()
}

// Schedule arms a recurring reminder for a deck. A zero period means the
// service default; a count of zero or less means unbounded repeats. Scheduling
// again for the same deck replaces the existing reminder.
func (s *Service) Schedule(ownerID, deckName string, period time.Duration, count int) error {
	if period == 0 {
		period = s.defaultPeriod
	}
	if period < 0 {
		return domain.ErrInvalidPeriod
	}
	// confirm the deck exists before arming a timer for it
	if _, err := s.study.Deck(ownerID, deckName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := jobKey(ownerID, deckName)
	if existing, ok := s.jobs[key]; ok {
		s.sched.RemoveByReference(existing)
		delete(s.jobs, key)
	}

	builder := s.sched.Every(period).WaitForSchedule()
	if count > 0 {
		builder = builder.LimitRunsTo(count)
	}
	job, err := builder.Do(func() { s.fire(ownerID, deckName) })
	if err != nil {
		return err
	}
	s.jobs[key] = job
	return nil
}

// Cancel removes a deck's reminder, if any. Idempotent.
func (s *Service) Cancel(ownerID, deckName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobKey(ownerID, deckName)
	if job, ok := s.jobs[key]; ok {
		s.sched.RemoveByReference(job)
		delete(s.jobs, key)
	}
}

// Scheduled reports whether a deck currently has a reminder armed.
func (s *Service) Scheduled(ownerID, deckName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[jobKey(ownerID, deckName)]
	return ok
}

func (s *Service) fire(ownerID, deckName string) {
	kind, payload, err := s.study.Remind(ownerID, deckName)
	if err != nil {
		// deck was deleted out from under the timer; stop reminding
		log.Printf("reminder for %s/%s cancelled: %v", ownerID, deckName, err)
		s.Cancel(ownerID, deckName)
		return
	}
	s.notify(ownerID, kind, payload)
}

// notify keeps collaborator panics from killing the timer.
func (s *Service) notify(ownerID string, kind app.EventKind, payload app.RoundEventPayload) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("reminder notifier panicked for owner %s: %v", ownerID, r)
		}
	}()
	s.notifier.RoundEvent(ownerID, kind, payload)
}

func jobKey(ownerID, deckName string) string {
	return ownerID + "/" + deckName
}
