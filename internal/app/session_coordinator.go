package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"flashpack-service/internal/domain"
)

// SessionRegistry enforces the one-session-per-owner invariant. A claim that
// returns false means the owner already holds a session, possibly on another
// instance (Redis-backed registry).
type SessionRegistry interface {
	Claim(ownerID string) bool
	Release(ownerID string)
}

// IntervalPolicy bounds the per-card interval of multiplayer sessions.
// Out-of-range requests are clamped, not rejected.
type IntervalPolicy struct {
	Min     time.Duration
	Max     time.Duration
	Default time.Duration
}

// DefaultIntervalPolicy matches the reference behavior: 5s..60s, default 10s.
func DefaultIntervalPolicy() IntervalPolicy {
	return IntervalPolicy{Min: 5 * time.Second, Max: 60 * time.Second, Default: 10 * time.Second}
}

// Clamp normalizes a requested interval and reports whether it was adjusted.
func (p IntervalPolicy) Clamp(d time.Duration) (time.Duration, bool) {
	if d == 0 {
		return p.Default, false
	}
	if d < p.Min {
		return p.Min, true
	}
	if d > p.Max {
		return p.Max, true
	}
	return d, false
}

// Session is one running multiplayer quiz: a timer-driven walk over a deck
// snapshot collecting per-participant scores. Its fields are mutated only by
// its own run loop; readers go through the mutex.
type Session struct {
	OwnerID   string
	OwnerName string
	DeckName  string
	BoardID   string
	Interval  time.Duration

	cards []domain.Card

	mu        sync.Mutex
	scores    map[string]int
	names     map[string]string
	cardIndex int
	ticks     int

	exitOnce sync.Once
	exit     chan struct{}
	done     chan struct{}
}

// CardIndex returns the index of the card currently (or next) presented.
func (s *Session) CardIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardIndex
}

// Done is closed when the session's run loop has fully finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Scoreboard builds the session's current ranking.
func (s *Session) Scoreboard() domain.Scoreboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.BuildScoreboard(s.OwnerID, s.DeckName, s.scores, s.names)
}

func (s *Session) requestExit() {
	s.exitOnce.Do(func() { close(s.exit) })
}

func (s *Session) applySignals(signalers []Signaler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range signalers {
		s.scores[sig.ParticipantID]++
		if sig.DisplayName != "" {
			s.names[sig.ParticipantID] = sig.DisplayName
		}
	}
	s.ticks++
	if s.cardIndex < len(s.cards) {
		s.cardIndex++
	}
}

// SessionCoordinator manages the registry of live multiplayer sessions, one
// goroutine per session. Registry mutations are serialized behind its lock;
// sessions for different owners progress independently.
type SessionCoordinator struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	boards   map[string]string

	registry  SessionRegistry
	presenter CardPresenter
	collector OutcomeCollector
	notifier  RoundNotifier
	intervals IntervalPolicy
}

func NewSessionCoordinator(registry SessionRegistry, presenter CardPresenter, collector OutcomeCollector, notifier RoundNotifier, intervals IntervalPolicy) *SessionCoordinator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if intervals.Min == 0 && intervals.Max == 0 {
		intervals = DefaultIntervalPolicy()
	}
	return &SessionCoordinator{
		sessions:  make(map[string]*Session),
		boards:    make(map[string]string),
		registry:  registry,
		presenter: presenter,
		collector: collector,
		notifier:  notifier,
		intervals: intervals,
	}
}

// Start launches a multiplayer session over a full snapshot of the deck. The
// owner is seeded on the scoreboard at zero. Fails with ErrAlreadyRunning if
// the owner has a live session anywhere, with ErrEmptyDeck for empty decks.
func (c *SessionCoordinator) Start(ctx context.Context, ownerID, ownerName, boardID string, deck *domain.Deck, interval time.Duration) (*Session, error) {
	if len(deck.Cards) == 0 {
		return nil, domain.ErrEmptyDeck
	}

	interval, adjusted := c.intervals.Clamp(interval)
	if adjusted {
		log.Printf("quiz interval for owner %s clamped to %s", ownerID, interval)
	}

	c.mu.Lock()
	if _, ok := c.sessions[ownerID]; ok {
		c.mu.Unlock()
		return nil, domain.ErrAlreadyRunning
	}
	if !c.registry.Claim(ownerID) {
		c.mu.Unlock()
		return nil, domain.ErrAlreadyRunning
	}
	session := &Session{
		OwnerID:   ownerID,
		OwnerName: ownerName,
		DeckName:  deck.Name,
		BoardID:   boardID,
		Interval:  interval,
		cards:     deck.Snapshot(),
		scores:    map[string]int{ownerID: 0},
		names:     map[string]string{ownerID: ownerName},
		exit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.sessions[ownerID] = session
	if boardID != "" {
		c.boards[boardID] = ownerID
	}
	c.mu.Unlock()

	go c.run(ctx, session)
	return session, nil
}

// run is the per-session loop: present, wait, collect, advance. Cleanup is
// deferred so the registry is released even if a hook panics.
func (c *SessionCoordinator) run(ctx context.Context, s *Session) {
	defer close(s.done)
	defer c.Cleanup(s.OwnerID)

	for i := range s.cards {
		select {
		case <-s.exit:
			c.finish(s)
			return
		case <-ctx.Done():
			c.finish(s)
			return
		default:
		}

		if err := c.present(ctx, s, i); err != nil {
			log.Printf("presenting card %d for owner %s failed, ending session: %v", i, s.OwnerID, err)
			c.finish(s)
			return
		}

		exiting := false
		select {
		case <-time.After(s.Interval):
		case <-s.exit:
			exiting = true
		case <-ctx.Done():
			exiting = true
		}

		// Signals raised before the wait ended still count, even when the
		// wait was cut short by an exit request.
		signalers, err := c.collector.CollectOutcomes(ctx, s.OwnerID, i)
		if err != nil {
			log.Printf("collecting outcomes for owner %s card %d: %v", s.OwnerID, i, err)
		}
		s.applySignals(signalers)

		if exiting {
			break
		}
	}
	c.finish(s)
}

func (c *SessionCoordinator) present(ctx context.Context, s *Session, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("card presenter panicked: %v", r)
		}
	}()
	return c.presenter.PresentCard(ctx, s.OwnerID, s.cards[i], i+1, len(s.cards), true)
}

// finish emits the final ranking unless the session never completed a tick.
func (c *SessionCoordinator) finish(s *Session) {
	s.mu.Lock()
	ticks := s.ticks
	s.mu.Unlock()
	if ticks == 0 {
		return
	}
	board := s.Scoreboard()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("round notifier panicked for owner %s: %v", s.OwnerID, r)
		}
	}()
	c.notifier.RoundEvent(s.OwnerID, EventSessionEnded, RoundEventPayload{
		DeckName:   s.DeckName,
		CardCount:  len(s.cards),
		Scoreboard: &board,
	})
}

// Session returns the owner's live session, if any.
func (c *SessionCoordinator) Session(ownerID string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	session, ok := c.sessions[ownerID]
	return session, ok
}

// OwnerForBoard resolves a board identifier to the owner running on it.
func (c *SessionCoordinator) OwnerForBoard(boardID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ownerID, ok := c.boards[boardID]
	return ownerID, ok
}

// RequestExit asks the owner's session to stop at the next tick boundary. The
// outstanding interval wait is cancelled promptly. Missing sessions yield
// ErrSessionNotFound, which callers treat as a no-op.
func (c *SessionCoordinator) RequestExit(ownerID string) error {
	c.mu.RLock()
	session, ok := c.sessions[ownerID]
	c.mu.RUnlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.requestExit()
	return nil
}

// Cleanup removes the owner's session and board binding and releases the
// registry claim. It is idempotent and safe to call from any failure path.
func (c *SessionCoordinator) Cleanup(ownerID string) {
	c.mu.Lock()
	session, ok := c.sessions[ownerID]
	if ok {
		delete(c.sessions, ownerID)
		if session.BoardID != "" {
			delete(c.boards, session.BoardID)
		}
	}
	c.mu.Unlock()
	if ok {
		c.registry.Release(ownerID)
	}
}
