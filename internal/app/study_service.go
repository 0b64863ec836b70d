package app

import (
	"context"
	"log"
	"sync"

	"flashpack-service/internal/domain"
	"flashpack-service/internal/scheduler"
)

// DeckRepository abstracts how owner decks are stored (in-memory today).
type DeckRepository interface {
	Get(ownerID, name string) (*domain.Deck, bool)
	Put(deck *domain.Deck)
	Delete(ownerID, name string) bool
	List(ownerID string) []*domain.Deck
}

// PackCatalog loads shareable card packs (from cache/backing store).
type PackCatalog interface {
	GetPack(ctx context.Context, packID string) (domain.Pack, error)
}

// RejectedEntry reports one ingestion entry that could not become a card.
type RejectedEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestReport summarizes a batch ingestion: how many entries became cards and
// which were rejected, and why. Batches partially succeed.
type IngestReport struct {
	Accepted int             `json:"accepted"`
	Rejected []RejectedEntry `json:"rejected,omitempty"`
}

// StudyService owns the single-player study flow: deck lifecycle, card
// ingestion, answer recording, and round advancement. All deck mutation runs
// through its lock so the round view stays consistent with deck contents.
type StudyService struct {
	mu       sync.Mutex
	decks    DeckRepository
	packs    PackCatalog
	sched    *scheduler.Scheduler
	notifier RoundNotifier
}

func NewStudyService(decks DeckRepository, packs PackCatalog, sched *scheduler.Scheduler, notifier RoundNotifier) *StudyService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StudyService{decks: decks, packs: packs, sched: sched, notifier: notifier}
}

// Mastered reports whether every card in the deck has climbed past the
// highest tier the curriculum ever revisits.
func (s *StudyService) Mastered(ownerID, deckName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return false, domain.ErrDeckNotFound
	}
	return deck.Mastered(s.sched.Curriculum().MaxTier()), nil
}

// CreateDeck builds a new deck from a batch of entries. Malformed entries are
// rejected individually; the deck is created from the rest.
func (s *StudyService) CreateDeck(ownerID, name, category, difficulty string, entries []domain.CardEntry) (*domain.Deck, IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.decks.Get(ownerID, name); ok {
		return nil, IngestReport{}, domain.ErrDeckExists
	}

	deck := domain.NewDeck(ownerID, name, category, difficulty)
	report := ingest(deck, entries)
	s.sched.Rebuild(deck)
	s.decks.Put(deck)
	return deck, report, nil
}

// ImportPack copies a catalog pack into a new deck for the owner.
func (s *StudyService) ImportPack(ctx context.Context, ownerID, packID, deckName string) (*domain.Deck, IngestReport, error) {
	pack, err := s.packs.GetPack(ctx, packID)
	if err != nil {
		return nil, IngestReport{}, err
	}
	if deckName == "" {
		deckName = pack.Name
	}
	return s.CreateDeck(ownerID, deckName, pack.Category, pack.Difficulty, pack.Entries)
}

// AddCards appends entries to an existing deck and rebuilds its round.
func (s *StudyService) AddCards(ownerID, deckName string, entries []domain.CardEntry) (IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return IngestReport{}, domain.ErrDeckNotFound
	}
	report := ingest(deck, entries)
	s.sched.Rebuild(deck)
	return report, nil
}

// RemoveCard deletes the card at index i and rebuilds the round.
func (s *StudyService) RemoveCard(ownerID, deckName string, i int) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return domain.Card{}, domain.ErrDeckNotFound
	}
	card, err := deck.Remove(i)
	if err != nil {
		return domain.Card{}, err
	}
	s.sched.Rebuild(deck)
	return card, nil
}

// SliceDeck creates a detached deck from cards [from, to) of an existing one.
func (s *StudyService) SliceDeck(ownerID, srcName, dstName string, from, to int) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.decks.Get(ownerID, srcName)
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	if _, ok := s.decks.Get(ownerID, dstName); ok {
		return nil, domain.ErrDeckExists
	}
	deck, err := src.Slice(dstName, from, to)
	if err != nil {
		return nil, err
	}
	s.sched.Rebuild(deck)
	s.decks.Put(deck)
	return deck, nil
}

// Deck returns an owner's deck by name.
func (s *StudyService) Deck(ownerID, name string) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck, ok := s.decks.Get(ownerID, name)
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	return deck, nil
}

// Decks lists an owner's decks.
func (s *StudyService) Decks(ownerID string) []*domain.Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decks.List(ownerID)
}

// DeleteDeck removes a deck. Reminder timers and live sessions for it must be
// cancelled by the caller.
func (s *StudyService) DeleteDeck(ownerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.decks.Delete(ownerID, name) {
		return domain.ErrDeckNotFound
	}
	return nil
}

// RecordOutcome stores a participant's self-assessment for the card at round
// position pos. Calls after the round has completed are no-ops. Completing the
// last unanswered card rolls the deck over, parks the round inactive until the
// next reminder, and notifies the collaborator.
func (s *StudyService) RecordOutcome(ownerID, deckName string, pos int, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return domain.ErrDeckNotFound
	}
	if s.sched.Completed(deck) {
		return nil
	}
	card, err := deck.RoundCard(pos)
	if err != nil {
		return err
	}
	card.Outcome = outcome

	if outcome != domain.OutcomeUnanswered && s.sched.Completed(deck) {
		s.sched.Rollover(deck)
		deck.Round.Active = false
		s.notify(ownerID, EventRolledOver, s.roundPayload(deck))
	}
	return nil
}

// NextRound advances the deck to the next curriculum round. Unless forced, an
// incomplete round is refused, since rollover discards in-progress answers.
func (s *StudyService) NextRound(ownerID, deckName string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return domain.ErrDeckNotFound
	}
	if !force && !s.sched.Completed(deck) {
		return domain.ErrRoundIncomplete
	}
	s.sched.Rollover(deck)
	deck.Round.Active = true
	s.notify(ownerID, EventRolledOver, s.roundPayload(deck))
	return nil
}

// ResetDeck forces every card back to tier 1 and restarts the curriculum.
func (s *StudyService) ResetDeck(ownerID, deckName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return domain.ErrDeckNotFound
	}
	s.sched.ResetAll(deck)
	deck.Round.Active = true
	return nil
}

// Progress reports how many round members are still unanswered.
func (s *StudyService) Progress(ownerID, deckName string) (unanswered, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return 0, 0, domain.ErrDeckNotFound
	}
	return s.sched.Unanswered(deck), deck.Round.Size(), nil
}

// Remind applies the reminder-firing policy and returns the event to emit.
// A still-active round means the owner stalled: the round is rolled over even
// though incomplete, resetting stale unanswered cards into the next cycle. An
// inactive round was already rolled over at completion and only needs
// reactivating.
func (s *StudyService) Remind(ownerID, deckName string) (EventKind, RoundEventPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks.Get(ownerID, deckName)
	if !ok {
		return "", RoundEventPayload{}, domain.ErrDeckNotFound
	}

	kind := EventActivated
	if deck.Round.Active {
		s.sched.Rollover(deck)
		kind = EventRolledOver
	}
	deck.Round.Active = true
	return kind, s.roundPayload(deck), nil
}

func (s *StudyService) roundPayload(deck *domain.Deck) RoundEventPayload {
	return RoundEventPayload{
		DeckName:    deck.Name,
		RoundNumber: deck.TierIndex + 1,
		Tiers:       s.sched.TierSet(deck).String(),
		CardCount:   deck.Round.Size(),
		EmptyRound:  deck.Round.Size() == 0,
	}
}

// notify shields deck state transitions from collaborator hook panics.
func (s *StudyService) notify(ownerID string, kind EventKind, payload RoundEventPayload) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("round notifier panicked for owner %s: %v", ownerID, r)
		}
	}()
	s.notifier.RoundEvent(ownerID, kind, payload)
}

func ingest(deck *domain.Deck, entries []domain.CardEntry) IngestReport {
	report := IngestReport{}
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			reason := err.Error()
			if derr, ok := err.(*domain.Error); ok {
				reason = derr.Code
			}
			report.Rejected = append(report.Rejected, RejectedEntry{Index: i, Reason: reason})
			continue
		}
		tier := entry.Tier
		if tier == 0 {
			tier = 1
		}
		deck.Append(domain.NewCard(entry.Question, entry.Answer, tier))
		report.Accepted++
	}
	return report
}
