// Package scheduler derives study rounds from decks and advances card
// proficiency when rounds roll over.
package scheduler

import (
	"math/rand"
	"time"

	"flashpack-service/internal/domain"
)

// NextTier is the proficiency transition applied to each card at rollover.
// Correct climbs one tier, incorrect drops one (floored at 1), unanswered
// stays put.
func NextTier(tier int, outcome domain.Outcome) int {
	switch outcome {
	case domain.OutcomeCorrect:
		return tier + 1
	case domain.OutcomeIncorrect:
		if tier <= 1 {
			return 1
		}
		return tier - 1
	default:
		return tier
	}
}

// Scheduler rebuilds rounds against a curriculum and owns the rollover
// transition. The shuffle source is injected so tests can pin ordering.
type Scheduler struct {
	curriculum domain.Curriculum
	rnd        *rand.Rand
}

// New creates a scheduler over the given curriculum. A nil rnd gets a
// time-seeded source.
func New(curriculum domain.Curriculum, rnd *rand.Rand) *Scheduler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{curriculum: curriculum, rnd: rnd}
}

// Curriculum returns the scheduler's curriculum.
func (s *Scheduler) Curriculum() domain.Curriculum {
	return s.curriculum
}

// TierSet returns the tier set for the deck's current curriculum position.
func (s *Scheduler) TierSet(deck *domain.Deck) domain.TierSet {
	return s.curriculum[deck.TierIndex]
}

// Rebuild recomputes the deck's round from scratch: member indexes are exactly
// the cards whose tier is in the current tier set, in a fresh uniform shuffle.
// Must run after every structural change; the round is never edited directly.
func (s *Scheduler) Rebuild(deck *domain.Deck) {
	tiers := s.curriculum[deck.TierIndex]
	members := deck.Round.Members[:0]
	for i := range deck.Cards {
		if tiers.Contains(deck.Cards[i].Tier) {
			members = append(members, i)
		}
	}
	s.rnd.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
	deck.Round.Members = members
}

// Completed reports whether every round member has been answered.
func (s *Scheduler) Completed(deck *domain.Deck) bool {
	for _, i := range deck.Round.Members {
		if deck.Cards[i].Outcome == domain.OutcomeUnanswered {
			return false
		}
	}
	return true
}

// Unanswered counts round members still awaiting an answer.
func (s *Scheduler) Unanswered(deck *domain.Deck) int {
	n := 0
	for _, i := range deck.Round.Members {
		if deck.Cards[i].Outcome == domain.OutcomeUnanswered {
			n++
		}
	}
	return n
}

// Rollover applies the proficiency transition to every card in the deck (not
// just round members), clears outcomes, advances the curriculum position with
// wraparound, and rebuilds the round. It is the sole tier-transition path.
// Rolling over an incomplete round discards in-progress answers; callers that
// care must check Completed first.
func (s *Scheduler) Rollover(deck *domain.Deck) {
	for i := range deck.Cards {
		card := &deck.Cards[i]
		if card.Outcome == domain.OutcomeUnanswered {
			continue
		}
		card.Tier = NextTier(card.Tier, card.Outcome)
		card.Outcome = domain.OutcomeUnanswered
	}
	deck.TierIndex = (deck.TierIndex + 1) % len(s.curriculum)
	s.Rebuild(deck)
}

// ResetAll forces every card back to tier 1 and the deck to the start of the
// curriculum, then rebuilds.
func (s *Scheduler) ResetAll(deck *domain.Deck) {
	for i := range deck.Cards {
		deck.Cards[i].Tier = 1
		deck.Cards[i].Outcome = domain.OutcomeUnanswered
	}
	deck.TierIndex = 0
	s.Rebuild(deck)
}
