package scheduler

import (
	"math/rand"
	"sort"
	"testing"

	"flashpack-service/internal/domain"
)

func newTestScheduler() *Scheduler {
	return New(domain.DefaultCurriculum(), rand.New(rand.NewSource(1)))
}

func newTestDeck(tiers ...int) *domain.Deck {
	deck := domain.NewDeck("owner-1", "deck-1", "", "")
	for _, tier := range tiers {
		deck.Append(domain.NewCard("q", "a", tier))
	}
	return deck
}

func sortedMembers(deck *domain.Deck) []int {
	members := append([]int(nil), deck.Round.Members...)
	sort.Ints(members)
	return members
}

func TestNextTier(t *testing.T) {
	cases := []struct {
		tier    int
		outcome domain.Outcome
		want    int
	}{
		{1, domain.OutcomeCorrect, 2},
		{3, domain.OutcomeCorrect, 4},
		{1, domain.OutcomeIncorrect, 1},
		{2, domain.OutcomeIncorrect, 1},
		{5, domain.OutcomeIncorrect, 4},
		{2, domain.OutcomeUnanswered, 2},
	}
	for _, c := range cases {
		if got := NextTier(c.tier, c.outcome); got != c.want {
			t.Errorf("NextTier(%d, %s) = %d, want %d", c.tier, c.outcome, got, c.want)
		}
	}
}

func TestRebuildSelectsCurrentTierSet(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 2, 1)

	sched.Rebuild(deck)

	members := sortedMembers(deck)
	if len(members) != 2 || members[0] != 0 || members[1] != 2 {
		t.Fatalf("round 0 should hold the tier-1 cards {0, 2}, got %v", members)
	}
}

func TestRebuildMembershipProperty(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 2, 3, 4, 1, 2, 3, 1)
	curriculum := sched.Curriculum()

	for round := 0; round < len(curriculum); round++ {
		deck.TierIndex = round
		sched.Rebuild(deck)

		tiers := curriculum[round]
		inRound := make(map[int]bool)
		for _, i := range deck.Round.Members {
			inRound[i] = true
			if !tiers.Contains(deck.Cards[i].Tier) {
				t.Fatalf("round %d includes card %d at tier %d, not in %v", round, i, deck.Cards[i].Tier, tiers)
			}
		}
		for i := range deck.Cards {
			if !inRound[i] && tiers.Contains(deck.Cards[i].Tier) {
				t.Fatalf("round %d excludes card %d at tier %d despite set %v", round, i, deck.Cards[i].Tier, tiers)
			}
		}
	}
}

func TestRolloverTransitionsAndEmptyRound(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 2, 1)
	sched.Rebuild(deck)

	for i := range deck.Cards {
		deck.Cards[i].Outcome = domain.OutcomeCorrect
	}
	sched.Rollover(deck)

	want := []int{2, 3, 2}
	for i, tier := range want {
		if deck.Cards[i].Tier != tier {
			t.Errorf("card %d tier = %d, want %d", i, deck.Cards[i].Tier, tier)
		}
		if deck.Cards[i].Outcome != domain.OutcomeUnanswered {
			t.Errorf("card %d outcome not reset", i)
		}
	}
	if deck.TierIndex != 1 {
		t.Fatalf("tier index = %d, want 1", deck.TierIndex)
	}
	// Round 1 studies tier set {1}; every card climbed past it.
	if deck.Round.Size() != 0 {
		t.Fatalf("expected empty round, got members %v", deck.Round.Members)
	}
}

func TestRolloverFloorsTierAtOne(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 1)
	sched.Rebuild(deck)

	deck.Cards[0].Outcome = domain.OutcomeIncorrect
	deck.Cards[1].Outcome = domain.OutcomeUnanswered
	sched.Rollover(deck)

	if deck.Cards[0].Tier != 1 {
		t.Fatalf("incorrect answer at tier 1 must stay at 1, got %d", deck.Cards[0].Tier)
	}
	if deck.Cards[1].Tier != 1 {
		t.Fatalf("unanswered card changed tier to %d", deck.Cards[1].Tier)
	}
}

func TestRolloverTouchesAllCardsNotJustRoundMembers(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 2)
	sched.Rebuild(deck)

	// card 1 (tier 2) is outside round 0 but carries an outcome anyway
	deck.Cards[1].Outcome = domain.OutcomeCorrect
	sched.Rollover(deck)

	if deck.Cards[1].Tier != 3 {
		t.Fatalf("non-member card tier = %d, want 3", deck.Cards[1].Tier)
	}
}

func TestTierIndexCyclesWithCurriculumPeriod(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 1, 1)
	sched.Rebuild(deck)

	period := len(sched.Curriculum())
	for i := 0; i < period; i++ {
		sched.Rollover(deck)
	}
	if deck.TierIndex != 0 {
		t.Fatalf("tier index after %d rollovers = %d, want 0", period, deck.TierIndex)
	}
}

func TestCompletedAndUnanswered(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 1, 2)
	sched.Rebuild(deck)

	if sched.Completed(deck) {
		t.Fatal("fresh round should not be completed")
	}
	if got := sched.Unanswered(deck); got != 2 {
		t.Fatalf("unanswered = %d, want 2", got)
	}

	deck.Cards[0].Outcome = domain.OutcomeCorrect
	if got := sched.Unanswered(deck); got != 1 {
		t.Fatalf("unanswered = %d, want 1", got)
	}

	deck.Cards[1].Outcome = domain.OutcomeIncorrect
	if !sched.Completed(deck) {
		t.Fatal("round with every member answered should be completed")
	}
}

func TestResetAll(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(3, 4, 2)
	deck.TierIndex = 5
	deck.Cards[0].Outcome = domain.OutcomeCorrect
	sched.ResetAll(deck)

	for i := range deck.Cards {
		if deck.Cards[i].Tier != 1 || deck.Cards[i].Outcome != domain.OutcomeUnanswered {
			t.Fatalf("card %d not reset: %+v", i, deck.Cards[i])
		}
	}
	if deck.TierIndex != 0 {
		t.Fatalf("tier index = %d, want 0", deck.TierIndex)
	}
	if deck.Round.Size() != 3 {
		t.Fatalf("reset round should hold all cards, got %d", deck.Round.Size())
	}
}

func TestRebuildReshuffles(t *testing.T) {
	sched := newTestScheduler()
	deck := newTestDeck(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	orders := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sched.Rebuild(deck)
		key := ""
		for _, m := range deck.Round.Members {
			key += string(rune('a' + m))
		}
		orders[key] = true
	}
	if len(orders) < 2 {
		t.Fatal("rebuild never changed member order across 20 shuffles")
	}
}
