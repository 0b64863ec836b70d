package http

import (
	"context"
	"sync"

	"flashpack-service/internal/app"
)

// SignalBoard records which participants signalled "correct" while a card was
// up. It is the reaction-equivalent capture mechanism: the coordinator pulls
// (and drains) the signals once per tick, so late signals land on the next
// card instead of racing the advancement.
type SignalBoard struct {
	mu      sync.Mutex
	signals map[string]map[int]map[string]app.Signaler
}

func NewSignalBoard() *SignalBoard {
	return &SignalBoard{signals: make(map[string]map[int]map[string]app.Signaler)}
}

// Signal records or retracts a participant's correct-claim for a card.
func (b *SignalBoard) Signal(ownerID string, cardIndex int, sig app.Signaler, correct bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cards, ok := b.signals[ownerID]
	if !ok {
		if !correct {
			return
		}
		cards = make(map[int]map[string]app.Signaler)
		b.signals[ownerID] = cards
	}
	participants, ok := cards[cardIndex]
	if !ok {
		if !correct {
			return
		}
		participants = make(map[string]app.Signaler)
		cards[cardIndex] = participants
	}
	if correct {
		participants[sig.ParticipantID] = sig
	} else {
		delete(participants, sig.ParticipantID)
	}
}

// CollectOutcomes implements app.OutcomeCollector: it pops the card's signals.
func (b *SignalBoard) CollectOutcomes(_ context.Context, ownerID string, cardIndex int) ([]app.Signaler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	participants := b.signals[ownerID][cardIndex]
	delete(b.signals[ownerID], cardIndex)
	out := make([]app.Signaler, 0, len(participants))
	for _, sig := range participants {
		out = append(out, sig)
	}
	return out, nil
}

// Clear drops any leftover signals for an owner's ended session.
func (b *SignalBoard) Clear(ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.signals, ownerID)
}
