package app

import (
	"context"

	"flashpack-service/internal/domain"
)

// EventKind classifies round notifications sent to collaborators.
type EventKind string

const (
	EventRolledOver   EventKind = "rolled_over"
	EventActivated    EventKind = "activated"
	EventSessionEnded EventKind = "session_ended"
)

// RoundEventPayload describes a round transition for rendering. RoundNumber is
// 1-based; Tiers is the human-readable tier list for the new round; EmptyRound
// flags rounds with no members so collaborators can render a corrective hint.
type RoundEventPayload struct {
	DeckName    string             `json:"deckName"`
	RoundNumber int                `json:"roundNumber"`
	Tiers       string             `json:"tiers"`
	CardCount   int                `json:"cardCount"`
	EmptyRound  bool               `json:"emptyRound"`
	Scoreboard  *domain.Scoreboard `json:"scoreboard,omitempty"`
}

// CardPresenter renders one card per tick. The core never renders; it only
// tells the collaborator what to show and where in the sequence it falls.
type CardPresenter interface {
	PresentCard(ctx context.Context, ownerID string, card domain.Card, position, total int, multiplayer bool) error
}

// Signaler identifies a participant who signalled a correct answer during a
// card's interval.
type Signaler struct {
	ParticipantID string
	DisplayName   string
}

// OutcomeCollector is pulled once per tick to learn who signalled "correct"
// while the card was up. Pull keeps the coordinator's timing authoritative and
// avoids races with late-arriving signals.
type OutcomeCollector interface {
	CollectOutcomes(ctx context.Context, ownerID string, cardIndex int) ([]Signaler, error)
}

// RoundNotifier receives round lifecycle events. Implementations must not
// assume they run on any particular goroutine.
type RoundNotifier interface {
	RoundEvent(ownerID string, kind EventKind, payload RoundEventPayload)
}

// NopNotifier discards events; useful as a default and in tests.
type NopNotifier struct{}

func (NopNotifier) RoundEvent(string, EventKind, RoundEventPayload) {}
