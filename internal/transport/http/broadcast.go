package http

import (
	"context"
	"sync"

	"flashpack-service/internal/app"
	"flashpack-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type cardPayload struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Position    int    `json:"position"`
	Total       int    `json:"total"`
	Multiplayer bool   `json:"multiplayer"`
}

type roundEventPayload struct {
	Kind string `json:"kind"`
	app.RoundEventPayload
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Broadcaster fans presentation and round events out to every connection
// watching an owner's board. It implements app.CardPresenter and
// app.RoundNotifier.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[chan outboundMessage[any]]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan outboundMessage[any]]struct{})}
}

// Subscribe returns a channel of events for an owner's board. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(ownerID string) (<-chan outboundMessage[any], func()) {
	ch := make(chan outboundMessage[any], 16)

	b.mu.Lock()
	watchers, ok := b.subs[ownerID]
	if !ok {
		watchers = make(map[chan outboundMessage[any]]struct{})
		b.subs[ownerID] = watchers
	}
	watchers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if watchers, ok := b.subs[ownerID]; ok {
			if _, ok := watchers[ch]; ok {
				delete(watchers, ch)
				close(ch)
			}
			if len(watchers) == 0 {
				delete(b.subs, ownerID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broadcaster) publish(ownerID string, msg outboundMessage[any]) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ownerID] {
		select {
		case ch <- msg:
		default:
			// drop the oldest update rather than let a slow client block
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
}

// PresentCard implements app.CardPresenter by broadcasting the card to the
// owner's board.
func (b *Broadcaster) PresentCard(_ context.Context, ownerID string, card domain.Card, position, total int, multiplayer bool) error {
	b.publish(ownerID, outboundMessage[any]{Type: "card", Payload: cardPayload{
		Question:    card.Question,
		Answer:      card.Answer,
		Position:    position,
		Total:       total,
		Multiplayer: multiplayer,
	}})
	return nil
}

// RoundEvent implements app.RoundNotifier.
func (b *Broadcaster) RoundEvent(ownerID string, kind app.EventKind, payload app.RoundEventPayload) {
	b.publish(ownerID, outboundMessage[any]{Type: "roundEvent", Payload: roundEventPayload{
		Kind:              string(kind),
		RoundEventPayload: payload,
	}})
}

// SessionNotifier decorates the broadcaster so ended sessions also drop any
// leftover signals from the board.
type SessionNotifier struct {
	bc    *Broadcaster
	board *SignalBoard
}

func NewSessionNotifier(bc *Broadcaster, board *SignalBoard) *SessionNotifier {
	return &SessionNotifier{bc: bc, board: board}
}

func (n *SessionNotifier) RoundEvent(ownerID string, kind app.EventKind, payload app.RoundEventPayload) {
	if kind == app.EventSessionEnded {
		n.board.Clear(ownerID)
	}
	n.bc.RoundEvent(ownerID, kind, payload)
}
