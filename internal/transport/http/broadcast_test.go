package http

import (
	"testing"

	"flashpack-service/internal/app"
)

func TestBroadcasterFanOut(t *testing.T) {
	bc := NewBroadcaster()
	first, cancelFirst := bc.Subscribe("u1")
	second, cancelSecond := bc.Subscribe("u1")
	other, cancelOther := bc.Subscribe("u2")
	defer cancelFirst()
	defer cancelSecond()
	defer cancelOther()

	bc.RoundEvent("u1", app.EventActivated, app.RoundEventPayload{DeckName: "d1"})

	for _, ch := range []<-chan outboundMessage[any]{first, second} {
		select {
		case msg := <-ch:
			if msg.Type != "roundEvent" {
				t.Fatalf("unexpected message type %s", msg.Type)
			}
		default:
			t.Fatal("subscriber missed the broadcast")
		}
	}
	select {
	case msg := <-other:
		t.Fatalf("u2 subscriber received u1 event: %+v", msg)
	default:
	}
}

func TestBroadcasterDropsOldestForSlowSubscribers(t *testing.T) {
	bc := NewBroadcaster()
	ch, cancel := bc.Subscribe("u1")
	defer cancel()

	// overflow the buffered channel; publish must not block
	for i := 0; i < 40; i++ {
		bc.RoundEvent("u1", app.EventActivated, app.RoundEventPayload{RoundNumber: i})
	}

	last := -1
	for {
		select {
		case msg := <-ch:
			last = msg.Payload.(roundEventPayload).RoundNumber
			continue
		default:
		}
		break
	}
	if last != 39 {
		t.Fatalf("newest event lost, last seen round %d", last)
	}
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	bc := NewBroadcaster()
	_, cancel := bc.Subscribe("u1")
	cancel()
	cancel()

	// publishing after the last subscriber left is a no-op
	bc.RoundEvent("u1", app.EventActivated, app.RoundEventPayload{})
}
