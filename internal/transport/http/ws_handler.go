package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"flashpack-service/internal/app"
	"flashpack-service/internal/domain"
	"flashpack-service/internal/reminder"
	"github.com/gorilla/websocket"
)

// WSHandler wires websocket connections into the study and session use cases.
// It is the reference collaborator: it renders nothing itself, it just moves
// structured events between clients and the core.
type WSHandler struct {
	study       *app.StudyService
	coordinator *app.SessionCoordinator
	reminders   *reminder.Service
	broadcaster *Broadcaster
	board       *SignalBoard
	upgrader    websocket.Upgrader
}

func NewWSHandler(study *app.StudyService, coordinator *app.SessionCoordinator, reminders *reminder.Service, broadcaster *Broadcaster, board *SignalBoard) *WSHandler {
	return &WSHandler{
		study:       study,
		coordinator: coordinator,
		reminders:   reminders,
		broadcaster: broadcaster,
		board:       board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	DeckName        string  `json:"deckName"`
	IntervalSeconds float64 `json:"intervalSeconds"`
}

type signalPayload struct {
	Correct bool `json:"correct"`
}

type createDeckPayload struct {
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	Difficulty string             `json:"difficulty"`
	Entries    []domain.CardEntry `json:"entries"`
}

type importPackPayload struct {
	PackID   string `json:"packId"`
	DeckName string `json:"deckName"`
}

type deckActionPayload struct {
	DeckName string `json:"deckName"`
}

type addCardsPayload struct {
	DeckName string             `json:"deckName"`
	Entries  []domain.CardEntry `json:"entries"`
}

type removeCardPayload struct {
	DeckName string `json:"deckName"`
	Index    int    `json:"index"`
}

type sliceDeckPayload struct {
	SrcName string `json:"srcName"`
	DstName string `json:"dstName"`
	From    int    `json:"from"`
	To      int    `json:"to"`
}

type nextRoundPayload struct {
	DeckName string `json:"deckName"`
	Force    bool   `json:"force"`
}

type deckSummary struct {
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	CardCount  int    `json:"cardCount"`
	RoundSize  int    `json:"roundSize"`
}

type answerPayload struct {
	DeckName string `json:"deckName"`
	Position int    `json:"position"`
	Correct  bool   `json:"correct"`
}

type remindPayload struct {
	DeckName      string  `json:"deckName"`
	PeriodSeconds float64 `json:"periodSeconds"`
	Count         int     `json:"count"`
}

// ServeWS upgrades HTTP requests to websockets. Clients connect to an owner's
// board; the owner may start a session, everyone may signal correct answers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if ownerID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing ownerId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.broadcaster.Subscribe(ownerID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- update:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: map[string]string{"ownerId": ownerID, "userId": userID}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can start a session")
				continue
			}
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid start payload")
				continue
			}
			deck, err := h.study.Deck(ownerID, payload.DeckName)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			interval := time.Duration(payload.IntervalSeconds * float64(time.Second))
			if _, err := h.coordinator.Start(r.Context(), ownerID, displayName, ownerID, deck, interval); err != nil {
				send <- errFromDomain(err)
				continue
			}

		case "signal":
			var payload signalPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid signal payload")
				continue
			}
			session, ok := h.coordinator.Session(ownerID)
			if !ok {
				send <- errFromDomain(domain.ErrSessionNotFound)
				continue
			}
			h.board.Signal(ownerID, session.CardIndex(), app.Signaler{
				ParticipantID: userID,
				DisplayName:   displayName,
			}, payload.Correct)

		case "exit":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can end a session")
				continue
			}
			// a missing session is a no-op, not an error worth reporting
			if err := h.coordinator.RequestExit(ownerID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				send <- errFromDomain(err)
			}

		case "createDeck":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload createDeckPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid createDeck payload")
				continue
			}
			_, report, err := h.study.CreateDeck(ownerID, payload.Name, payload.Category, payload.Difficulty, payload.Entries)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "deckCreated", Payload: report}

		case "importPack":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload importPackPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid importPack payload")
				continue
			}
			_, report, err := h.study.ImportPack(r.Context(), ownerID, payload.PackID, payload.DeckName)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "deckCreated", Payload: report}

		case "listDecks":
			summaries := []deckSummary{}
			for _, deck := range h.study.Decks(ownerID) {
				summaries = append(summaries, deckSummary{
					Name:       deck.Name,
					Category:   deck.Category,
					Difficulty: deck.Difficulty,
					CardCount:  len(deck.Cards),
					RoundSize:  deck.Round.Size(),
				})
			}
			send <- outboundMessage[any]{Type: "decks", Payload: summaries}

		case "addCards":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload addCardsPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid addCards payload")
				continue
			}
			report, err := h.study.AddCards(ownerID, payload.DeckName, payload.Entries)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "deckUpdated", Payload: report}

		case "removeCard":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload removeCardPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid removeCard payload")
				continue
			}
			card, err := h.study.RemoveCard(ownerID, payload.DeckName, payload.Index)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "cardRemoved", Payload: map[string]string{"question": card.Question}}

		case "sliceDeck":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload sliceDeckPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid sliceDeck payload")
				continue
			}
			deck, err := h.study.SliceDeck(ownerID, payload.SrcName, payload.DstName, payload.From, payload.To)
			if err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "deckCreated", Payload: app.IngestReport{Accepted: len(deck.Cards)}}

		case "nextRound":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can advance rounds")
				continue
			}
			var payload nextRoundPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid nextRound payload")
				continue
			}
			// the rolled_over event reaches the board via the notifier
			if err := h.study.NextRound(ownerID, payload.DeckName, payload.Force); err != nil {
				send <- errFromDomain(err)
			}

		case "resetDeck":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can reset decks")
				continue
			}
			var payload deckActionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid resetDeck payload")
				continue
			}
			if err := h.study.ResetDeck(ownerID, payload.DeckName); err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "deckReset", Payload: map[string]string{"deckName": payload.DeckName}}

		case "deleteDeck":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can manage decks")
				continue
			}
			var payload deckActionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid deleteDeck payload")
				continue
			}
			if err := h.study.DeleteDeck(ownerID, payload.DeckName); err != nil {
				send <- errFromDomain(err)
				continue
			}
			h.reminders.Cancel(ownerID, payload.DeckName)
			if session, ok := h.coordinator.Session(ownerID); ok && session.DeckName == payload.DeckName {
				_ = h.coordinator.RequestExit(ownerID)
			}
			send <- outboundMessage[any]{Type: "deckDeleted", Payload: map[string]string{"deckName": payload.DeckName}}

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid answer payload")
				continue
			}
			outcome := domain.OutcomeIncorrect
			if payload.Correct {
				outcome = domain.OutcomeCorrect
			}
			if err := h.study.RecordOutcome(ownerID, payload.DeckName, payload.Position, outcome); err != nil {
				send <- errFromDomain(err)
				continue
			}
			unanswered, total, err := h.study.Progress(ownerID, payload.DeckName)
			if err == nil {
				mastered, _ := h.study.Mastered(ownerID, payload.DeckName)
				send <- outboundMessage[any]{Type: "progress", Payload: map[string]any{
					"unanswered": unanswered,
					"total":      total,
					"mastered":   mastered,
				}}
			}

		case "remind":
			if userID != ownerID {
				send <- errMsg("not_owner", "only the owner can schedule reminders")
				continue
			}
			var payload remindPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("bad_payload", "invalid remind payload")
				continue
			}
			period := time.Duration(payload.PeriodSeconds * float64(time.Second))
			if err := h.reminders.Schedule(ownerID, payload.DeckName, period, payload.Count); err != nil {
				send <- errFromDomain(err)
				continue
			}
			send <- outboundMessage[any]{Type: "reminderScheduled", Payload: map[string]string{"deckName": payload.DeckName}}

		default:
			send <- errMsg("unsupported", "unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errMsg(code, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}

func errFromDomain(err error) outboundMessage[any] {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return errMsg(derr.Code, derr.Message)
	}
	return errMsg("internal", err.Error())
}
