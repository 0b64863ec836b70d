package domain

import "fmt"

// Error pairs a machine-readable reason code with a human-readable message.
// Collaborators render the message; programs switch on the code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	// ErrAlreadyRunning is returned when an owner starts a second quiz session.
	ErrAlreadyRunning = &Error{Code: "already_running", Message: "owner already has an active quiz session"}
	// ErrSessionNotFound is returned for ticks or exits on nonexistent sessions; callers treat it as a no-op.
	ErrSessionNotFound = &Error{Code: "session_not_found", Message: "no active quiz session for owner"}
	// ErrDeckNotFound is returned when an owner references a deck they never created.
	ErrDeckNotFound = &Error{Code: "deck_not_found", Message: "deck not found"}
	// ErrDeckExists is returned when creating a deck under a name already in use.
	ErrDeckExists = &Error{Code: "deck_exists", Message: "deck with that name already exists"}
	// ErrPackNotFound indicates the pack catalog has no pack under the requested id.
	ErrPackNotFound = &Error{Code: "pack_not_found", Message: "card pack not found"}
	// ErrEmptyDeck is returned when an operation needs at least one card.
	ErrEmptyDeck = &Error{Code: "empty_deck", Message: "deck has no cards"}
	// ErrCardOutOfRange is returned for indexes outside the deck or round.
	ErrCardOutOfRange = &Error{Code: "card_out_of_range", Message: "card index out of range"}
	// ErrRoundIncomplete is returned when advancing a round that still has unanswered cards.
	ErrRoundIncomplete = &Error{Code: "round_incomplete", Message: "round still has unanswered cards"}
	// ErrInvalidPeriod is returned for non-positive reminder periods.
	ErrInvalidPeriod = &Error{Code: "invalid_period", Message: "reminder period must be positive"}

	// Ingestion rejections, reported per entry rather than failing the batch.
	ErrMissingQuestion = &Error{Code: "missing_question", Message: "entry has no question"}
	ErrMissingAnswer   = &Error{Code: "missing_answer", Message: "entry has no answer"}
	ErrInvalidTier     = &Error{Code: "invalid_tier", Message: "entry tier must not be negative"}
)
