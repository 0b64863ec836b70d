package domain

// Round is the working subset of a deck for the current curriculum position.
// It is a derived view: Members holds indexes into the deck's cards, rebuilt
// (and reshuffled) on every structural change, never edited in place.
type Round struct {
	Members []int
	Active  bool
}

// Size returns the number of cards in the round.
func (r Round) Size() int {
	return len(r.Members)
}

// Deck is an owner's ordered collection of cards plus its round state.
// A deck is mutated only by its owning control flow; the app layer keeps the
// round consistent by rebuilding it after every structural change.
type Deck struct {
	OwnerID    string
	Name       string
	Category   string
	Difficulty string
	Cards      []Card
	TierIndex  int
	Round      Round
}

// NewDeck creates an empty deck with an active, empty round.
func NewDeck(ownerID, name, category, difficulty string) *Deck {
	return &Deck{
		OwnerID:    ownerID,
		Name:       name,
		Category:   category,
		Difficulty: difficulty,
		Round:      Round{Active: true},
	}
}

// Append adds a card to the end of the deck. Callers must rebuild the round.
func (d *Deck) Append(card Card) {
	d.Cards = append(d.Cards, card)
}

// Remove deletes the card at index i and returns it. Callers must rebuild the
// round.
func (d *Deck) Remove(i int) (Card, error) {
	if i < 0 || i >= len(d.Cards) {
		return Card{}, ErrCardOutOfRange
	}
	card := d.Cards[i]
	d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
	return card, nil
}

// Slice returns a detached deck holding copies of cards [from, to), sharing
// the source deck's metadata under a new name. Proficiency state carries over;
// round state starts fresh.
func (d *Deck) Slice(name string, from, to int) (*Deck, error) {
	if from < 0 || to > len(d.Cards) || from > to {
		return nil, ErrCardOutOfRange
	}
	out := NewDeck(d.OwnerID, name, d.Category, d.Difficulty)
	out.Cards = append(out.Cards, d.Cards[from:to]...)
	return out, nil
}

// RoundCard returns the card at round position pos (an index into
// Round.Members, not into Cards).
func (d *Deck) RoundCard(pos int) (*Card, error) {
	if pos < 0 || pos >= len(d.Round.Members) {
		return nil, ErrCardOutOfRange
	}
	return &d.Cards[d.Round.Members[pos]], nil
}

// Mastered reports whether every card has climbed past maxTier, i.e. past the
// highest tier the curriculum ever revisits.
func (d *Deck) Mastered(maxTier int) bool {
	for i := range d.Cards {
		if d.Cards[i].Tier <= maxTier {
			return false
		}
	}
	return len(d.Cards) > 0
}

// Snapshot returns copies of all cards with outcomes cleared. Multiplayer
// sessions iterate the full deck once, independent of proficiency tiers.
func (d *Deck) Snapshot() []Card {
	out := make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		c.Outcome = OutcomeUnanswered
		out[i] = c
	}
	return out
}
