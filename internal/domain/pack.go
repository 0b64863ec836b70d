package domain

// Pack is shareable study material from the catalog: a named batch of card
// entries an owner can import into a deck of their own.
type Pack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Difficulty string      `json:"difficulty"`
	Entries    []CardEntry `json:"entries"`
}
