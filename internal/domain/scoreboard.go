package domain

import "sort"

// Standing is one participant's final position on a scoreboard.
type Standing struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
	Rank          int    `json:"rank"`
}

// Scoreboard is the final ranking of a quiz session.
type Scoreboard struct {
	OwnerID  string     `json:"ownerId"`
	DeckName string     `json:"deckName"`
	Entries  []Standing `json:"entries"`
}

// BuildScoreboard ranks participants by score descending with dense ranks:
// equal scores share a rank, and the rank increments by one for the next
// distinct score. Ties are ordered by display name ascending so the result is
// stable regardless of insertion order.
func BuildScoreboard(ownerID, deckName string, scores map[string]int, names map[string]string) Scoreboard {
	entries := make([]Standing, 0, len(scores))
	for id, score := range scores {
		name := names[id]
		if name == "" {
			name = id
		}
		entries = append(entries, Standing{ParticipantID: id, DisplayName: name, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].DisplayName != entries[j].DisplayName {
			return entries[i].DisplayName < entries[j].DisplayName
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	rank := 0
	prev := -1
	for i := range entries {
		if entries[i].Score != prev {
			rank++
			prev = entries[i].Score
		}
		entries[i].Rank = rank
	}

	return Scoreboard{OwnerID: ownerID, DeckName: deckName, Entries: entries}
}
