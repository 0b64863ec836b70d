package memory

import (
	"sort"
	"sync"

	"flashpack-service/internal/domain"
)

// DeckStore is an in-memory implementation of app.DeckRepository, keyed by
// owner then deck name. Deck contents are guarded by the study service; this
// lock only protects the maps.
type DeckStore struct {
	mu    sync.RWMutex
	decks map[string]map[string]*domain.Deck
}

func NewDeckStore() *DeckStore {
	return &DeckStore{decks: make(map[string]map[string]*domain.Deck)}
}

func (s *DeckStore) Get(ownerID, name string) (*domain.Deck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deck, ok := s.decks[ownerID][name]
	return deck, ok
}

func (s *DeckStore) Put(deck *domain.Deck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned, ok := s.decks[deck.OwnerID]
	if !ok {
		owned = make(map[string]*domain.Deck)
		s.decks[deck.OwnerID] = owned
	}
	owned[deck.Name] = deck
}

func (s *DeckStore) Delete(ownerID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned, ok := s.decks[ownerID]
	if !ok {
		return false
	}
	if _, ok := owned[name]; !ok {
		return false
	}
	delete(owned, name)
	if len(owned) == 0 {
		delete(s.decks, ownerID)
	}
	return true
}

func (s *DeckStore) List(ownerID string) []*domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.decks[ownerID]
	out := make([]*domain.Deck, 0, len(owned))
	for _, deck := range owned {
		out = append(out, deck)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
