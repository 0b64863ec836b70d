package memory

import (
	"testing"

	"flashpack-service/internal/domain"
)

func TestDeckStoreRoundTrip(t *testing.T) {
	store := NewDeckStore()

	deck := domain.NewDeck("u1", "d1", "", "")
	store.Put(deck)

	got, ok := store.Get("u1", "d1")
	if !ok || got != deck {
		t.Fatalf("get returned %v/%v", got, ok)
	}
	if _, ok := store.Get("u2", "d1"); ok {
		t.Fatal("deck visible to another owner")
	}

	if !store.Delete("u1", "d1") {
		t.Fatal("delete reported missing deck")
	}
	if store.Delete("u1", "d1") {
		t.Fatal("second delete should report missing")
	}
}

func TestDeckStoreListSortsByName(t *testing.T) {
	store := NewDeckStore()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		store.Put(domain.NewDeck("u1", name, "", ""))
	}
	store.Put(domain.NewDeck("u2", "other", "", ""))

	decks := store.List("u1")
	if len(decks) != 3 {
		t.Fatalf("expected 3 decks, got %d", len(decks))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, deck := range decks {
		if deck.Name != want[i] {
			t.Fatalf("list order %v", decks)
		}
	}

	if len(store.List("nobody")) != 0 {
		t.Fatal("expected empty list for unknown owner")
	}
}
