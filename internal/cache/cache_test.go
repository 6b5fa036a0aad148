package cache

import (
	"sort"
	"testing"

	"stockops/internal/stock"
)

func sampleItems() []stock.Item {
	return []stock.Item{
		{ID: "p1", Kind: stock.KindProduct, Name: "Lamp", Category: "home", Quantity: 4, Available: true, UpdatedAt: 10},
		{ID: "d1", Kind: stock.KindDonation, Name: "Books", Category: "culture", Quantity: 1, Available: true, UpdatedAt: 20},
		{ID: "e1", Kind: stock.KindExchange, Name: "Bike", Category: "sport", Quantity: 1, Available: false, UpdatedAt: 30},
	}
}

func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	items := sampleItems()
	if err := s.ReplaceAll(items); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	got, ok := s.Get("d1")
	if !ok || got.Name != "Books" || got.Kind != stock.KindDonation {
		t.Fatalf("Get(d1) = %+v, %v", got, ok)
	}

	// Per-id patch with confirmed state.
	got.Available = false
	if err := s.Put(got); err != nil {
		t.Fatalf("Put: %v", err)
	}
	patched, _ := s.Get("d1")
	if patched.Available {
		t.Fatal("patch did not stick")
	}

	if err := s.Delete("e1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get("e1"); ok {
		t.Fatal("e1 should be gone")
	}

	var ids []string
	if err := s.Range(func(it stock.Item) error {
		ids = append(ids, it.ID)
		return nil
	}); err != nil {
		t.Fatalf("Range: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "d1" || ids[1] != "p1" {
		t.Fatalf("Range ids = %v", ids)
	}

	// A refresh replaces everything, stale ids included.
	if err := s.ReplaceAll(items[:1]); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len after replace = %d, want 1", s.Len())
	}
	if _, ok := s.Get("d1"); ok {
		t.Fatal("d1 should have been dropped by the replace")
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestPebbleStore(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestItems(t *testing.T) {
	s := NewMemory()
	if err := s.ReplaceAll(sampleItems()); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if got := Items(s); len(got) != 3 {
		t.Fatalf("Items returned %d, want 3", len(got))
	}
}
