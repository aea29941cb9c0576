package saved

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smoak-intel/prospector/internal/domain"
)

type mockPersister struct {
	mu      sync.Mutex
	loaded  []domain.Buyer
	saves   [][]domain.Buyer
	saveErr error
}

func (m *mockPersister) Load(_ context.Context) []domain.Buyer {
	return m.loaded
}

func (m *mockPersister) Save(_ context.Context, buyers []domain.Buyer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]domain.Buyer, len(buyers))
	copy(snapshot, buyers)
	m.saves = append(m.saves, snapshot)
	return m.saveErr
}

func (m *mockPersister) lastSave() []domain.Buyer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

func abcDiamonds() domain.Buyer {
	return domain.Buyer{ID: "id-1", Name: "ABC Diamonds", Location: "Antwerp"}
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	p := &mockPersister{}
	s := New(p, nil)
	s.Hydrate(context.Background())

	if saved := s.Toggle(context.Background(), abcDiamonds()); !saved {
		t.Error("first toggle should save")
	}
	list := s.List()
	if len(list) != 1 || list[0].Name != "ABC Diamonds" {
		t.Fatalf("expected [ABC Diamonds], got %v", list)
	}

	if saved := s.Toggle(context.Background(), abcDiamonds()); saved {
		t.Error("second toggle should unsave")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
}

func TestToggle_IsItsOwnInverseByNameOnly(t *testing.T) {
	p := &mockPersister{}
	s := New(p, nil)
	s.Hydrate(context.Background())

	s.Toggle(context.Background(), abcDiamonds())

	// Same name, different ID: still the same entity.
	other := abcDiamonds()
	other.ID = "id-other"
	s.Toggle(context.Background(), other)

	if got := s.List(); len(got) != 0 {
		t.Errorf("membership by name not restored: %v", got)
	}
}

func TestToggle_PersistsEveryMutation(t *testing.T) {
	p := &mockPersister{}
	s := New(p, nil)
	s.Hydrate(context.Background())

	s.Toggle(context.Background(), abcDiamonds())
	s.Toggle(context.Background(), domain.Buyer{ID: "id-2", Name: "Gulf Hub"})

	if len(p.saves) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(p.saves))
	}
	last := p.lastSave()
	if len(last) != 2 || last[0].Name != "ABC Diamonds" || last[1].Name != "Gulf Hub" {
		t.Errorf("unexpected persisted state: %v", last)
	}
}

func TestToggle_PersistFailureIsSwallowed(t *testing.T) {
	p := &mockPersister{saveErr: errors.New("store down")}
	s := New(p, nil)
	s.Hydrate(context.Background())

	if saved := s.Toggle(context.Background(), abcDiamonds()); !saved {
		t.Error("toggle should succeed despite persistence failure")
	}
	if got := s.List(); len(got) != 1 {
		t.Errorf("in-memory set should keep the buyer, got %v", got)
	}
}

func TestHydrate_LoadsPersistedSet(t *testing.T) {
	p := &mockPersister{loaded: []domain.Buyer{abcDiamonds()}}
	s := New(p, nil)
	s.Hydrate(context.Background())

	if !s.IsSaved("ABC Diamonds") {
		t.Error("expected hydrated buyer to be saved")
	}
	if s.IsSaved("Unknown") {
		t.Error("unexpected membership")
	}
}

func TestToggle_PreservesInsertionOrder(t *testing.T) {
	p := &mockPersister{}
	s := New(p, nil)
	s.Hydrate(context.Background())

	names := []string{"First", "Second", "Third"}
	for i, n := range names {
		s.Toggle(context.Background(), domain.Buyer{ID: string(rune('a' + i)), Name: n})
	}
	s.Toggle(context.Background(), domain.Buyer{Name: "Second"})

	got := domain.Names(s.List())
	if len(got) != 2 || got[0] != "First" || got[1] != "Third" {
		t.Errorf("expected [First Third], got %v", got)
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	p := &mockPersister{}
	s := New(p, nil)
	s.Hydrate(context.Background())
	s.Toggle(context.Background(), abcDiamonds())

	list := s.List()
	list[0].Name = "Mutated"

	if s.List()[0].Name != "ABC Diamonds" {
		t.Error("returned list mutation leaked into service")
	}
}
