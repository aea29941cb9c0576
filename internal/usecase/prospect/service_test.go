package prospect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smoak-intel/prospector/internal/domain"
)

// --- Mocks ---

type mockGateway struct {
	mu       sync.Mutex
	findFn   func(query domain.Query, excludeNames []string) (domain.SearchResponse, error)
	calls    int
	lastExcl []string
}

func (m *mockGateway) FindBuyers(
	_ context.Context, query domain.Query, excludeNames []string,
) (domain.SearchResponse, error) {
	m.mu.Lock()
	m.calls++
	m.lastExcl = append([]string(nil), excludeNames...)
	fn := m.findFn
	m.mu.Unlock()
	return fn(query, excludeNames)
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockGateway) lastExclusions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastExcl
}

func buyersNamed(names ...string) []domain.Buyer {
	out := make([]domain.Buyer, len(names))
	for i, n := range names {
		out[i] = domain.Buyer{
			ID:          fmt.Sprintf("id-%s-%d", n, i),
			Name:        n,
			Location:    "Dubai, UAE",
			ContactInfo: "contact@example.com",
			Description: "buys stones",
		}
	}
	return out
}

func respWith(names ...string) domain.SearchResponse {
	return domain.SearchResponse{
		Buyers:        buyersNamed(names...),
		MarketInsight: "Demand is strong.",
	}
}

func dubaiQuery() domain.Query {
	return domain.Query{
		DiamondType: domain.DiamondNatural,
		BuyerType:   domain.BuyerWholesaler,
		MarketTier:  domain.TierCommercial,
		Location:    "Dubai, UAE",
		Keywords:    "Certified Lots",
	}
}

// --- Search ---

func TestSearch_PopulatesWorkspaceInReturnedOrder(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A", "B", "C", "D", "E", "F"), nil
	}}
	w := NewWorkspace(gw, nil)

	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := w.Snapshot()
	if snap.State != StateReady {
		t.Errorf("expected state ready, got %s", snap.State)
	}
	if len(snap.Buyers) != 6 {
		t.Fatalf("expected 6 buyers, got %d", len(snap.Buyers))
	}
	for i, want := range []string{"A", "B", "C", "D", "E", "F"} {
		if snap.Buyers[i].Name != want {
			t.Errorf("buyer %d: expected %q, got %q", i, want, snap.Buyers[i].Name)
		}
	}
	if snap.MarketInsight == "" {
		t.Error("expected market insight")
	}
	if len(gw.lastExclusions()) != 0 {
		t.Errorf("fresh search must carry no exclusions, got %v", gw.lastExclusions())
	}
}

func TestSearch_FailureClearsResultsAndRecordsError(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("Old"), nil
	}}
	w := NewWorkspace(gw, nil)

	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("seed search: %v", err)
	}

	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		return domain.SearchResponse{}, fmt.Errorf("boom: %w", domain.ErrProviderError)
	}
	gw.mu.Unlock()

	if err := w.Search(context.Background(), dubaiQuery()); err == nil {
		t.Fatal("expected error")
	}

	snap := w.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("expected state failed, got %s", snap.State)
	}
	if len(snap.Buyers) != 0 {
		t.Errorf("failed search must leave the freshly-cleared set empty, got %d", len(snap.Buyers))
	}
	if snap.MarketInsight != "" {
		t.Errorf("expected cleared insight, got %q", snap.MarketInsight)
	}
	if snap.LastError == "" {
		t.Error("expected recorded error")
	}
}

func TestSearch_ResetsSavedViewToGrid(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)
	w.SetView(domain.ViewSaved)

	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.View(); got != domain.ViewGrid {
		t.Errorf("expected grid view after search, got %s", got)
	}
}

// --- LoadMore ---

func TestLoadMore_FiltersDuplicatesAgainstSnapshot(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A", "B", "C"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	// Provider ignores the exclusion hint and repeats one existing name.
	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("B", "D", "E"), nil
	}
	gw.mu.Unlock()

	added, err := w.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("load more: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 added, got %d", added)
	}

	snap := w.Snapshot()
	names := domain.Names(snap.Buyers)
	want := []string{"A", "B", "C", "D", "E"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}

	// Dedup invariant: no two entries share a name.
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate name %q in accumulated set", n)
		}
		seen[n] = true
	}
}

func TestLoadMore_SendsAccumulatedNamesAsExclusions(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A", "B"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("C"), nil
	}
	gw.mu.Unlock()

	if _, err := w.LoadMore(context.Background()); err != nil {
		t.Fatalf("load more: %v", err)
	}

	excl := gw.lastExclusions()
	if len(excl) != 2 || excl[0] != "A" || excl[1] != "B" {
		t.Errorf("expected exclusions [A B], got %v", excl)
	}
}

func TestLoadMore_NoOpWithoutPriorQuery(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		t.Error("gateway must not be called")
		return domain.SearchResponse{}, nil
	}}
	w := NewWorkspace(gw, nil)

	added, err := w.LoadMore(context.Background())
	if err != nil || added != 0 {
		t.Errorf("expected silent no-op, got added=%d err=%v", added, err)
	}
}

func TestLoadMore_NoOpInSavedView(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}
	w.SetView(domain.ViewSaved)

	before := gw.callCount()
	added, err := w.LoadMore(context.Background())
	if err != nil || added != 0 {
		t.Errorf("expected no-op, got added=%d err=%v", added, err)
	}
	if gw.callCount() != before {
		t.Error("gateway called in saved view")
	}
}

func TestLoadMore_DisabledAfterFailureUntilNewSearch(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		return domain.SearchResponse{}, fmt.Errorf("down: %w", domain.ErrProviderError)
	}
	gw.mu.Unlock()

	if _, err := w.LoadMore(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	snap := w.Snapshot()
	if snap.State != StateFailed {
		t.Fatalf("expected failed state, got %s", snap.State)
	}
	if len(snap.Buyers) != 1 {
		t.Errorf("failed load-more must keep accumulated results, got %d", len(snap.Buyers))
	}

	// Subsequent triggers are silent no-ops until a new search succeeds.
	before := gw.callCount()
	if added, err := w.LoadMore(context.Background()); err != nil || added != 0 {
		t.Errorf("expected no-op while failed, got added=%d err=%v", added, err)
	}
	if gw.callCount() != before {
		t.Error("gateway called while in failed state")
	}

	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("B"), nil
	}
	gw.mu.Unlock()

	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("recovery search: %v", err)
	}
	if _, err := w.LoadMore(context.Background()); err != nil {
		t.Errorf("load-more should work again after recovery: %v", err)
	}
}

func TestLoadMore_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	gw.mu.Lock()
	gw.findFn = func(domain.Query, []string) (domain.SearchResponse, error) {
		close(started)
		<-release
		return respWith("B"), nil
	}
	gw.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := w.LoadMore(context.Background()); err != nil {
			t.Errorf("first load-more: %v", err)
		}
	}()
	<-started

	// Redundant scroll trigger while one is in flight: idempotent no-op.
	before := gw.callCount()
	if added, err := w.LoadMore(context.Background()); err != nil || added != 0 {
		t.Errorf("expected no-op, got added=%d err=%v", added, err)
	}
	if gw.callCount() != before {
		t.Error("second load-more reached the gateway")
	}

	close(release)
	<-done
}

func TestSearch_DiscardsStaleLoadMoreCompletion(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("Old One", "Old Two"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	// Load-more hangs until released.
	gw.mu.Lock()
	gw.findFn = func(_ domain.Query, excl []string) (domain.SearchResponse, error) {
		if len(excl) > 0 {
			close(started)
			<-release
			return respWith("Stale Result"), nil
		}
		return respWith("Fresh Result"), nil
	}
	gw.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		added, err := w.LoadMore(context.Background())
		if err != nil {
			t.Errorf("stale load-more should be discarded silently, got %v", err)
		}
		if added != 0 {
			t.Errorf("stale load-more appended %d results", added)
		}
	}()
	<-started

	// New search supersedes the in-flight load-more.
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("superseding search: %v", err)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("load-more did not complete")
	}

	snap := w.Snapshot()
	names := domain.Names(snap.Buyers)
	if len(names) != 1 || names[0] != "Fresh Result" {
		t.Errorf("stale completion leaked into workspace: %v", names)
	}
	if snap.State != StateReady {
		t.Errorf("expected ready state, got %s", snap.State)
	}
}

func TestSearch_RejectsConcurrentSearch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		close(started)
		<-release
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Search(context.Background(), dubaiQuery()); err != nil {
			t.Errorf("first search: %v", err)
		}
	}()
	<-started

	if err := w.Search(context.Background(), dubaiQuery()); !errors.Is(err, ErrSearchInFlight) {
		t.Errorf("expected ErrSearchInFlight, got %v", err)
	}

	close(release)
	<-done
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	gw := &mockGateway{findFn: func(domain.Query, []string) (domain.SearchResponse, error) {
		return respWith("A"), nil
	}}
	w := NewWorkspace(gw, nil)
	if err := w.Search(context.Background(), dubaiQuery()); err != nil {
		t.Fatalf("search: %v", err)
	}

	snap := w.Snapshot()
	snap.Buyers[0].Name = "Mutated"

	if w.Snapshot().Buyers[0].Name != "A" {
		t.Error("snapshot mutation leaked into workspace")
	}
}
