package prospect

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/domain"
)

// State is the workspace search lifecycle phase.
type State string

// Workspace states. Failed requires a new top-level search to recover;
// load-more stays disabled until then.
const (
	StateIdle        State = "idle"
	StateSearching   State = "searching"
	StateReady       State = "ready"
	StateLoadingMore State = "loading_more"
	StateFailed      State = "failed"
)

// ErrSearchInFlight signals a top-level search submitted while another one
// is still running.
var ErrSearchInFlight = errors.New("search already in flight")

// Workspace accumulates discovery results for the current query. It is the
// only mutator of the accumulated set: a new search replaces it, load-more
// appends deduplicated batches, and everything else only reads snapshots.
//
// Completions are tagged with the generation current when the call was
// issued. A generation mismatch on arrival means a newer search has reset
// the workspace; the stale completion is discarded entirely, success or
// failure alike. There is no hard cancellation of the underlying call.
type Workspace struct {
	gateway Gateway
	logger  *zap.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	buyers      []domain.Buyer
	insight     string
	lastQuery   *domain.Query
	lastErr     string
	view        domain.ViewMode
	hasSearched bool
}

// NewWorkspace creates an idle workspace in grid view.
func NewWorkspace(gateway Gateway, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		gateway: gateway,
		logger:  logger,
		state:   StateIdle,
		view:    domain.ViewGrid,
	}
}

// Snapshot is a read-only copy of the workspace for rendering and export.
type Snapshot struct {
	State         State
	View          domain.ViewMode
	Buyers        []domain.Buyer
	MarketInsight string
	LastError     string
	HasSearched   bool
}

// Search submits a new top-level query. The accumulated set and insight are
// cleared up front, so a failed search leaves the result set empty. Any
// in-flight load-more is invalidated by the generation bump and its eventual
// completion is discarded.
func (w *Workspace) Search(ctx context.Context, query domain.Query) error {
	w.mu.Lock()
	if w.state == StateSearching {
		w.mu.Unlock()
		return ErrSearchInFlight
	}

	w.generation++
	gen := w.generation
	w.state = StateSearching
	w.buyers = nil
	w.insight = ""
	w.lastErr = ""
	w.lastQuery = &query
	w.hasSearched = true
	if w.view.ShowsSaved() {
		w.view = domain.ViewGrid
	}
	w.mu.Unlock()

	resp, err := w.gateway.FindBuyers(ctx, query, nil)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug("discarding stale search completion", zap.Uint64("generation", gen))
		return nil
	}

	if err != nil {
		w.state = StateFailed
		w.lastErr = err.Error()
		return err
	}

	w.buyers = resp.Buyers
	w.insight = resp.MarketInsight
	w.state = StateReady

	w.logger.Info("search completed",
		zap.String("location", query.Location),
		zap.Int("buyers", len(resp.Buyers)),
	)
	return nil
}

// LoadMore fetches the next batch for the last query, excluding names seen
// so far. It is an idempotent no-op when there is no prior query, a call is
// already in flight, the saved view is active, or the last call failed.
//
// Returned buyers are filtered against the name snapshot taken when the call
// was issued, then appended in response order. The snapshot filter is the
// authoritative duplicate guard; the upstream exclusion hint is best-effort.
func (w *Workspace) LoadMore(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.lastQuery == nil || w.state == StateSearching ||
		w.state == StateLoadingMore || w.state == StateFailed || w.view.ShowsSaved() {
		state, view := w.state, w.view
		w.mu.Unlock()
		w.logger.Debug("load-more skipped",
			zap.String("state", string(state)),
			zap.String("view", string(view)),
		)
		return 0, nil
	}

	gen := w.generation
	query := *w.lastQuery
	seen := domain.Names(w.buyers)
	w.state = StateLoadingMore
	w.lastErr = ""
	w.mu.Unlock()

	resp, err := w.gateway.FindBuyers(ctx, query, seen)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug("discarding stale load-more completion", zap.Uint64("generation", gen))
		return 0, nil
	}

	if err != nil {
		w.state = StateFailed
		w.lastErr = err.Error()
		return 0, err
	}

	seenSet := make(map[string]struct{}, len(seen))
	for _, name := range seen {
		seenSet[name] = struct{}{}
	}

	added := 0
	for _, b := range resp.Buyers {
		if _, dup := seenSet[b.Name]; dup {
			continue
		}
		w.buyers = append(w.buyers, b)
		added++
	}
	w.state = StateReady

	w.logger.Info("load-more completed",
		zap.Int("returned", len(resp.Buyers)),
		zap.Int("added", added),
	)
	return added, nil
}

// SetView switches the presentation view mode.
func (w *Workspace) SetView(view domain.ViewMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = view
}

// View returns the current view mode.
func (w *Workspace) View() domain.ViewMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// Snapshot returns a copy of the current workspace for rendering.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	buyers := make([]domain.Buyer, len(w.buyers))
	copy(buyers, w.buyers)

	return Snapshot{
		State:         w.state,
		View:          w.view,
		Buyers:        buyers,
		MarketInsight: w.insight,
		LastError:     w.lastErr,
		HasSearched:   w.hasSearched,
	}
}
