// Package prospector embeds the buyer-discovery engine as a library:
// the same search workspace, saved set and CSV export the HTTP API
// serves, without running a server.
package prospector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/db"
	dbRedis "github.com/smoak-intel/prospector/internal/db/redis"
	"github.com/smoak-intel/prospector/internal/domain"
	"github.com/smoak-intel/prospector/internal/export"
	savedrepo "github.com/smoak-intel/prospector/internal/repository/saved"
	gateway "github.com/smoak-intel/prospector/internal/transport/openai"
	"github.com/smoak-intel/prospector/internal/usecase/prospect"
	saveduc "github.com/smoak-intel/prospector/internal/usecase/saved"
)

const defaultReadinessTimeout = 10 * time.Second

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver    string
	addrs     []string
	password  string
	keyPrefix string
	savedSlot string

	apiKey          string
	baseURL         string
	model           string
	exclusionWindow int
	timeout         time.Duration

	logger *zap.Logger
}

// WithRedis persists the saved set in Redis instead of process memory.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
		c.password = password
	}
}

// WithAPIKey sets the provider API key. Searches fail without one.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithExclusionWindow bounds how many recently seen names are sent to the
// provider as an exclusion hint on load-more.
func WithExclusionWindow(n int) Option {
	return func(c *clientConfig) { c.exclusionWindow = n }
}

// WithSavedSlot overrides the storage key the saved set is persisted under.
func WithSavedSlot(keyPrefix, slot string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = keyPrefix
		c.savedSlot = slot
	}
}

// WithTimeout bounds each provider round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithLogger sets the logger. Silent by default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// Client is the prospector library entry point.
type Client struct {
	store     db.Store
	workspace *prospect.Workspace
	saved     *saveduc.Service
}

// New creates a Client. The saved set lives in process memory unless
// WithRedis is given; the provided context covers store readiness and the
// saved-set hydration.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:    "memory",
		keyPrefix: "prospector:",
		savedSlot: "saved_partners",
		model:     "gpt-4o-mini",
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("prospector: store not ready: %w", err)
	}

	gw := gateway.NewGateway(&gateway.Config{
		APIKey:          cfg.apiKey,
		BaseURL:         cfg.baseURL,
		Model:           cfg.model,
		Provider:        "openai",
		ExclusionWindow: cfg.exclusionWindow,
		Timeout:         cfg.timeout,
		Logger:          cfg.logger,
	})

	savedSvc := saveduc.New(savedrepo.New(store, cfg.keyPrefix, cfg.savedSlot, cfg.logger), cfg.logger)
	savedSvc.Hydrate(ctx)

	return &Client{
		store:     store,
		workspace: prospect.NewWorkspace(gw, cfg.logger),
		saved:     savedSvc,
	}, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return db.NewMemoryStore(), nil
	case "redis":
		if len(cfg.addrs) == 0 {
			return nil, errors.New("prospector: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("prospector: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("prospector: unknown driver %q", cfg.driver)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks saved-set store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a new top-level search, replacing any accumulated results.
// Empty Diamond, Audience and Tier fall back to the broadest labels.
func (c *Client) Search(ctx context.Context, q Query) (Workspace, error) {
	query, err := toDomainQuery(q)
	if err != nil {
		return c.Workspace(), err
	}
	if err := c.workspace.Search(ctx, query); err != nil {
		return c.Workspace(), err
	}
	return c.Workspace(), nil
}

// LoadMore fetches the next batch for the last query and appends the buyers
// not already present. It returns the number added; without a prior search,
// or after a failure, it is a no-op.
func (c *Client) LoadMore(ctx context.Context) (int, error) {
	return c.workspace.LoadMore(ctx)
}

// Workspace returns a snapshot of the accumulated results.
func (c *Client) Workspace() Workspace {
	snap := c.workspace.Snapshot()
	return Workspace{
		State:         string(snap.State),
		View:          string(snap.View),
		Buyers:        buyersFromDomain(snap.Buyers),
		MarketInsight: snap.MarketInsight,
		LastError:     snap.LastError,
		HasSearched:   snap.HasSearched,
	}
}

// SetView switches the presentation view ("grid", "table" or "saved").
func (c *Client) SetView(view string) error {
	mode, err := domain.ParseViewMode(view)
	if err != nil {
		return err
	}
	c.workspace.SetView(mode)
	return nil
}

// ToggleSave adds the buyer to the saved set, or removes it when a buyer
// with the same name is already saved. It reports whether the buyer is
// saved after the call. Persistence failures are logged, never surfaced.
func (c *Client) ToggleSave(ctx context.Context, b Buyer) bool {
	return c.saved.Toggle(ctx, buyerToDomain(b))
}

// Saved returns the saved set in insertion order.
func (c *Client) Saved() []Buyer {
	return buyersFromDomain(c.saved.List())
}

// IsSaved reports whether a buyer with the given name is saved.
func (c *Client) IsSaved(name string) bool {
	return c.saved.IsSaved(name)
}

// ExportCSV writes the active list as CSV: the saved set when the saved
// view is selected, the accumulated results otherwise.
func (c *Client) ExportCSV(w io.Writer) error {
	snap := c.workspace.Snapshot()
	buyers := snap.Buyers
	if snap.View.ShowsSaved() {
		buyers = c.saved.List()
	}
	return export.WriteCSV(w, buyers)
}

func toDomainQuery(q Query) (domain.Query, error) {
	if q.Diamond == "" {
		q.Diamond = string(domain.DiamondNatural)
	}
	if q.Audience == "" {
		q.Audience = string(domain.BuyerAll)
	}
	if q.Tier == "" {
		q.Tier = string(domain.TierAny)
	}
	return domain.NewQuery(q.Diamond, q.Audience, q.Tier, q.Location, q.Keywords)
}
