package saved

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/db"
	"github.com/smoak-intel/prospector/internal/domain"
)

// store is the consumer interface for saved-set persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store persists the saved set as one JSON-serialized slot in the KV store.
// Saved data is a convenience, not data of record: Load swallows corruption
// and Save failures must be treated as best-effort by callers.
type Store struct {
	store  store
	slot   string
	logger *zap.Logger
}

// opTimeout bounds each KV round trip so a slow store never stalls the caller.
const opTimeout = 5 * time.Second

// New creates a saved-set store writing to keyPrefix+slot.
func New(s store, keyPrefix, slot string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{store: s, slot: keyPrefix + slot, logger: logger}
}

// Load reads the saved set. A missing slot or unreadable payload yields an
// empty slice, never an error.
func (s *Store) Load(ctx context.Context) []domain.Buyer {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := s.store.Get(ctx, s.slot)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("failed to load saved set", zap.String("slot", s.slot), zap.Error(err))
		}
		return []domain.Buyer{}
	}

	var buyers []domain.Buyer
	if err := json.Unmarshal(data, &buyers); err != nil {
		s.logger.Warn("discarding corrupt saved set", zap.String("slot", s.slot), zap.Error(err))
		return []domain.Buyer{}
	}
	if buyers == nil {
		buyers = []domain.Buyer{}
	}
	return buyers
}

// Save writes the saved set. Returns the underlying error so callers can log
// it, but persistence failures are never fatal.
func (s *Store) Save(ctx context.Context, buyers []domain.Buyer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(buyers)
	if err != nil {
		return fmt.Errorf("marshal saved set: %w", err)
	}
	if err := s.store.Set(ctx, s.slot, data); err != nil {
		return fmt.Errorf("write saved set: %w", err)
	}
	return nil
}
