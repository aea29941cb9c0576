package saved

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/smoak-intel/prospector/internal/domain"
)

// Persister is the durable storage contract for the saved set.
type Persister interface {
	Load(ctx context.Context) []domain.Buyer
	Save(ctx context.Context, buyers []domain.Buyer) error
}

// Service owns the user-curated saved set. It is hydrated once at startup
// and flushed after every mutation. Membership is keyed by buyer name, the
// same identity the workspace dedup uses, so toggling twice with the same
// name restores the prior membership. Flush failures are logged and
// swallowed: saved data is a convenience, not data of record.
type Service struct {
	persister Persister
	logger    *zap.Logger

	mu     sync.Mutex
	buyers []domain.Buyer
}

// New creates an unhydrated saved-set service.
func New(persister Persister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{persister: persister, logger: logger}
}

// Hydrate loads the persisted set. Call once at startup before serving.
func (s *Service) Hydrate(ctx context.Context) {
	buyers := s.persister.Load(ctx)

	s.mu.Lock()
	s.buyers = buyers
	s.mu.Unlock()

	s.logger.Info("saved set hydrated", zap.Int("count", len(buyers)))
}

// Toggle flips membership for the buyer's name: present entries are removed,
// absent ones are appended. Returns true when the buyer is saved afterwards.
func (s *Service) Toggle(ctx context.Context, buyer domain.Buyer) bool {
	s.mu.Lock()

	exists := false
	for _, b := range s.buyers {
		if b.Name == buyer.Name {
			exists = true
			break
		}
	}

	if exists {
		kept := s.buyers[:0]
		for _, b := range s.buyers {
			if b.Name != buyer.Name {
				kept = append(kept, b)
			}
		}
		s.buyers = kept
	} else {
		s.buyers = append(s.buyers, buyer)
	}

	// Flush under the lock so rapid toggles persist in issue order.
	if err := s.persister.Save(ctx, s.buyers); err != nil {
		s.logger.Warn("failed to persist saved set", zap.Error(err))
	}
	s.mu.Unlock()

	return !exists
}

// List returns a copy of the saved set in insertion order.
func (s *Service) List() []domain.Buyer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Buyer, len(s.buyers))
	copy(out, s.buyers)
	return out
}

// IsSaved reports whether a buyer with the given name is in the saved set.
func (s *Service) IsSaved(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.buyers {
		if b.Name == name {
			return true
		}
	}
	return false
}
