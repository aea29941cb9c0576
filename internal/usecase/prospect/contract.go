package prospect

import (
	"context"

	"github.com/smoak-intel/prospector/internal/domain"
)

// Gateway runs one discovery call against the search provider. The exclusion
// list is an advisory hint only; returned buyers may still repeat names the
// caller has already seen.
type Gateway interface {
	FindBuyers(ctx context.Context, query domain.Query, excludeNames []string) (domain.SearchResponse, error)
}
