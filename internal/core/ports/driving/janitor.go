package driving

import (
	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

// JanitorService removes cache entries that can no longer serve any
// lookup.
type JanitorService interface {
	// Sweep walks the size-class directories and removes dead entries,
	// returning what was (or would be) removed.
	Sweep(opts domain.SweepOptions) (domain.SweepReport, error)
}
