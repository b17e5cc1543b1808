package narrative

import (
	"time"

	"github.com/louisbranch/dramaturge/internal/platform/id"
)

// normalizeDeps fills in production defaults for the injected clock and id
// generator so callers only override them in tests.
func normalizeDeps(now func() time.Time, idGenerator func() (string, error)) (func() time.Time, func() (string, error)) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return now, idGenerator
}
