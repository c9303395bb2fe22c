package correlator

import (
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

// Store is the alert repository surface the correlator needs: a
// windowed lookup by correlation_key and a single-alert upsert. The
// concrete store (in-memory fixture or a real database) lives outside
// this package; the correlator only depends on this narrow contract.
type Store interface {
	// FindActiveByKey returns the most recently seen alert with the
	// given correlation_key whose last_seen_utc is within the window,
	// or ok=false if none exists.
	FindActiveByKey(correlationKey string, windowStartUTC time.Time) (models.Alert, bool)
	Upsert(alert models.Alert) error
}
