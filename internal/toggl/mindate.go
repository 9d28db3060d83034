package toggl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// defaultHistoricalDays is how far back the provider normally allows
// queries; used to compute a fallback floor when no probe has run.
const defaultHistoricalDays = 90

// minDateTTL is how long a cached floor stays fresh.
const minDateTTL = 24 * time.Hour

// MinDateStore persists the provider's minimum queryable date alongside
// the time it was last refreshed. A zero date means nothing is cached.
type MinDateStore interface {
	GetMinDate() (date time.Time, refreshedAt time.Time, err error)
	SetMinDate(date time.Time, refreshedAt time.Time) error
}

// RangeProber issues a minimal entries request for the given span,
// returning the provider's verdict. Implemented by Client.
type RangeProber interface {
	ProbeRange(ctx context.Context, token string, start, end time.Time) error
}

// MinDateCache tracks the provider's minimum queryable date. The floor
// moves forward daily (the provider keeps a rolling retention window), so
// cached values go stale after 24 hours and are then re-derived, either
// by probing the API or by recomputing today minus the retention window.
type MinDateCache struct {
	store MinDateStore
	clock Clock
}

// NewMinDateCache creates a cache over the given persistent store.
func NewMinDateCache(store MinDateStore, clock Clock) *MinDateCache {
	if clock == nil {
		clock = RealClock{}
	}
	return &MinDateCache{store: store, clock: clock}
}

// Get returns the current floor. A fresh cached value is returned as-is;
// otherwise the fallback (today minus the retention window) is returned
// without touching the network. Errors reading the store degrade to the
// fallback, never block a sync.
func (c *MinDateCache) Get() time.Time {
	date, refreshedAt, err := c.store.GetMinDate()
	if err == nil && !date.IsZero() && c.clock.Now().Sub(refreshedAt) < minDateTTL {
		return date
	}
	return c.fallback()
}

// IsStale reports whether the cached floor is missing or older than 24h.
func (c *MinDateCache) IsStale() bool {
	date, refreshedAt, err := c.store.GetMinDate()
	if err != nil || date.IsZero() {
		return true
	}
	return c.clock.Now().Sub(refreshedAt) >= minDateTTL
}

// Refresh probes the provider with the computed fallback floor and caches
// the result. When the provider rejects the probe as too early, the floor
// it names in the rejection is adopted instead.
func (c *MinDateCache) Refresh(ctx context.Context, prober RangeProber, token string) (time.Time, error) {
	floor := c.fallback()

	err := prober.ProbeRange(ctx, token, floor, truncateDay(c.clock.Now()))
	if err != nil {
		var rej *DateRangeRejectedError
		if errors.As(err, &rej) && !rej.MinDate.IsZero() {
			floor = rej.MinDate
		} else {
			return time.Time{}, fmt.Errorf("probing minimum date: %w", err)
		}
	}

	if err := c.store.SetMinDate(floor, c.clock.Now()); err != nil {
		return time.Time{}, fmt.Errorf("caching minimum date: %w", err)
	}
	return floor, nil
}

// Observe records a floor learned from an ordinary fetch rejection,
// so later clamping picks it up without a dedicated probe.
func (c *MinDateCache) Observe(date time.Time) {
	if date.IsZero() {
		return
	}
	// Best effort; a failed write just means a redundant rejection later.
	_ = c.store.SetMinDate(date, c.clock.Now())
}

func (c *MinDateCache) fallback() time.Time {
	return truncateDay(c.clock.Now()).AddDate(0, 0, -defaultHistoricalDays)
}
