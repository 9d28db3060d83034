package toggl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"horas/internal/model"
)

// EntryFetcher retrieves all entries for one date span. Implemented by
// Client; stubbed in tests.
type EntryFetcher interface {
	FetchEntries(ctx context.Context, token string, start, end time.Time) ([]model.TimeEntry, error)
}

// chunkDelay is the politeness pause between successive chunk fetches,
// to avoid bursting the quota. Not a correctness requirement.
const chunkDelay = 100 * time.Millisecond

// ChunkFailure records one chunk that could not be fetched after all
// retries were exhausted.
type ChunkFailure struct {
	Range DateRange
	Err   error
}

// FetchResult is the outcome of a range fetch. Entries from successfully
// fetched chunks are always present, even when some chunks failed.
type FetchResult struct {
	Entries []model.TimeEntry
	Failed  []ChunkFailure
}

// Partial reports whether some chunks failed while others succeeded.
func (r *FetchResult) Partial() bool { return len(r.Failed) > 0 }

// SyncClient fetches an arbitrary date range from the provider while
// honoring its constraints: it consults the limit tracker before making
// any call, clamps the range to the minimum queryable date, splits the
// range into provider-legal chunks, and retries throttled chunks with
// exponential backoff. A chunk that keeps failing is given up on alone;
// the rest of the range is still returned.
type SyncClient struct {
	fetcher  EntryFetcher
	tracker  *LimitTracker
	minDates *MinDateCache
	clock    Clock
	sleeper  Sleeper
	logger   Logger

	maxSpanDays int
	maxRetries  int
}

// NewSyncClient composes a retrying sync client. tracker and minDates are
// required; clock, sleeper and logger default to real implementations.
func NewSyncClient(fetcher EntryFetcher, tracker *LimitTracker, minDates *MinDateCache, clock Clock, sleeper Sleeper, logger Logger, maxSpanDays, maxRetries int) *SyncClient {
	if clock == nil {
		clock = RealClock{}
	}
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	if maxSpanDays < 1 {
		maxSpanDays = defaultHistoricalDays
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &SyncClient{
		fetcher:     fetcher,
		tracker:     tracker,
		minDates:    minDates,
		clock:       clock,
		sleeper:     sleeper,
		logger:      logger,
		maxSpanDays: maxSpanDays,
		maxRetries:  maxRetries,
	}
}

// FetchRange retrieves all entries for the identity behind token between
// start and end, filtered to workspaceID (0 keeps all workspaces).
//
// If the identity quota is already known to be throttled, FetchRange
// fails with a ThrottledError before any network call. Otherwise it
// returns a FetchResult whose Failed slice names any chunks that could
// not be fetched; entries from other chunks are preserved.
//
// The combined result is deduplicated by entry id across chunks and sorted
// by start time. Ids are globally unique per account, so a duplicate can
// only mean chunk-boundary overlap; the later chunk's copy wins, and
// durations are never summed.
func (s *SyncClient) FetchRange(ctx context.Context, token string, workspaceID int64, start, end time.Time) (*FetchResult, error) {
	throttled, err := s.tracker.IsThrottled(ScopeIdentity)
	if err != nil {
		return nil, err
	}
	if throttled {
		wait, err := s.tracker.TimeUntilReset(ScopeIdentity)
		if err != nil {
			return nil, err
		}
		return nil, &ThrottledError{Scope: ScopeIdentity, RetryAfter: wait}
	}

	// Clamp to the provider's minimum queryable date rather than failing.
	if s.minDates != nil {
		if prober, ok := s.fetcher.(RangeProber); ok && s.minDates.IsStale() {
			// Best effort: a failed probe leaves the computed fallback in place.
			if _, err := s.minDates.Refresh(ctx, prober, token); err != nil {
				s.logger.Debug("minimum date refresh failed", "error", err)
			}
		}
		start = ClampStart(start, s.minDates.Get())
	}

	chunks := Chunk(start, end, s.maxSpanDays)
	result := &FetchResult{}
	byID := make(map[int64]int) // entry id -> index in result.Entries

	for i, chunk := range chunks {
		if i > 0 {
			s.sleeper.Sleep(chunkDelay)
		}

		entries, err := s.fetchChunk(ctx, token, chunk)
		if err != nil {
			s.logger.Warn("chunk fetch failed", "range", chunk.String(), "error", err)
			result.Failed = append(result.Failed, ChunkFailure{Range: chunk, Err: err})
			continue
		}

		for _, e := range entries {
			if workspaceID != 0 && e.WorkspaceID != workspaceID {
				continue
			}
			if idx, seen := byID[e.ID]; seen {
				result.Entries[idx] = e
				continue
			}
			byID[e.ID] = len(result.Entries)
			result.Entries = append(result.Entries, e)
		}
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		return result.Entries[i].Start < result.Entries[j].Start
	})
	return result, nil
}

// fetchChunk retrieves one chunk, retrying throttled and transient
// failures with 2^attempt seconds of backoff up to the retry ceiling.
func (s *SyncClient) fetchChunk(ctx context.Context, token string, chunk DateRange) ([]model.TimeEntry, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			s.sleeper.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		entries, err := s.fetcher.FetchEntries(ctx, token, chunk.Start, chunk.End)
		if err == nil {
			return entries, nil
		}
		lastErr = err

		var throttled *ThrottledError
		if errors.As(err, &throttled) {
			// Remember the throttle so later calls (and later runs) back off
			// before hitting the network.
			resetAt := s.clock.Now().Add(throttled.RetryAfter)
			if terr := s.tracker.RecordThrottle(throttled.Scope, resetAt); terr != nil {
				s.logger.Error("recording throttle failed", "scope", throttled.Scope, "error", terr)
			}
			continue
		}

		var rejected *DateRangeRejectedError
		if errors.As(err, &rejected) {
			// The floor moved under us. Cache it and retry the chunk with
			// its start clamped; a chunk entirely below the floor is empty.
			if s.minDates != nil {
				s.minDates.Observe(rejected.MinDate)
			}
			if chunk.End.Before(rejected.MinDate) {
				return nil, nil
			}
			chunk.Start = ClampStart(chunk.Start, rejected.MinDate)
			continue
		}

		var transient *TransientNetworkError
		if errors.As(err, &transient) {
			continue
		}

		// Not retryable.
		return nil, err
	}

	return nil, fmt.Errorf("chunk %s failed after %d attempts: %w", chunk.String(), s.maxRetries, lastErr)
}
