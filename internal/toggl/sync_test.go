package toggl

import (
	"context"
	"errors"
	"testing"
	"time"

	"horas/internal/model"
)

// Stub clock fixed at 2025-08-15; the computed minimum-date fallback is
// therefore 2025-05-17, and all test ranges stay above it.
func newTestSyncClient(fetcher EntryFetcher, clk *stubClock, sleeper *recordingSleeper, maxSpanDays int) (*SyncClient, *LimitTracker, *MinDateCache) {
	tracker := NewLimitTracker(newMemLimitStore(), clk)
	minDates := NewMinDateCache(&memMinDateStore{}, clk)
	return NewSyncClient(fetcher, tracker, minDates, clk, sleeper, nil, maxSpanDays, 3), tracker, minDates
}

func entry(id, wid int64, start string) model.TimeEntry {
	return model.TimeEntry{
		ID:          id,
		WorkspaceID: wid,
		Start:       start,
		Duration:    3600,
		Description: "work",
		At:          start,
	}
}

func TestSyncClient_PreflightThrottleSkipsNetwork(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{}
	sc, tracker, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	if err := tracker.RecordThrottle(ScopeIdentity, clk.Now().Add(40*time.Minute)); err != nil {
		t.Fatal(err)
	}

	_, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), clk.Now())

	var te *ThrottledError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want ThrottledError", err)
	}
	if te.RetryAfter != 40*time.Minute {
		t.Errorf("RetryAfter = %s, want 40m", te.RetryAfter)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("fetcher called %d times while throttled, want 0", fetcher.callCount())
	}
}

func TestSyncClient_DeduplicatesAcrossChunks(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))

	// Two chunks both return entry 42; the copy from the later chunk
	// carries a newer modification marker and must replace the earlier
	// one, never add to it.
	early := entry(42, 9, "2025-06-20T09:00:00Z")
	late := early
	late.At = "2025-08-01T12:00:00Z"
	late.Description = "work, amended"

	// 2025-06-10..2025-08-15 at 40 days per chunk splits in two.
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{entries: []model.TimeEntry{early, entry(1, 9, "2025-06-11T09:00:00Z")}},
		{entries: []model.TimeEntry{late, entry(2, 9, "2025-08-10T09:00:00Z")}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 40)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("fetcher called %d times, want 2 chunks", fetcher.callCount())
	}

	if len(res.Entries) != 3 {
		t.Fatalf("got %d entries, want 3 (42 deduplicated)", len(res.Entries))
	}
	var got *model.TimeEntry
	for i := range res.Entries {
		if res.Entries[i].ID == 42 {
			if got != nil {
				t.Fatal("entry 42 appears twice")
			}
			got = &res.Entries[i]
		}
	}
	if got == nil {
		t.Fatal("entry 42 missing")
	}
	if got.Description != "work, amended" {
		t.Errorf("kept copy = %q, want the later fetch to win", got.Description)
	}
	if got.Duration != 3600 {
		t.Errorf("Duration = %d, duplicates must never be summed", got.Duration)
	}
}

func TestSyncClient_SortsByStart(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{entries: []model.TimeEntry{
			entry(2, 9, "2025-08-10T09:00:00Z"),
			entry(1, 9, "2025-08-01T09:00:00Z"),
			entry(3, 9, "2025-08-05T09:00:00Z"),
		}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Entries); i++ {
		if res.Entries[i-1].Start > res.Entries[i].Start {
			t.Fatalf("entries out of order at %d: %s > %s", i, res.Entries[i-1].Start, res.Entries[i].Start)
		}
	}
}

func TestSyncClient_WorkspaceFilter(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{entries: []model.TimeEntry{
			entry(1, 9, "2025-08-01T09:00:00Z"),
			entry(2, 7, "2025-08-02T09:00:00Z"),
		}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	res, err := sc.FetchRange(context.Background(), "tok", 9,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != 1 {
		t.Fatalf("entries = %+v, want only workspace 9", res.Entries)
	}
}

func TestSyncClient_PartialFailureKeepsGoodChunks(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	boom := &TransientNetworkError{Err: errors.New("connection reset")}

	// 2025-05-20..2025-08-15 at 30 days per chunk splits in three. The
	// middle chunk fails on all three attempts; its neighbors succeed.
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{entries: []model.TimeEntry{entry(1, 9, "2025-05-25T09:00:00Z")}},
		{err: boom},
		{err: boom},
		{err: boom},
		{entries: []model.TimeEntry{entry(3, 9, "2025-08-01T09:00:00Z")}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 30)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatalf("FetchRange() error = %v, partial failure must not fail the whole range", err)
	}

	if !res.Partial() {
		t.Fatal("Partial() = false, want true")
	}
	if len(res.Failed) != 1 {
		t.Fatalf("Failed = %d chunks, want 1", len(res.Failed))
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want the two surviving chunks", len(res.Entries))
	}
	var tn *TransientNetworkError
	if !errors.As(res.Failed[0].Err, &tn) {
		t.Errorf("failed chunk error = %v, want the underlying cause wrapped", res.Failed[0].Err)
	}
}

func TestSyncClient_BackoffAndChunkPacing(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	sleeper := &recordingSleeper{}
	boom := &TransientNetworkError{Err: errors.New("timeout")}

	// Chunk one needs all three attempts; chunk two succeeds first try.
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{err: boom},
		{err: boom},
		{entries: []model.TimeEntry{entry(1, 9, "2025-06-15T09:00:00Z")}},
		{entries: []model.TimeEntry{entry(2, 9, "2025-08-01T09:00:00Z")}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, sleeper, 40)

	_, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatal(err)
	}

	want := []time.Duration{time.Second, 2 * time.Second, chunkDelay}
	if len(sleeper.slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeper.slept, want)
	}
	for i := range want {
		if sleeper.slept[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, sleeper.slept[i], want[i])
		}
	}
}

func TestSyncClient_RecordsThrottleFromChunkFailure(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	throttle := &ThrottledError{Scope: ScopeIdentity, RetryAfter: 30 * time.Minute}

	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{err: throttle},
		{entries: []model.TimeEntry{entry(1, 9, "2025-08-01T09:00:00Z")}},
	}}
	sc, tracker, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	if _, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), clk.Now()); err != nil {
		t.Fatal(err)
	}

	// The throttle from the first attempt must be persisted even though
	// the retry later succeeded.
	wait, err := tracker.TimeUntilReset(ScopeIdentity)
	if err != nil {
		t.Fatal(err)
	}
	if wait != 30*time.Minute {
		t.Errorf("TimeUntilReset = %s, want 30m", wait)
	}
}

func TestSyncClient_ClampsToRejectedFloor(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	floor := time.Date(2025, 7, 27, 0, 0, 0, 0, time.UTC)

	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{err: &DateRangeRejectedError{MinDate: floor}},
		{entries: []model.TimeEntry{entry(1, 9, "2025-07-28T09:00:00Z")}},
	}}
	sc, _, minDates := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	if res.Partial() {
		t.Fatalf("Failed = %+v, rejection should be recoverable", res.Failed)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(res.Entries))
	}

	// The retry must carry the clamped start.
	if got := fetcher.calls[1].Start; !got.Equal(floor) {
		t.Errorf("retried start = %s, want %s", got, floor)
	}
	// And the floor must be cached for subsequent ranges.
	if got := minDates.Get(); !got.Equal(floor) {
		t.Errorf("cached floor = %s, want %s", got, floor)
	}
}

func TestSyncClient_ChunkEntirelyBelowFloorIsEmpty(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))

	// The provider rejects the chunk with a floor past its end: nothing
	// in it is queryable, and that is a success, not a failure.
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{err: &DateRangeRejectedError{MinDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)}},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 0 || res.Partial() {
		t.Fatalf("result = %+v, want empty success", res)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.callCount())
	}
}

func TestSyncClient_TerminalErrorFailsChunkWithoutRetry(t *testing.T) {
	t.Parallel()

	clk := newStubClock(time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC))
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{err: errors.New("forbidden")},
	}}
	sc, _, _ := newTestSyncClient(fetcher, clk, &recordingSleeper{}, 90)

	res, err := sc.FetchRange(context.Background(), "tok", 0,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Partial() {
		t.Fatal("chunk should be reported failed")
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher called %d times, terminal errors must not be retried", fetcher.callCount())
	}
}
