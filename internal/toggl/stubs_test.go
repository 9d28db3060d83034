package toggl

import (
	"context"
	"sync"
	"time"

	"horas/internal/model"
)

// stubClock returns a settable fixed time.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock(t time.Time) *stubClock {
	return &stubClock{now: t}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSleeper captures requested sleeps instead of sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
}

func (s *recordingSleeper) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

// memLimitStore keeps throttle state in memory.
type memLimitStore struct {
	mu       sync.Mutex
	throttle map[string]time.Time
}

func newMemLimitStore() *memLimitStore {
	return &memLimitStore{throttle: make(map[string]time.Time)}
}

func (s *memLimitStore) GetThrottle(scope string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.throttle[scope], nil
}

func (s *memLimitStore) SetThrottle(scope string, resetAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttle[scope] = resetAt
	return nil
}

func (s *memLimitStore) ClearThrottle(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.throttle, scope)
	return nil
}

// memMinDateStore keeps the cached minimum date in memory.
type memMinDateStore struct {
	mu          sync.Mutex
	date        time.Time
	refreshedAt time.Time
}

func (s *memMinDateStore) GetMinDate() (time.Time, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date, s.refreshedAt, nil
}

func (s *memMinDateStore) SetMinDate(date, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	s.refreshedAt = refreshedAt
	return nil
}

// scriptedFetcher replays canned responses per call, then keeps returning
// the last one.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	calls     []DateRange
}

type fetchResponse struct {
	entries []model.TimeEntry
	err     error
}

func (f *scriptedFetcher) FetchEntries(ctx context.Context, token string, start, end time.Time) ([]model.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, DateRange{Start: start, End: end})

	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	if idx < 0 {
		return nil, nil
	}
	r := f.responses[idx]
	return r.entries, r.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
