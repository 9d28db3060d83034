package toggl

import "time"

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days the range covers, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// truncateDay strips the time-of-day component, keeping the date in UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Chunk splits [start, end] into consecutive sub-ranges of at most
// maxSpanDays days each, in ascending order, with no gaps and no overlaps.
// If the whole range fits within maxSpanDays a single-element slice equal
// to the input is returned. An inverted range yields nil.
func Chunk(start, end time.Time, maxSpanDays int) []DateRange {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}
	if maxSpanDays < 1 {
		maxSpanDays = 1
	}

	whole := DateRange{Start: start, End: end}
	if whole.Days() <= maxSpanDays {
		return []DateRange{whole}
	}

	var chunks []DateRange
	cur := start
	for !cur.After(end) {
		chunkEnd := cur.AddDate(0, 0, maxSpanDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, DateRange{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)

		// Safety valve against pathological inputs.
		if len(chunks) > 1000 {
			break
		}
	}
	return chunks
}

// ClampStart raises start to floor when it precedes it. The floor is the
// provider's minimum queryable date.
func ClampStart(start, floor time.Time) time.Time {
	if !floor.IsZero() && start.Before(floor) {
		return floor
	}
	return start
}
