// Package csvimport parses manually recorded time entries from CSV files,
// used to backfill work that predates the provider's queryable history.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"horas/internal/model"
)

// Expected header columns. Extra columns are ignored; missing optional
// columns leave the field empty.
const (
	colDate        = "Date"
	colStartTime   = "Start Time"
	colDuration    = "Duration (HH:MM:SS)"
	colDescription = "Description"
	colProject     = "Project"
	colTags        = "Tags"
	colMember      = "Member"
)

// Parse reads time entries from CSV. The first row must be a header; rows
// without a description are skipped. Entry ids are left zero; the caller
// assigns them on import.
func Parse(r io.Reader, now time.Time) ([]model.TimeEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colDescription]; !ok {
		return nil, fmt.Errorf("csv header missing %q column", colDescription)
	}
	if _, ok := cols[colDate]; !ok {
		return nil, fmt.Errorf("csv header missing %q column", colDate)
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var entries []model.TimeEntry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		description := field(record, colDescription)
		if description == "" {
			continue
		}

		start, err := parseStart(field(record, colDate), field(record, colStartTime))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		duration, err := parseDuration(field(record, colDuration))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		var tags []string
		if tag := field(record, colTags); tag != "" {
			tags = []string{tag}
		}

		entries = append(entries, model.TimeEntry{
			Description: description,
			Start:       start.Format(time.RFC3339),
			Duration:    duration,
			Tags:        tags,
			At:          now.Format(time.RFC3339),
			ProjectName: field(record, colProject),
			OwnerName:   field(record, colMember),
		})
	}

	return entries, nil
}

func parseStart(date, startTime string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if startTime == "" {
		return day, nil
	}

	parts := strings.Split(startTime, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid start time %q", startTime)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// parseDuration converts HH:MM:SS (or HH:MM) to seconds.
func parseDuration(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total = total*60 + n
	}
	if len(parts) == 2 {
		// HH:MM has no seconds component.
		total *= 60
	}
	return total, nil
}
