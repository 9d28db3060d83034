package csvimport

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	t.Parallel()

	input := `Date,Start Time,End Time,Duration (HH:MM:SS),Description,Project,Tags,Member
2024-03-01,09:30,10:30,01:00:00,Design review,Website,billable,Jane Doe
2024-03-02,14:00,14:45,00:45:00,Bug triage,Website,,Sam Lee
2024-03-03,,,,,,,`

	entries, err := Parse(strings.NewReader(input), testNow)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (descriptionless row skipped)", len(entries))
	}

	first := entries[0]
	if first.Description != "Design review" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Start != "2024-03-01T09:30:00Z" {
		t.Errorf("Start = %q", first.Start)
	}
	if first.Duration != 3600 {
		t.Errorf("Duration = %d, want 3600", first.Duration)
	}
	if first.ProjectName != "Website" || first.OwnerName != "Jane Doe" {
		t.Errorf("names = %q/%q", first.ProjectName, first.OwnerName)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "billable" {
		t.Errorf("Tags = %v", first.Tags)
	}
	if first.ID != 0 {
		t.Errorf("ID = %d, ids are assigned on import, not here", first.ID)
	}

	if entries[1].Duration != 2700 {
		t.Errorf("Duration = %d, want 2700", entries[1].Duration)
	}
	if len(entries[1].Tags) != 0 {
		t.Errorf("Tags = %v, want none", entries[1].Tags)
	}
}

func TestParse_HeaderValidation(t *testing.T) {
	t.Parallel()

	if _, err := Parse(strings.NewReader("Date,Project\n2024-03-01,x\n"), testNow); err == nil {
		t.Error("missing Description column should be rejected")
	}
	if _, err := Parse(strings.NewReader("Description,Project\nwork,x\n"), testNow); err == nil {
		t.Error("missing Date column should be rejected")
	}
	if _, err := Parse(strings.NewReader(""), testNow); err == nil {
		t.Error("empty input should be rejected")
	}
}

func TestParse_ColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	input := `Description,Date,Duration (HH:MM:SS)
Standup,2024-03-01,00:15:00`

	entries, err := Parse(strings.NewReader(input), testNow)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Duration != 900 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Start != "2024-03-01T00:00:00Z" {
		t.Errorf("Start = %q, want midnight when no start time given", entries[0].Start)
	}
}

func TestParse_Durations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "01:30:15", want: 5415},
		{in: "00:45", want: 2700}, // HH:MM form
		{in: "", want: 0},
		{in: "90", wantErr: true},
		{in: "aa:bb:cc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDuration(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_BadRows(t *testing.T) {
	t.Parallel()

	badDate := `Date,Description,Duration (HH:MM:SS)
03/01/2024,work,01:00:00`
	if _, err := Parse(strings.NewReader(badDate), testNow); err == nil {
		t.Error("malformed date should be rejected")
	}

	badDuration := `Date,Description,Duration (HH:MM:SS)
2024-03-01,work,ninety minutes`
	if _, err := Parse(strings.NewReader(badDuration), testNow); err == nil {
		t.Error("malformed duration should be rejected")
	}
}
