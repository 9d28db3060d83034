package model

import (
	"strings"
	"time"
)

// TimeEntry is one unit of tracked work.
//
// Provider-issued entries carry a positive ID that is globally unique per
// account. Historical entries imported from CSV carry a negative synthetic
// ID, unique only within their import batch; they are never refetched or
// re-validated against the provider.
type TimeEntry struct {
	ID          int64    `json:"id"`
	WorkspaceID int64    `json:"wid"`
	ProjectID   *int64   `json:"pid"`
	Billable    bool     `json:"billable"`
	Start       string   `json:"start"` // RFC3339 timestamp
	Stop        string   `json:"stop,omitempty"`
	Duration    int64    `json:"duration"` // seconds, non-negative once ingested
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	At          string   `json:"at"` // provider last-modified marker; empty for historical entries

	// Enrichment, derived from the account directory. Not a source of truth.
	ProjectName string `json:"project_name,omitempty"`
	ClientName  string `json:"client_name,omitempty"`
	OwnerName   string `json:"user_name,omitempty"`
}

// Historical reports whether the entry was imported manually (negative ID)
// rather than fetched from the provider.
func (e TimeEntry) Historical() bool { return e.ID < 0 }

// StartTime parses the entry's start timestamp. Returns the zero time if
// the timestamp is missing or malformed.
func (e TimeEntry) StartTime() time.Time {
	t, err := time.Parse(time.RFC3339, e.Start)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasTag reports whether the entry carries the given tag, comparing
// case-insensitively and ignoring whitespace.
func (e TimeEntry) HasTag(name string) bool {
	want := NormalizeTag(name)
	for _, t := range e.Tags {
		if NormalizeTag(t) == want {
			return true
		}
	}
	return false
}

// NormalizeTag lowercases a tag name and strips all whitespace, so that
// "Tres Puntos" and "trespuntos" compare equal.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// Workspace is a provider workspace an account belongs to.
type Workspace struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Client is a provider client record.
type Client struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID int64  `json:"wid"`
	Archived    bool   `json:"archived"`
}

// Project is a provider project record. ClientID is nil for projects
// without a client.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID int64  `json:"wid"`
	ClientID    *int64 `json:"cid"`
	Active      bool   `json:"active"`
}

// Tag is a provider tag record.
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID *int64 `json:"wid"`
}

// Directory is the per-account lookup used for entry enrichment:
// the account's display identity plus its workspaces, clients, projects
// and tags as returned by the provider's identity endpoint.
type Directory struct {
	Fullname   string      `json:"fullname"`
	Email      string      `json:"email"`
	Workspaces []Workspace `json:"workspaces"`
	Clients    []Client    `json:"clients"`
	Projects   []Project   `json:"projects"`
	Tags       []Tag       `json:"tags"`
}

// ProjectByID returns the project with the given id, or nil.
func (d *Directory) ProjectByID(id int64) *Project {
	for i := range d.Projects {
		if d.Projects[i].ID == id {
			return &d.Projects[i]
		}
	}
	return nil
}

// ClientByID returns the client with the given id, or nil.
func (d *Directory) ClientByID(id int64) *Client {
	for i := range d.Clients {
		if d.Clients[i].ID == id {
			return &d.Clients[i]
		}
	}
	return nil
}

// Account is a stored provider credential plus its cached directory.
// The API token is persisted encrypted; Token is only populated in memory
// after the credential store has been unlocked.
type Account struct {
	ID        string    `json:"id"` // UUID
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Token     string    `json:"-"` // plaintext, in memory only
	Directory Directory `json:"directory"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceConfig is one (account, workspace, client filter, project filter)
// tuple a report draws entries from. It does not own entries; it is a
// filter descriptor applied during reconciliation.
type SourceConfig struct {
	ID          string `json:"id"` // UUID, stable across edits
	AccountID   string `json:"account_id"`
	WorkspaceID int64  `json:"workspace_id,omitempty"` // 0 = account's first workspace
	ClientID    int64  `json:"client_id,omitempty"`    // 0 = no client filter
	ProjectID   int64  `json:"project_id,omitempty"`   // 0 = no project filter
}

// Report tag statuses.
const (
	TagActive    = "active"
	TagCompleted = "completed"
)

// ReportTag is a report-level label used as a content filter: when a report
// has tags, only entries carrying one of them are retained.
type ReportTag struct {
	Name   string `json:"name"`
	Status string `json:"status"` // TagActive or TagCompleted
}

// Report is a client-facing hours package tracked against provider entries.
// The report owns its entry set and summary exclusively.
type Report struct {
	ID          string         `json:"id"` // UUID
	Name        string         `json:"name"`
	PackageID   string         `json:"package_id,omitempty"`
	TotalHours  float64        `json:"total_hours"` // hours budget
	Price       float64        `json:"price,omitempty"`
	StartDate   string         `json:"start_date"` // ISO date
	EndDate     string         `json:"end_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUpdated time.Time      `json:"last_updated"`
	PublicURL   string         `json:"public_url"` // share token
	IsActive    bool           `json:"is_active"`
	Tags        []ReportTag    `json:"report_tags,omitempty"`
	Configs     []SourceConfig `json:"configs"`
	Entries     []TimeEntry    `json:"entries"`
	Summary     ReportSummary  `json:"summary"`
}

// ActiveTag returns the name of the first active report tag, or "".
// Active status is advisory: multiple active tags are tolerated.
func (r *Report) ActiveTag() string {
	for _, t := range r.Tags {
		if t.Status == TagActive {
			return t.Name
		}
	}
	return ""
}

// ReportSummary is fully recomputed on every reconciliation; it is
// idempotent given the same entry set.
type ReportSummary struct {
	TotalHoursConsumed     float64            `json:"totalHoursConsumed"`
	TotalHoursAvailable    float64            `json:"totalHoursAvailable"`
	ConsumptionPercentage  float64            `json:"consumptionPercentage"`
	ConsumptionSpeed       float64            `json:"consumptionSpeed"` // hours/day since first entry
	EstimatedDaysRemaining int                `json:"estimatedDaysRemaining"`
	CompletedTasks         int                `json:"completedTasks"`
	AverageHoursPerTask    float64            `json:"averageHoursPerTask"`
	TasksByDescription     []GroupedTask      `json:"tasksByDescription"`
	TeamDistribution       []OwnerHours       `json:"teamDistribution"`
	ConsumptionEvolution   []ConsumptionPoint `json:"consumptionEvolution"` // cumulative
}

// GroupedTask aggregates entries sharing an exact description string.
type GroupedTask struct {
	Description string      `json:"description"`
	TotalHours  float64     `json:"totalHours"`
	Count       int         `json:"count"`
	Entries     []TimeEntry `json:"entries"`
}

// OwnerHours is one owner's share of the consumed hours.
type OwnerHours struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// ConsumptionPoint is one calendar day's value in the consumption series.
type ConsumptionPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Hours float64 `json:"hours"`
}
