package report

import (
	"horas/internal/model"
)

// Sentinel labels for entries without an assignable project or client.
// Downstream grouping treats them like any other name.
const (
	NoProjectLabel = "no project"
	NoClientLabel  = "no client"
)

// Enricher decorates raw provider entries with display names resolved
// from an account's directory. The provider returns only numeric ids;
// names are what reports group and render by.
type Enricher struct {
	logger Logger
}

func NewEnricher(logger Logger) *Enricher {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Enricher{logger: logger}
}

// Enrich validates and decorates entries in one pass. Entries that are
// still running (negative duration) or carry no start timestamp are
// dropped; everything else gets project, client and owner names filled
// in, falling back to the sentinel labels when the directory has no
// match.
func (e *Enricher) Enrich(entries []model.TimeEntry, acct *model.Account) []model.TimeEntry {
	out := make([]model.TimeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Duration < 0 {
			e.logger.Debug("skipping running entry", "id", entry.ID)
			continue
		}
		if entry.Start == "" {
			e.logger.Warn("skipping entry without start", "id", entry.ID)
			continue
		}

		entry.OwnerName = acct.Fullname
		entry.ProjectName = NoProjectLabel
		entry.ClientName = NoClientLabel

		if entry.ProjectID != nil {
			if p := acct.Directory.ProjectByID(*entry.ProjectID); p != nil {
				entry.ProjectName = p.Name
				if p.ClientID != nil {
					if c := acct.Directory.ClientByID(*p.ClientID); c != nil {
						entry.ClientName = c.Name
					}
				}
			}
		}

		out = append(out, entry)
	}
	return out
}
