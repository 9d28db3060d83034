package report

import (
	"sort"

	"horas/internal/model"
	"horas/internal/toggl"
)

// ConfigBatch is the fetch outcome for one source config: the fresh
// entries when the fetch worked, or the error when it did not. A failed
// config degrades gracefully: its previously stored entries survive the
// reconcile untouched.
type ConfigBatch struct {
	Config  model.SourceConfig
	Account *model.Account
	Entries []model.TimeEntry
	Err     error

	// Chunks lost to retry exhaustion; the batch still counts as fetched.
	partialFailures []toggl.ChunkFailure
}

// ResolveWorkspace returns the workspace a config is bound to: its
// explicit workspace id, or the account's first workspace when unset.
func ResolveWorkspace(cfg model.SourceConfig, acct *model.Account) int64 {
	if cfg.WorkspaceID != 0 {
		return cfg.WorkspaceID
	}
	if acct != nil && len(acct.Directory.Workspaces) > 0 {
		return acct.Directory.Workspaces[0].ID
	}
	return 0
}

// Reconciler merges freshly fetched entries into a report's stored set.
type Reconciler struct {
	logger Logger
}

func NewReconciler(logger Logger) *Reconciler {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Reconciler{logger: logger}
}

// Reconcile produces the report's next entry set from its prior set and
// the per-config fetch batches.
//
// Manually imported entries (negative ids) always survive; provider
// entries survive only while their workspace is still covered by some
// config. Within a config's workspace the fresh batch is authoritative,
// except that an entry unchanged since the last sync (same revision
// timestamp and duration) keeps its stored copy, so enrichment done
// earlier is not redone or lost. Batches that failed contribute their
// workspace's stored entries instead.
//
// Finally, when the report declares tags, entries not carrying at least
// one of them (compared case- and whitespace-insensitively) are dropped.
// A report with no tags keeps everything.
func (r *Reconciler) Reconcile(prior []model.TimeEntry, batches []ConfigBatch, tags []model.ReportTag) []model.TimeEntry {
	var historical []model.TimeEntry
	priorLive := make(map[int64]model.TimeEntry)
	for _, e := range prior {
		if e.Historical() {
			historical = append(historical, e)
			continue
		}
		priorLive[e.ID] = e
	}

	merged := make(map[int64]model.TimeEntry)

	for _, b := range batches {
		ws := ResolveWorkspace(b.Config, b.Account)

		if b.Err != nil {
			r.logger.Warn("source config degraded, keeping stored entries",
				"config", b.Config.ID, "workspace", ws, "error", b.Err)
			for id, e := range priorLive {
				if e.WorkspaceID == ws {
					if _, taken := merged[id]; !taken {
						merged[id] = e
					}
				}
			}
			continue
		}

		for _, f := range filterForConfig(b.Entries, b.Config, b.Account) {
			if p, ok := priorLive[f.ID]; ok && p.At == f.At && p.Duration == f.Duration {
				merged[f.ID] = p
				continue
			}
			merged[f.ID] = f
		}
	}

	// Entries recorded before workspace ids were tracked have none; they
	// cannot be attributed to a config, so they are never evicted.
	for id, e := range priorLive {
		if e.WorkspaceID == 0 {
			if _, taken := merged[id]; !taken {
				merged[id] = e
			}
		}
	}

	out := make([]model.TimeEntry, 0, len(merged)+len(historical))
	out = append(out, historical...)
	for _, e := range merged {
		out = append(out, e)
	}

	out = filterByTags(out, tags)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// filterForConfig applies a config's workspace, client and project
// restrictions to a fresh batch.
func filterForConfig(entries []model.TimeEntry, cfg model.SourceConfig, acct *model.Account) []model.TimeEntry {
	ws := ResolveWorkspace(cfg, acct)
	out := make([]model.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if ws != 0 && e.WorkspaceID != ws {
			continue
		}
		if cfg.ProjectID != 0 {
			if e.ProjectID == nil || *e.ProjectID != cfg.ProjectID {
				continue
			}
		}
		if cfg.ClientID != 0 {
			if !entryMatchesClient(e, cfg.ClientID, acct) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func entryMatchesClient(e model.TimeEntry, clientID int64, acct *model.Account) bool {
	if e.ProjectID == nil || acct == nil {
		return false
	}
	p := acct.Directory.ProjectByID(*e.ProjectID)
	if p == nil || p.ClientID == nil {
		return false
	}
	return *p.ClientID == clientID
}

func filterByTags(entries []model.TimeEntry, tags []model.ReportTag) []model.TimeEntry {
	if len(tags) == 0 {
		return entries
	}
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[model.NormalizeTag(t.Name)] = true
	}
	out := make([]model.TimeEntry, 0, len(entries))
	for _, e := range entries {
		for _, name := range e.Tags {
			if wanted[model.NormalizeTag(name)] {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
