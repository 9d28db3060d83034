package report

import (
	"errors"
	"reflect"
	"testing"

	"horas/internal/model"
)

func liveEntry(id, wid int64, start string, duration int64, at string, tags ...string) model.TimeEntry {
	return model.TimeEntry{
		ID:          id,
		WorkspaceID: wid,
		Start:       start,
		Duration:    duration,
		Description: "work",
		At:          at,
		Tags:        tags,
	}
}

func entryIDs(entries []model.TimeEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestResolveWorkspace(t *testing.T) {
	t.Parallel()

	acct := testAccount()
	if got := ResolveWorkspace(model.SourceConfig{WorkspaceID: 42}, acct); got != 42 {
		t.Errorf("explicit workspace = %d, want 42", got)
	}
	if got := ResolveWorkspace(model.SourceConfig{}, acct); got != 9 {
		t.Errorf("default workspace = %d, want account's first (9)", got)
	}
	if got := ResolveWorkspace(model.SourceConfig{}, nil); got != 0 {
		t.Errorf("no account = %d, want 0", got)
	}
}

func TestReconciler_FreshBatchIsAuthoritative(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
		liveEntry(2, 9, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z"),
	}
	// Entry 1 disappeared upstream; entry 2 changed; entry 3 is new.
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(2, 9, "2025-08-02T09:00:00Z", 5400, "2025-08-03T08:00:00Z"),
			liveEntry(3, 9, "2025-08-03T09:00:00Z", 900, "2025-08-03T10:00:00Z"),
		},
	}}

	out := NewReconciler(nil).Reconcile(prior, batches, nil)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Fatalf("ids = %v, want [2 3]", got)
	}
	if out[0].Duration != 5400 {
		t.Errorf("entry 2 duration = %d, want the fresh copy (5400)", out[0].Duration)
	}
}

func TestReconciler_UnchangedEntryKeepsStoredCopy(t *testing.T) {
	t.Parallel()

	stored := liveEntry(5, 9, "2025-08-01T09:00:00Z", 1800, "2025-08-01T10:00:00Z")
	stored.ProjectName = "Site" // enrichment from a previous sync
	stored.ClientName = "Acme"

	fresh := liveEntry(5, 9, "2025-08-01T09:00:00Z", 1800, "2025-08-01T10:00:00Z")

	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{fresh},
	}}

	out := NewReconciler(nil).Reconcile([]model.TimeEntry{stored}, batches, nil)
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].ProjectName != "Site" {
		t.Errorf("ProjectName = %q, unchanged entries must keep their stored copy", out[0].ProjectName)
	}
}

func TestReconciler_HistoricalEntriesAlwaysSurvive(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(-1, 0, "2024-01-10T09:00:00Z", 3600, ""),
		liveEntry(4, 9, "2025-08-01T09:00:00Z", 1800, "2025-08-01T10:00:00Z"),
	}
	// Empty fresh batch: live entries are gone, imports are not.
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
	}}

	out := NewReconciler(nil).Reconcile(prior, batches, nil)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{-1}) {
		t.Fatalf("ids = %v, want only the imported entry", got)
	}
}

func TestReconciler_EvictsUncoveredWorkspaces(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
		liveEntry(2, 7, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z"), // workspace no config covers
		liveEntry(3, 0, "2025-08-03T09:00:00Z", 900, "2025-08-03T10:00:00Z"),  // pre-workspace-tracking entry
	}
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
		},
	}}

	out := NewReconciler(nil).Reconcile(prior, batches, nil)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("ids = %v, want workspace 7 evicted and unattributed entry kept", got)
	}
}

func TestReconciler_DegradedConfigKeepsStoredEntries(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
		liveEntry(2, 7, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z"),
	}
	batches := []ConfigBatch{
		{
			Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
			Account: testAccount(),
			Entries: []model.TimeEntry{
				liveEntry(5, 9, "2025-08-05T09:00:00Z", 900, "2025-08-05T10:00:00Z"),
			},
		},
		{
			Config: model.SourceConfig{ID: "cfg-2", WorkspaceID: 7},
			Err:    errors.New("quota exhausted"),
		},
	}

	out := NewReconciler(nil).Reconcile(prior, batches, nil)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{2, 5}) {
		t.Fatalf("ids = %v, want degraded workspace 7 preserved and workspace 9 replaced", got)
	}
}

func TestReconciler_TagFilter(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(-1, 0, "2024-01-10T09:00:00Z", 3600, "", "x"),
		liveEntry(5, 9, "2025-08-01T09:00:00Z", 1800, "2025-08-01T10:00:00Z"),
	}
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(5, 9, "2025-08-01T09:00:00Z", 1800, "2025-08-01T10:00:00Z"),
			liveEntry(6, 9, "2025-08-02T09:00:00Z", 900, "2025-08-02T10:00:00Z"),
		},
	}}
	tags := []model.ReportTag{{Name: "x", Status: model.TagActive}}

	out := NewReconciler(nil).Reconcile(prior, batches, tags)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{-1}) {
		t.Fatalf("ids = %v, want only the tagged imported entry", got)
	}
}

func TestReconciler_TagMatchIgnoresCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{}
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z", "Tres Puntos"),
			liveEntry(2, 9, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z", "other"),
		},
	}}
	tags := []model.ReportTag{{Name: "trespuntos", Status: model.TagCompleted}}

	out := NewReconciler(nil).Reconcile(prior, batches, tags)
	if got := entryIDs(out); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("ids = %v, want the differently-spelled tag to match", got)
	}
}

func TestReconciler_NoTagsKeepsEverything(t *testing.T) {
	t.Parallel()

	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
			liveEntry(2, 9, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z", "tagged"),
		},
	}}

	out := NewReconciler(nil).Reconcile(nil, batches, nil)
	if len(out) != 2 {
		t.Fatalf("got %d entries, want 2 (no tag filtering without report tags)", len(out))
	}
}

func TestReconciler_ProjectAndClientFilters(t *testing.T) {
	t.Parallel()

	sitePID := int64(7)     // project belonging to client 3
	internalPID := int64(8) // project without a client

	entries := []model.TimeEntry{
		liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z"),
		liveEntry(2, 9, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z"),
		liveEntry(3, 9, "2025-08-03T09:00:00Z", 900, "2025-08-03T10:00:00Z"),
	}
	entries[0].ProjectID = &sitePID
	entries[1].ProjectID = &internalPID

	t.Run("project filter", func(t *testing.T) {
		t.Parallel()
		batches := []ConfigBatch{{
			Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9, ProjectID: 7},
			Account: testAccount(),
			Entries: entries,
		}}
		out := NewReconciler(nil).Reconcile(nil, batches, nil)
		if got := entryIDs(out); !reflect.DeepEqual(got, []int64{1}) {
			t.Fatalf("ids = %v, want only project 7", got)
		}
	})

	t.Run("client filter resolves through the directory", func(t *testing.T) {
		t.Parallel()
		batches := []ConfigBatch{{
			Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9, ClientID: 3},
			Account: testAccount(),
			Entries: entries,
		}}
		out := NewReconciler(nil).Reconcile(nil, batches, nil)
		if got := entryIDs(out); !reflect.DeepEqual(got, []int64{1}) {
			t.Fatalf("ids = %v, want only client 3's project", got)
		}
	})
}

func TestReconciler_Idempotent(t *testing.T) {
	t.Parallel()

	prior := []model.TimeEntry{
		liveEntry(-1, 0, "2024-01-10T09:00:00Z", 3600, "", "x"),
		liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z", "x"),
	}
	batches := []ConfigBatch{{
		Config:  model.SourceConfig{ID: "cfg-1", WorkspaceID: 9},
		Account: testAccount(),
		Entries: []model.TimeEntry{
			liveEntry(1, 9, "2025-08-01T09:00:00Z", 3600, "2025-08-01T10:00:00Z", "x"),
			liveEntry(2, 9, "2025-08-02T09:00:00Z", 1800, "2025-08-02T10:00:00Z", "x"),
		},
	}}
	tags := []model.ReportTag{{Name: "x", Status: model.TagActive}}

	r := NewReconciler(nil)
	first := r.Reconcile(prior, batches, tags)
	second := r.Reconcile(first, batches, tags)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
