package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/bundlescan/bundlescan/internal/report"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history"), hclog.NewNullLogger())
}

func sampleReport(runID string, createdAt time.Time, verdict report.Verdict) *report.ScanReport {
	return &report.ScanReport{
		ScanReportVersion: report.SchemaVersion,
		RunID:             runID,
		CreatedAt:         createdAt,
		Verdict:           verdict,
		BundleSummary:     report.BundleSummary{FileCount: 7},
	}
}

func TestListEmptyStore(t *testing.T) {
	entries, err := testStore(t).List()
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendAndList(t *testing.T) {
	store := testStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Append("bundle-a.zip", sampleReport("run-1", base, report.VerdictPass)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append("bundle-b.zip", sampleReport("run-2", base.Add(time.Hour), report.VerdictRejected)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}

	// newest first
	assert.Equal(t, "run-2", entries[0].RunID)
	assert.Equal(t, "bundle-b.zip", entries[0].Bundle)
	assert.Equal(t, report.VerdictRejected, entries[0].Verdict)
	assert.Equal(t, "run-1", entries[1].RunID)
	assert.Equal(t, 7, entries[1].FileCount)
}

func TestAppendRecoversFromCorruptFile(t *testing.T) {
	store := testStore(t)
	if err := os.MkdirAll(store.folder, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(store.path(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	createdAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Append("bundle.zip", sampleReport("run-1", createdAt, report.VerdictPass)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.List()
	assert.NoError(t, err)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "run-1", entries[0].RunID)
	}
}
