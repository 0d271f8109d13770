package sarif

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/internal/ruleset"
	"github.com/bundlescan/bundlescan/internal/scan"
)

func sampleReport() *report.ScanReport {
	return &report.ScanReport{
		ScanReportVersion: report.SchemaVersion,
		RunID:             "run-42",
		CreatedAt:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		PolicyMetadata: report.PolicyMetadata{
			RulesetVersion: "2024.06.1",
			ConfigVersion:  "1",
		},
		Verdict:        report.VerdictRejected,
		VerdictReasons: []string{"1 auto-reject rule(s) matched"},
		Findings: map[string]*report.RuleGroup{
			"no-eval": {
				Rule: ruleset.Rule{
					ID:           "no-eval",
					Name:         "No dynamic code execution",
					Category:     "code-injection",
					Severity:     ruleset.SeverityBlocker,
					ReviewBucket: ruleset.BucketAutoReject,
				},
				Count: 1,
				Items: []scan.Finding{
					{
						RuleID:       "no-eval",
						MatcherID:    "eval-call",
						FilePath:     "dist/app.js",
						Line:         12,
						Column:       5,
						TriggerToken: "eval(",
						Snippet:      "eval(payload)",
						LocationType: scan.LocationCode,
						Confidence:   ruleset.ConfidenceHigh,
					},
				},
				Remediation: "Remove the dynamic evaluation",
			},
			"beacon": {
				Rule: ruleset.Rule{
					ID:           "beacon",
					Name:         "Telemetry beacon",
					Category:     "telemetry",
					Severity:     ruleset.SeverityLow,
					ReviewBucket: ruleset.BucketInfo,
				},
				Count: 1,
				Items: []scan.Finding{
					{
						RuleID:       "beacon",
						MatcherID:    "sendBeacon",
						FilePath:     "src/track.js",
						Line:         3,
						Column:       1,
						TriggerToken: "sendBeacon(",
						LocationType: scan.LocationCode,
						Confidence:   ruleset.ConfidenceMedium,
					},
				},
			},
		},
	}
}

func TestFromReport(t *testing.T) {
	doc, err := FromReport(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Runs) != 1 {
		t.Fatalf("expected one run, got %d", len(doc.Runs))
	}
	run := doc.Runs[0]

	if assert.Len(t, run.Tool.Driver.Rules, 2) {
		// sorted by rule id: beacon before no-eval
		assert.Equal(t, "beacon", run.Tool.Driver.Rules[0].ID)
		assert.Equal(t, "no-eval", run.Tool.Driver.Rules[1].ID)
	}
	assert.Len(t, run.Results, 2)
	assert.Equal(t, "run-42", run.Properties["runId"])
	assert.Equal(t, "REJECTED", run.Properties["verdict"])
}

func TestWriteSerializesResults(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(sampleReport(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	assert.Contains(t, out, `"version": "2.1.0"`)
	assert.Contains(t, out, "bundlescan")
	assert.Contains(t, out, "dist/app.js")
	assert.Contains(t, out, "Remove the dynamic evaluation")
	// BLOCKER maps to error, LOW maps to note
	assert.Contains(t, out, `"level": "error"`)
	assert.Contains(t, out, `"level": "note"`)
}

// TestWriteFromScanPipeline exercises the whole chain from an archive to a
// serialized SARIF document: ingest, scan with the built-in ruleset, report
// build, SARIF write.
func TestWriteFromScanPipeline(t *testing.T) {
	var archive bytes.Buffer
	w := zip.NewWriter(&archive)
	fw, err := w.Create("a.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fw.Write([]byte("eval(userInput)\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	limits := inventory.DefaultLimits()
	entries, err := inventory.Ingest(archive.Bytes(), limits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rs := ruleset.Default()
	findings, err := scan.Run(context.Background(), entries, rs, limits, scan.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected exactly one finding, got %d", len(findings))
	}
	assert.Equal(t, "dynamic-code-execution", findings[0].RuleID)
	assert.Equal(t, scan.LocationCode, findings[0].LocationType)
	assert.Equal(t, ruleset.ConfidenceHigh, findings[0].Confidence)

	rep := report.Build(findings, rs, entries, limits, "1")
	assert.Equal(t, report.VerdictRejected, rep.Verdict)
	assert.Equal(t, 1, rep.Findings["dynamic-code-execution"].Count)

	var out bytes.Buffer
	if err := Write(rep, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Contains(t, out.String(), `"version": "2.1.0"`)
	assert.Contains(t, out.String(), "dynamic-code-execution")
	assert.Contains(t, out.String(), "a.js")
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel(ruleset.SeverityBlocker))
	assert.Equal(t, "error", severityToLevel(ruleset.SeverityHigh))
	assert.Equal(t, "warning", severityToLevel(ruleset.SeverityMedium))
	assert.Equal(t, "note", severityToLevel(ruleset.SeverityLow))
	assert.Equal(t, "note", severityToLevel(ruleset.SeverityInfo))
}
