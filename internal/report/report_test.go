package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/ruleset"
	"github.com/bundlescan/bundlescan/internal/scan"
)

const reportRulesetYAML = `
version: "report-test"
rules:
  - id: reject-rule
    name: Rejecting rule
    category: code-injection
    review_bucket: AUTO_REJECT
    severity: BLOCKER
    matchers:
      - id: m1
        pattern: 'x'
  - id: action-rule
    name: Actionable rule
    category: secrets
    review_bucket: ACTION_REQUIRED
    severity: HIGH
    matchers:
      - id: m1
        pattern: 'x'
  - id: explain-rule
    name: Explainable rule
    category: transport
    review_bucket: NEEDS_EXPLANATION
    severity: MEDIUM
    matchers:
      - id: m1
        pattern: 'x'
  - id: info-rule
    name: Informational rule
    category: telemetry
    review_bucket: INFO
    severity: LOW
    matchers:
      - id: m1
        pattern: 'x'
`

func reportRuleset(t *testing.T) *ruleset.Ruleset {
	t.Helper()
	rs, err := ruleset.Parse([]byte(reportRulesetYAML))
	if err != nil {
		t.Fatalf("failed to parse test ruleset: %v", err)
	}
	return rs
}

func finding(ruleID, path string) scan.Finding {
	return scan.Finding{
		RuleID:       ruleID,
		MatcherID:    "m1",
		FilePath:     path,
		Line:         1,
		Column:       1,
		LocationType: scan.LocationCode,
		Confidence:   ruleset.ConfidenceMedium,
	}
}

func TestVerdictLattice(t *testing.T) {
	rs := reportRuleset(t)
	tests := []struct {
		name    string
		ruleIDs []string
		verdict Verdict
		reason  string
	}{
		{
			name:    "no findings passes",
			ruleIDs: nil,
			verdict: VerdictPass,
			reason:  "no blocking rules matched",
		},
		{
			name:    "info and explanation rules still pass",
			ruleIDs: []string{"info-rule", "explain-rule"},
			verdict: VerdictPass,
			reason:  "no blocking rules matched",
		},
		{
			name:    "action-required rule requires action",
			ruleIDs: []string{"info-rule", "action-rule"},
			verdict: VerdictActionRequired,
			reason:  "1 action-required rule(s) matched",
		},
		{
			name:    "auto-reject wins over everything else",
			ruleIDs: []string{"info-rule", "action-rule", "reject-rule"},
			verdict: VerdictRejected,
			reason:  "1 auto-reject rule(s) matched",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var findings []scan.Finding
			for _, id := range tc.ruleIDs {
				findings = append(findings, finding(id, "a.js"))
			}
			rep := Build(findings, rs, nil, inventory.DefaultLimits(), "1")
			assert.Equal(t, tc.verdict, rep.Verdict)
			assert.Equal(t, []string{tc.reason}, rep.VerdictReasons)
		})
	}
}

func TestEscalationDoesNotChangeVerdict(t *testing.T) {
	rs := reportRuleset(t)

	f := finding("explain-rule", "a.js")
	f.Escalation = &scan.Escalation{
		Severity:     ruleset.SeverityBlocker,
		ReviewBucket: ruleset.BucketAutoReject,
		Note:         "escalated context",
	}

	rep := Build([]scan.Finding{f}, rs, nil, inventory.DefaultLimits(), "1")

	assert.Equal(t, VerdictPass, rep.Verdict)
	assert.Equal(t, []string{"escalated context"}, rep.Findings["explain-rule"].Escalations)
}

func TestEscalationNotesDeduplicated(t *testing.T) {
	rs := reportRuleset(t)

	var findings []scan.Finding
	for i := 0; i < 3; i++ {
		f := finding("explain-rule", "a.js")
		f.Escalation = &scan.Escalation{
			ReviewBucket: ruleset.BucketAutoReject,
			Note:         "same note",
		}
		findings = append(findings, f)
	}

	rep := Build(findings, rs, nil, inventory.DefaultLimits(), "1")
	assert.Equal(t, []string{"same note"}, rep.Findings["explain-rule"].Escalations)
}

func TestGrouping(t *testing.T) {
	rs := reportRuleset(t)
	findings := []scan.Finding{
		finding("action-rule", "a.js"),
		finding("action-rule", "b.js"),
		finding("info-rule", "a.js"),
	}

	rep := Build(findings, rs, nil, inventory.DefaultLimits(), "1")

	if assert.Len(t, rep.Findings, 2) {
		g := rep.Findings["action-rule"]
		assert.Equal(t, 2, g.Count)
		assert.Equal(t, "a.js", g.Items[0].FilePath)
		assert.Equal(t, "b.js", g.Items[1].FilePath)
		assert.Equal(t, "Actionable rule", g.Rule.Name)
	}
	assert.Equal(t, 3, rep.FindingCount())
}

func TestUnknownRuleFindingDropped(t *testing.T) {
	rs := reportRuleset(t)
	rep := Build([]scan.Finding{finding("ghost-rule", "a.js")}, rs, nil, inventory.DefaultLimits(), "1")

	assert.Empty(t, rep.Findings)
	assert.Equal(t, VerdictPass, rep.Verdict)
}

func TestBundleSummaryIndependentOfFindings(t *testing.T) {
	rs := reportRuleset(t)

	files := []inventory.FileEntry{
		{Path: "a.js", SizeBytes: 100, IsTextCandidate: true},
		{Path: "b.png", SizeBytes: 2000, IsTextCandidate: false},
		{Path: "vendor/c.js", SizeBytes: 300, IsTextCandidate: true, IsIgnored: true},
	}

	rep := Build(nil, rs, files, inventory.DefaultLimits(), "1")

	assert.Equal(t, BundleSummary{
		FileCount:        3,
		TotalBytes:       2400,
		ScannedFileCount: 1,
		SkippedFileCount: 2,
	}, rep.BundleSummary)
	assert.Equal(t, VerdictPass, rep.Verdict)
}

func TestOversizedFileCountsAsSkipped(t *testing.T) {
	rs := reportRuleset(t)
	limits := inventory.DefaultLimits()
	limits.MaxFileSizeBytes = 1000

	files := []inventory.FileEntry{
		{Path: "a.js", SizeBytes: 100, IsTextCandidate: true},
		{Path: "huge.js", SizeBytes: limits.MaxFileSizeBytes + 1, IsTextCandidate: true},
	}

	rep := Build(nil, rs, files, limits, "1")

	assert.Equal(t, 1, rep.BundleSummary.ScannedFileCount, "size-capped entries are never decoded")
	assert.Equal(t, 1, rep.BundleSummary.SkippedFileCount)
}

func TestReportMetadata(t *testing.T) {
	rs := reportRuleset(t)
	rep := Build(nil, rs, nil, inventory.DefaultLimits(), "cfg-7")

	assert.Equal(t, SchemaVersion, rep.ScanReportVersion)
	assert.Equal(t, "report-test", rep.PolicyMetadata.RulesetVersion)
	assert.Equal(t, "cfg-7", rep.PolicyMetadata.ConfigVersion)
	assert.NotEmpty(t, rep.RunID)
	assert.False(t, rep.CreatedAt.IsZero())
}
