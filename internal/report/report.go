// Package report aggregates findings into the terminal scan artifact and
// derives the verdict. The report is the sole contract surface consumed by
// renderers, the history store, the email draft, and the advisory client.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/ruleset"
	"github.com/bundlescan/bundlescan/internal/scan"
)

// SchemaVersion stamps the serialized report shape.
const SchemaVersion = "1"

// Verdict is the terminal scan outcome.
type Verdict string

const (
	VerdictPass           Verdict = "PASS"
	VerdictActionRequired Verdict = "ACTION_REQUIRED"
	VerdictRejected       Verdict = "REJECTED"
)

// RuleGroup collects every finding a single rule produced. Grouping is an
// append operation: items keep the normalized scan order, with no re-sorting
// or deduplication.
type RuleGroup struct {
	Rule        ruleset.Rule   `json:"rule"`
	Count       int            `json:"count"`
	Items       []scan.Finding `json:"items"`
	Escalations []string       `json:"escalations,omitempty"`
	Remediation string         `json:"remediation,omitempty"`
}

// BundleSummary is computed from the full file inventory, independently of
// the findings: a bundle can report zero findings and still show nonzero
// scanned and skipped counts.
type BundleSummary struct {
	FileCount        int   `json:"fileCount"`
	TotalBytes       int64 `json:"totalBytes"`
	ScannedFileCount int   `json:"scannedFileCount"`
	SkippedFileCount int   `json:"skippedFileCount"`
}

type PolicyMetadata struct {
	RulesetVersion string `json:"rulesetVersion"`
	ConfigVersion  string `json:"configVersion"`
}

// ScanReport is the terminal artifact of a scan session. Built once,
// immutable, serializable.
type ScanReport struct {
	ScanReportVersion string                `json:"scanReportVersion"`
	RunID             string                `json:"runId"`
	CreatedAt         time.Time             `json:"createdAt"`
	PolicyMetadata    PolicyMetadata        `json:"policyMetadata"`
	Verdict           Verdict               `json:"verdict"`
	VerdictReasons    []string              `json:"verdictReasons"`
	BundleSummary     BundleSummary         `json:"bundleSummary"`
	Findings          map[string]*RuleGroup `json:"findings"`
}

// FindingCount returns the total number of findings across all rule groups.
func (r *ScanReport) FindingCount() int {
	total := 0
	for _, g := range r.Findings {
		total += g.Count
	}
	return total
}

// MarshalIndent serializes the report as stable, human-diffable JSON.
func (r *ScanReport) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Build groups findings by rule, computes the bundle summary over the full
// inventory, and derives the verdict from the review buckets of the rules
// that fired.
func Build(findings []scan.Finding, rs *ruleset.Ruleset, files []inventory.FileEntry, limits inventory.Limits, configVersion string) *ScanReport {
	groups := make(map[string]*RuleGroup)
	for _, f := range findings {
		group, ok := groups[f.RuleID]
		if !ok {
			rule, known := rs.ByID(f.RuleID)
			if !known {
				// A finding can only come from a loaded rule; skipping is
				// safer than inventing a group with no policy attached.
				continue
			}
			group = &RuleGroup{Rule: *rule}
			if guidance, has := ruleset.Remediation(f.RuleID); has {
				group.Remediation = guidance
			}
			groups[f.RuleID] = group
		}
		group.Items = append(group.Items, f)
		group.Count = len(group.Items)
		if f.Escalation != nil && f.Escalation.Note != "" {
			group.Escalations = appendUnique(group.Escalations, f.Escalation.Note)
		}
	}

	verdict, reasons := deriveVerdict(groups)

	return &ScanReport{
		ScanReportVersion: SchemaVersion,
		RunID:             uuid.New().String(),
		CreatedAt:         time.Now().UTC(),
		PolicyMetadata: PolicyMetadata{
			RulesetVersion: rs.Version,
			ConfigVersion:  configVersion,
		},
		Verdict:        verdict,
		VerdictReasons: reasons,
		BundleSummary:  summarize(files, limits),
		Findings:       groups,
	}
}

// deriveVerdict walks the two-level lattice over the rules that produced at
// least one finding. The check is rule-level: one AUTO_REJECT rule with
// matches anywhere forces REJECTED regardless of what else fired.
func deriveVerdict(groups map[string]*RuleGroup) (Verdict, []string) {
	var rejecting, actionable []string
	for id, g := range groups {
		switch g.Rule.ReviewBucket {
		case ruleset.BucketAutoReject:
			rejecting = append(rejecting, id)
		case ruleset.BucketActionRequired:
			actionable = append(actionable, id)
		}
	}

	switch {
	case len(rejecting) > 0:
		return VerdictRejected, []string{
			fmt.Sprintf("%d auto-reject rule(s) matched", len(rejecting)),
		}
	case len(actionable) > 0:
		return VerdictActionRequired, []string{
			fmt.Sprintf("%d action-required rule(s) matched", len(actionable)),
		}
	default:
		return VerdictPass, []string{"no blocking rules matched"}
	}
}

// summarize computes the bundle counts from the full inventory. A file
// counts as scanned when it was eligible for decoding, even if decoding
// degraded it to empty content; entries over the per-file size cap were
// never decoded and count as skipped.
func summarize(files []inventory.FileEntry, limits inventory.Limits) BundleSummary {
	s := BundleSummary{FileCount: len(files)}
	for i := range files {
		f := &files[i]
		s.TotalBytes += f.SizeBytes
		if f.IsTextCandidate && !f.IsIgnored && f.SizeBytes <= limits.MaxFileSizeBytes {
			s.ScannedFileCount++
		} else {
			s.SkippedFileCount++
		}
	}
	return s
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
