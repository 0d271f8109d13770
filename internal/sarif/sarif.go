// Package sarif converts a finished scan report into a SARIF v2.1.0 document
// so the findings can flow into code-review tooling that already speaks the
// format.
package sarif

import (
	"fmt"
	"io"
	"sort"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/internal/ruleset"
)

const toolName = "bundlescan"
const toolURI = "https://github.com/bundlescan/bundlescan"

// FromReport builds a SARIF report from a ScanReport. Rules and results are
// emitted in sorted rule-id order so the document is deterministic.
func FromReport(r *report.ScanReport) (*sarif.Report, error) {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	run.Properties = map[string]interface{}{
		"runId":          r.RunID,
		"verdict":        string(r.Verdict),
		"rulesetVersion": r.PolicyMetadata.RulesetVersion,
	}

	ruleIDs := make([]string, 0, len(r.Findings))
	for id := range r.Findings {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Strings(ruleIDs)

	for _, id := range ruleIDs {
		group := r.Findings[id]

		rule := run.AddRule(id)
		rule.WithName(group.Rule.Name)
		rule.WithShortDescription(sarif.NewMultiformatMessageString(group.Rule.Name))
		if group.Rule.Description != "" {
			rule.WithFullDescription(sarif.NewMultiformatMessageString(group.Rule.Description))
		}
		rule.Properties = map[string]interface{}{
			"category":     group.Rule.Category,
			"severity":     string(group.Rule.Severity),
			"reviewBucket": string(group.Rule.ReviewBucket),
		}
		if group.Remediation != "" {
			rule.Properties["remediation"] = group.Remediation
		}

		for _, item := range group.Items {
			message := fmt.Sprintf("%s: %q", group.Rule.Name, item.TriggerToken)
			location := sarif.NewLocationWithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewSimpleArtifactLocation(item.FilePath)).
					WithRegion(
						sarif.NewSimpleRegion(item.Line, item.Line).
							WithStartColumn(item.Column),
					),
			)
			result := run.CreateResultForRule(id).
				WithLevel(severityToLevel(group.Rule.Severity)).
				WithMessage(sarif.NewTextMessage(message))
			result.AddLocation(location)
			result.Properties = map[string]interface{}{
				"matcherId":    item.MatcherID,
				"locationType": string(item.LocationType),
				"confidence":   string(item.Confidence),
				"snippet":      item.Snippet,
			}
			if item.ConfidenceReason != "" {
				result.Properties["confidenceReason"] = item.ConfidenceReason
			}
		}
	}

	sarifReport.AddRun(run)
	return sarifReport, nil
}

// Write serializes the SARIF document to w.
func Write(r *report.ScanReport, w io.Writer) error {
	sarifReport, err := FromReport(r)
	if err != nil {
		return err
	}
	return sarifReport.PrettyWrite(w)
}

func severityToLevel(severity ruleset.Severity) string {
	switch severity {
	case ruleset.SeverityBlocker, ruleset.SeverityHigh:
		return "error"
	case ruleset.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
