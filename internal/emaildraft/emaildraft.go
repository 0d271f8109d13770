// Package emaildraft renders a review email from a finished scan report.
// It is pure formatting over the report: findings are walked grouped by
// review bucket and nothing here feeds back into the decision logic.
package emaildraft

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/internal/ruleset"
)

// bucketOrder fixes the section order in the draft, most severe first.
var bucketOrder = []ruleset.ReviewBucket{
	ruleset.BucketAutoReject,
	ruleset.BucketActionRequired,
	ruleset.BucketNeedsExplanation,
	ruleset.BucketInfo,
}

const draftTemplate = `Subject: Bundle review result: {{ .Verdict }} ({{ .RunID }})

Hello,

The security scan of the submitted bundle finished with verdict {{ .Verdict }}.
{{ range .Reasons }}- {{ . }}
{{ end }}
{{- range .Sections }}
## {{ .Title }}
{{ range .Groups }}
{{ .Rule.Name }} ({{ .Count }} finding{{ if ne .Count 1 }}s{{ end }})
{{- range .Items }}
  - {{ .FilePath }}:{{ .Line }} {{ .TriggerToken }}
{{- end }}
{{- if .Remediation }}
  Suggested fix: {{ .Remediation }}
{{- end }}
{{ end }}
{{- end }}
Scanned {{ .Summary.ScannedFileCount }} of {{ .Summary.FileCount }} files ({{ .Summary.TotalBytes }} bytes).

Regards,
bundlescan
`

type section struct {
	Title  string
	Groups []*report.RuleGroup
}

type draftData struct {
	Verdict  report.Verdict
	RunID    string
	Reasons  []string
	Sections []section
	Summary  report.BundleSummary
}

var tmpl = template.Must(template.New("draft").Parse(draftTemplate))

// Render produces the plain-text email draft for a report.
func Render(r *report.ScanReport) (string, error) {
	titler := cases.Title(language.English)

	var sections []section
	for _, bucket := range bucketOrder {
		groups := groupsForBucket(r, bucket)
		if len(groups) == 0 {
			continue
		}
		title := titler.String(strings.ReplaceAll(strings.ToLower(string(bucket)), "_", " "))
		sections = append(sections, section{Title: title, Groups: groups})
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, draftData{
		Verdict:  r.Verdict,
		RunID:    r.RunID,
		Reasons:  r.VerdictReasons,
		Sections: sections,
		Summary:  r.BundleSummary,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render email draft: %w", err)
	}
	return buf.String(), nil
}

func groupsForBucket(r *report.ScanReport, bucket ruleset.ReviewBucket) []*report.RuleGroup {
	var groups []*report.RuleGroup
	for _, g := range r.Findings {
		if g.Rule.ReviewBucket == bucket {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Rule.ID < groups[j].Rule.ID })
	return groups
}
