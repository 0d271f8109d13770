// Package scan executes a compiled ruleset against a file inventory and
// emits findings. A scan session is read-only over its inputs: files,
// ruleset, and limits are never mutated, which is what allows the per-file
// work to run on a bounded worker pool.
package scan

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bundlescan/bundlescan/internal/fileglob"
	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/ruleset"
)

const (
	// Raw matched text is truncated to this many bytes in the finding.
	maxTriggerTokenBytes = 120
	// Context snippets are cut at this many bytes after newline expansion.
	maxSnippetBytes = 600
	// Allowlist substrings suppress a match when found within this many
	// bytes on either side of it.
	allowlistWindow = 50
	// Conditional overrides look for the secondary pattern within this many
	// bytes on either side of the primary match.
	overrideWindow = 200
	// Snippets expand up to this many newline boundaries on each side.
	snippetContextLines = 3
)

// LocationType classifies where in a file a match occurred. Detection is
// line- and path-based, not a lexer; misclassifying a multi-line string
// literal that resembles a comment is an accepted limitation.
type LocationType string

const (
	LocationCode      LocationType = "CODE"
	LocationComment   LocationType = "COMMENT"
	LocationDoc       LocationType = "DOC"
	LocationTest      LocationType = "TEST"
	LocationSourceMap LocationType = "SOURCE_MAP"
	LocationString    LocationType = "STRING"
)

// Escalation is the annotation produced when a conditional override pattern
// is found near a primary match. It never alters the finding's own fields;
// the report builder consumes it per rule group.
type Escalation struct {
	Severity     ruleset.Severity     `json:"severity,omitempty"`
	ReviewBucket ruleset.ReviewBucket `json:"reviewBucket,omitempty"`
	Note         string               `json:"note"`
}

// Finding is one surviving pattern match in one file. Findings are immutable
// once created.
type Finding struct {
	RuleID           string             `json:"ruleId"`
	MatcherID        string             `json:"matcherId"`
	FilePath         string             `json:"filePath"`
	Line             int                `json:"line"`
	Column           int                `json:"column"`
	Snippet          string             `json:"snippet"`
	TriggerToken     string             `json:"triggerToken"`
	LocationType     LocationType       `json:"locationType"`
	Confidence       ruleset.Confidence `json:"confidence"`
	ConfidenceReason string             `json:"confidenceReason,omitempty"`
	FileTags         []inventory.Tag    `json:"fileTags,omitempty"`
	Escalation       *Escalation        `json:"escalation,omitempty"`

	offset int
}

// ProgressFunc receives the number of processed files and the eligible total.
// It is invoked at a fixed file-count cadence, not after every file, and
// carries no scheduling semantics.
type ProgressFunc func(done, total int)

// Called every progressCadence processed files (and once at the end).
const progressCadence = 25

// Options tunes a scan run. The zero value is a sequential scan with no
// progress reporting.
type Options struct {
	Workers    int
	OnProgress ProgressFunc
}

// Run scans every eligible file in inventory order and returns the findings
// normalized by (path, offset) so the output is deterministic regardless of
// scheduling. Cancellation is checked at the per-file loop boundary.
func Run(ctx context.Context, files []inventory.FileEntry, rs *ruleset.Ruleset, limits inventory.Limits, opts Options) ([]Finding, error) {
	eligible := make([]int, 0, len(files))
	for i := range files {
		f := &files[i]
		if f.IsTextCandidate && !f.IsIgnored && f.Content != "" {
			eligible = append(eligible, i)
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	perFile := make([][]Finding, len(eligible))
	guard := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	done := 0

	for slot, idx := range eligible {
		if err := ctx.Err(); err != nil {
			break
		}
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(slot, idx int) {
			defer wg.Done()
			perFile[slot] = scanFile(&files[idx], rs, limits)
			<-guard

			if opts.OnProgress != nil {
				progressMu.Lock()
				done++
				if done%progressCadence == 0 || done == len(eligible) {
					opts.OnProgress(done, len(eligible))
				}
				progressMu.Unlock()
			}
		}(slot, idx)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []Finding
	for _, buf := range perFile {
		findings = append(findings, buf...)
	}
	sortFindings(findings)
	return findings, nil
}

// sortFindings normalizes finding order: by file path, then match offset,
// then rule and matcher identity for matches at the same offset.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.offset != b.offset {
			return a.offset < b.offset
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.MatcherID < b.MatcherID
	})
}

// scanFile runs every applicable matcher against one file. The match counter
// is enforced per file across all matchers: once MaxMatchesPerFile raw
// matches have been consumed, remaining matches for the file are dropped.
func scanFile(file *inventory.FileEntry, rs *ruleset.Ruleset, limits inventory.Limits) []Finding {
	var findings []Finding
	remaining := limits.MaxMatchesPerFile

	for ri := range rs.Rules {
		rule := &rs.Rules[ri]
		for mi := range rule.Matchers {
			if remaining <= 0 {
				return findings
			}
			m := &rule.Matchers[mi]
			if !fileglob.MatchAny(file.Path, m.FileGlobs) {
				continue
			}

			// FindAll handles non-overlapping iteration and advances past
			// empty-width matches, so termination is guaranteed.
			locs := m.Regexp().FindAllStringIndex(file.Content, remaining)
			remaining -= len(locs)

			for _, loc := range locs {
				if suppressed(file.Content, loc[0], loc[1], m.Allowlist) {
					continue
				}
				findings = append(findings, buildFinding(file, rule, m, loc[0], loc[1]))
			}
		}
	}
	return findings
}

// suppressed reports whether any allowlist substring appears inside the
// matched text or within the fixed window around it.
func suppressed(content string, start, end int, allowlist []string) bool {
	if len(allowlist) == 0 {
		return false
	}
	winStart := start - allowlistWindow
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + allowlistWindow
	if winEnd > len(content) {
		winEnd = len(content)
	}
	window := content[winStart:winEnd]
	for _, allowed := range allowlist {
		if allowed != "" && strings.Contains(window, allowed) {
			return true
		}
	}
	return false
}

func buildFinding(file *inventory.FileEntry, rule *ruleset.Rule, m *ruleset.Matcher, start, end int) Finding {
	content := file.Content

	token := content[start:end]
	if len(token) > maxTriggerTokenBytes {
		token = token[:maxTriggerTokenBytes]
	}

	line, column := position(content, start)
	lineText := enclosingLine(content, start)
	location := classifyLocation(file, lineText)
	confidence, reason := adjustConfidence(m.Confidence, file, location)

	f := Finding{
		RuleID:           rule.ID,
		MatcherID:        m.ID,
		FilePath:         file.Path,
		Line:             line,
		Column:           column,
		Snippet:          snippet(content, start, end),
		TriggerToken:     token,
		LocationType:     location,
		Confidence:       confidence,
		ConfidenceReason: reason,
		FileTags:         file.Tags,
		Escalation:       evaluateOverrides(content, start, end, m.Overrides),
		offset:           start,
	}
	return f
}

// evaluateOverrides checks each conditional override pattern against a fixed
// window around the primary match and returns the first escalation found.
func evaluateOverrides(content string, start, end int, overrides []ruleset.Override) *Escalation {
	if len(overrides) == 0 {
		return nil
	}
	winStart := start - overrideWindow
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + overrideWindow
	if winEnd > len(content) {
		winEnd = len(content)
	}
	window := content[winStart:winEnd]

	for i := range overrides {
		o := &overrides[i]
		if o.Regexp().MatchString(window) {
			return &Escalation{
				Severity:     o.Severity,
				ReviewBucket: o.ReviewBucket,
				Note:         o.Note,
			}
		}
	}
	return nil
}

// position computes the 1-based line and column of a byte offset.
func position(content string, offset int) (line, column int) {
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}

// enclosingLine returns the full text of the line containing offset.
func enclosingLine(content string, offset int) string {
	start := offset
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(content) && content[end] != '\n' {
		end++
	}
	return content[start:end]
}

// snippet expands outward from the match up to snippetContextLines newline
// boundaries on each side, then caps the result.
func snippet(content string, start, end int) string {
	s := start
	newlines := 0
	for s > 0 {
		if content[s-1] == '\n' {
			newlines++
			if newlines > snippetContextLines {
				break
			}
		}
		s--
	}

	e := end
	newlines = 0
	for e < len(content) {
		if content[e] == '\n' {
			newlines++
			if newlines > snippetContextLines {
				break
			}
		}
		e++
	}

	out := content[s:e]
	if len(out) > maxSnippetBytes {
		out = out[:maxSnippetBytes]
	}
	return out
}
