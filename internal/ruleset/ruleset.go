// Package ruleset holds the versioned, declarative list of policy rules.
// Rules are loaded from YAML, validated, and regex-compiled once at load
// time; the set is read-only for the duration of a scan.
package ruleset

import (
	"regexp"
)

// ReviewBucket is the policy disposition of a rule. It drives the verdict
// lattice at report-build time.
type ReviewBucket string

const (
	BucketAutoReject       ReviewBucket = "AUTO_REJECT"
	BucketActionRequired   ReviewBucket = "ACTION_REQUIRED"
	BucketNeedsExplanation ReviewBucket = "NEEDS_EXPLANATION"
	BucketInfo             ReviewBucket = "INFO"
)

// ValidReviewBuckets enumerates the bucket strings a rule may carry. Any
// other value is a load-time validation error.
var ValidReviewBuckets = map[ReviewBucket]bool{
	BucketAutoReject:       true,
	BucketActionRequired:   true,
	BucketNeedsExplanation: true,
	BucketInfo:             true,
}

type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityHigh    Severity = "HIGH"
	SeverityMedium  Severity = "MEDIUM"
	SeverityLow     Severity = "LOW"
	SeverityInfo    Severity = "INFO"
)

var ValidSeverities = map[Severity]bool{
	SeverityBlocker: true,
	SeverityHigh:    true,
	SeverityMedium:  true,
	SeverityLow:     true,
	SeverityInfo:    true,
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

var ValidConfidences = map[Confidence]bool{
	ConfidenceHigh:   true,
	ConfidenceMedium: true,
	ConfidenceLow:    true,
}

// Override is a secondary pattern that, if found near a primary match,
// escalates that occurrence's effective severity and review bucket and
// attaches an explanatory note. It never mutates the original finding.
type Override struct {
	Pattern      string       `yaml:"pattern" json:"pattern"`
	Severity     Severity     `yaml:"severity" json:"severity,omitempty"`
	ReviewBucket ReviewBucket `yaml:"review_bucket" json:"reviewBucket,omitempty"`
	Note         string       `yaml:"note" json:"note"`

	re *regexp.Regexp
}

// Regexp returns the compiled override pattern.
func (o *Override) Regexp() *regexp.Regexp { return o.re }

// Matcher is a single regular-expression pattern plus its scope and
// classification defaults. Flags are explicit booleans compiled once at
// ruleset-load time, never re-parsed per file.
type Matcher struct {
	ID              string     `yaml:"id" json:"id"`
	Pattern         string     `yaml:"pattern" json:"pattern"`
	CaseInsensitive bool       `yaml:"case_insensitive" json:"caseInsensitive,omitempty"`
	Multiline       bool       `yaml:"multiline" json:"multiline,omitempty"`
	FileGlobs       []string   `yaml:"file_globs" json:"fileGlobs,omitempty"`
	Confidence      Confidence `yaml:"confidence" json:"confidence"`
	Allowlist       []string   `yaml:"allowlist" json:"allowlist,omitempty"`
	Overrides       []Override `yaml:"overrides" json:"overrides,omitempty"`

	re *regexp.Regexp
}

// Regexp returns the pattern compiled at load time.
func (m *Matcher) Regexp() *regexp.Regexp { return m.re }

// Rule is a named policy check composed of one or more matchers. Rules are
// immutable once loaded.
type Rule struct {
	ID           string       `yaml:"id" json:"ruleId"`
	Name         string       `yaml:"name" json:"name"`
	Category     string       `yaml:"category" json:"category"`
	ReviewBucket ReviewBucket `yaml:"review_bucket" json:"reviewBucket"`
	Severity     Severity     `yaml:"severity" json:"severity"`
	Disposition  string       `yaml:"disposition" json:"disposition,omitempty"`
	Description  string       `yaml:"description" json:"description,omitempty"`
	Matchers     []Matcher    `yaml:"matchers" json:"-"`
}

// Ruleset is the versioned rule collection shared read-only across a scan.
type Ruleset struct {
	Version string `yaml:"version" json:"rulesetVersion"`
	Rules   []Rule `yaml:"rules" json:"rules"`

	byID map[string]int
}

// ByID looks up a rule by its stable identifier.
func (rs *Ruleset) ByID(id string) (*Rule, bool) {
	idx, ok := rs.byID[id]
	if !ok {
		return nil, false
	}
	return &rs.Rules[idx], true
}

func (rs *Ruleset) index() {
	rs.byID = make(map[string]int, len(rs.Rules))
	for i := range rs.Rules {
		rs.byID[rs.Rules[i].ID] = i
	}
}
