package ruleset

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	yaml "gopkg.in/yaml.v2"

	"github.com/bundlescan/bundlescan/pkg/shared/errors"
)

//go:embed rules.yml
var defaultRulesetYAML []byte

// Default returns the ruleset shipped with the binary. The embedded document
// is validated at build of the release artifact by the loader tests, so a
// parse failure here is a programming error.
func Default() *Ruleset {
	rs, err := Parse(defaultRulesetYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded ruleset is invalid: %v", err))
	}
	return rs
}

// Load reads and compiles a ruleset from a YAML file.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %q: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals, validates, and compiles a YAML ruleset document. A rule
// authored with an invalid regular expression fails loudly here, never
// silently during scanning.
func Parse(data []byte) (*Ruleset, error) {
	rs := &Ruleset{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset YAML: %w", err)
	}
	if err := compile(rs); err != nil {
		return nil, err
	}
	rs.index()
	return rs, nil
}

func compile(rs *Ruleset) error {
	if rs.Version == "" {
		return errors.NewRulesetError("", "", fmt.Errorf("missing ruleset version"))
	}
	if len(rs.Rules) == 0 {
		return errors.NewRulesetError("", "", fmt.Errorf("ruleset contains no rules"))
	}

	seenRules := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		if rule.ID == "" {
			return errors.NewRulesetError("", "", fmt.Errorf("rule %d has no id", i))
		}
		if seenRules[rule.ID] {
			return errors.NewRulesetError(rule.ID, "", fmt.Errorf("duplicate rule id"))
		}
		seenRules[rule.ID] = true

		if !ValidReviewBuckets[rule.ReviewBucket] {
			return errors.NewRulesetError(rule.ID, "", fmt.Errorf("invalid review bucket %q", rule.ReviewBucket))
		}
		if !ValidSeverities[rule.Severity] {
			return errors.NewRulesetError(rule.ID, "", fmt.Errorf("invalid severity %q", rule.Severity))
		}
		if len(rule.Matchers) == 0 {
			return errors.NewRulesetError(rule.ID, "", fmt.Errorf("rule has no matchers"))
		}

		seenMatchers := make(map[string]bool, len(rule.Matchers))
		for j := range rule.Matchers {
			m := &rule.Matchers[j]
			if err := compileMatcher(rule.ID, m, seenMatchers); err != nil {
				return err
			}
		}
	}
	return nil
}

func compileMatcher(ruleID string, m *Matcher, seen map[string]bool) error {
	if m.ID == "" {
		return errors.NewRulesetError(ruleID, "", fmt.Errorf("matcher has no id"))
	}
	if seen[m.ID] {
		return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("duplicate matcher id within rule"))
	}
	seen[m.ID] = true

	if m.Pattern == "" {
		return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("matcher has no pattern"))
	}
	if m.Confidence == "" {
		m.Confidence = ConfidenceMedium
	}
	if !ValidConfidences[m.Confidence] {
		return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("invalid confidence %q", m.Confidence))
	}

	re, err := regexp.Compile(flagPrefix(m.CaseInsensitive, m.Multiline) + m.Pattern)
	if err != nil {
		return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("invalid pattern: %w", err))
	}
	m.re = re

	for k := range m.Overrides {
		o := &m.Overrides[k]
		if o.Pattern == "" {
			return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("override %d has no pattern", k))
		}
		if o.ReviewBucket != "" && !ValidReviewBuckets[o.ReviewBucket] {
			return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("override %d has invalid review bucket %q", k, o.ReviewBucket))
		}
		if o.Severity != "" && !ValidSeverities[o.Severity] {
			return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("override %d has invalid severity %q", k, o.Severity))
		}
		ore, err := regexp.Compile(flagPrefix(m.CaseInsensitive, m.Multiline) + o.Pattern)
		if err != nil {
			return errors.NewRulesetError(ruleID, m.ID, fmt.Errorf("override %d has invalid pattern: %w", k, err))
		}
		o.re = ore
	}
	return nil
}

func flagPrefix(caseInsensitive, multiline bool) string {
	switch {
	case caseInsensitive && multiline:
		return "(?im)"
	case caseInsensitive:
		return "(?i)"
	case multiline:
		return "(?m)"
	default:
		return ""
	}
}
