package errors

import (
	"errors"
	"fmt"
)

// BoundsError reports a violated resource limit. It is raised before any
// archive entry is decoded, and always names the offending limit together
// with the observed value.
type BoundsError struct {
	Limit    string
	Allowed  int64
	Observed int64
}

// Error implements the error interface for BoundsError.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("bundle exceeds %s: observed %d, allowed %d", e.Limit, e.Observed, e.Allowed)
}

// NewBoundsError creates a new BoundsError instance.
func NewBoundsError(limit string, allowed, observed int64) error {
	return &BoundsError{
		Limit:    limit,
		Allowed:  allowed,
		Observed: observed,
	}
}

// IsBoundsError reports whether err is (or wraps) a BoundsError.
func IsBoundsError(err error) bool {
	var be *BoundsError
	return errors.As(err, &be)
}

// RulesetError reports a malformed rule discovered at ruleset-load time.
// A rule that fails to load aborts the operation: silently skipping it would
// be a policy regression.
type RulesetError struct {
	RuleID    string
	MatcherID string
	Cause     error
}

// Error implements the error interface for RulesetError.
func (e *RulesetError) Error() string {
	if e.MatcherID != "" {
		return fmt.Sprintf("ruleset: rule %q matcher %q: %v", e.RuleID, e.MatcherID, e.Cause)
	}
	return fmt.Sprintf("ruleset: rule %q: %v", e.RuleID, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *RulesetError) Unwrap() error {
	return e.Cause
}

// NewRulesetError creates a new RulesetError instance.
func NewRulesetError(ruleID, matcherID string, cause error) error {
	return &RulesetError{
		RuleID:    ruleID,
		MatcherID: matcherID,
		Cause:     cause,
	}
}
