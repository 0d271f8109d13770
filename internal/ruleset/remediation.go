package ruleset

// remediation maps rule identifiers to human-readable fix guidance. It is
// consumed by report renderers and the email draft only; the verdict logic
// never reads it.
var remediation = map[string]string{
	"dynamic-code-execution": "Remove eval/new Function/string timers and replace them with direct function references or a safe expression library.",
	"remote-script-load":     "Vendor the remote script into the bundle at a pinned version so the reviewed artifact is the one that runs.",
	"hardcoded-credentials":  "Move the credential into deployment configuration, rotate the leaked value, and verify it is revoked.",
	"insecure-transport":     "Switch the endpoint to https, or document why a cleartext endpoint is unavoidable for this integration.",
	"obfuscated-code":        "Ship readable sources (or a source map) for the flagged section so the decode chain can be reviewed.",
	"telemetry-beacon":       "Document what is sent to the analytics endpoint and confirm it is disclosed to end users.",
}

// Remediation returns the fix guidance for a rule, if any is known.
func Remediation(ruleID string) (string, bool) {
	s, ok := remediation[ruleID]
	return s, ok
}
