// Package advisory sends a condensed summary of a finished report to an
// external advisory service and returns its suggestions. The call is one-way
// and non-authoritative: nothing that comes back is ever merged into the
// verdict or the findings, and every failure degrades to an absent result.
package advisory

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
	"github.com/bundlescan/bundlescan/pkg/shared/httpclient"
)

// Samples per rule included in the condensed summary.
const sampleFindingsPerRule = 3

// Summary is the condensed, textual view of a report sent to the service.
type Summary struct {
	RunID   string        `json:"runId"`
	Verdict string        `json:"verdict"`
	Rules   []RuleSummary `json:"rules"`
}

type RuleSummary struct {
	RuleID       string   `json:"ruleId"`
	Name         string   `json:"name"`
	ReviewBucket string   `json:"reviewBucket"`
	Count        int      `json:"count"`
	Samples      []string `json:"samples,omitempty"`
}

// Advice is the structured suggestion set returned by the service.
type Advice struct {
	MissedRisks       []string `json:"missedRisks,omitempty"`
	CandidateRules    []string `json:"candidateRules,omitempty"`
	NoiseReduction    []string `json:"noiseReduction,omitempty"`
	ReviewerQuestions []string `json:"reviewerQuestions,omitempty"`
}

// Client posts report summaries to the configured advisory endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	token    string
	logger   hclog.Logger
}

// NewClient builds an advisory client from the global configuration, or nil
// when the advisory directive is disabled.
func NewClient(cfg *config.Config, logger hclog.Logger) *Client {
	if !config.GetBoolValue(&cfg.Advisory, "Enabled", false) || cfg.Advisory.Endpoint == "" {
		return nil
	}
	return &Client{
		http:     httpclient.InitializeRestyClient(logger, cfg),
		endpoint: cfg.Advisory.Endpoint,
		token:    cfg.Advisory.Token,
		logger:   logger,
	}
}

// Advise sends the condensed summary and returns the service's suggestions.
// Any failure — network, status, malformed response — is logged and returns
// nil so the deterministic report is never affected.
func (c *Client) Advise(ctx context.Context, r *report.ScanReport) *Advice {
	if c == nil {
		return nil
	}

	advice := &Advice{}
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(Summarize(r)).
		SetResult(advice)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	resp, err := req.Post(c.endpoint)
	if err != nil {
		c.logger.Warn("advisory request failed", "error", err)
		return nil
	}
	if resp.IsError() {
		c.logger.Warn("advisory service returned an error", "status", resp.StatusCode())
		return nil
	}
	return advice
}

// Summarize condenses a report into rule names, counts, and a handful of
// sample findings per rule.
func Summarize(r *report.ScanReport) Summary {
	s := Summary{
		RunID:   r.RunID,
		Verdict: string(r.Verdict),
	}
	for id, group := range r.Findings {
		rs := RuleSummary{
			RuleID:       id,
			Name:         group.Rule.Name,
			ReviewBucket: string(group.Rule.ReviewBucket),
			Count:        group.Count,
		}
		for i, item := range group.Items {
			if i >= sampleFindingsPerRule {
				break
			}
			rs.Samples = append(rs.Samples, fmt.Sprintf("%s:%d %s", item.FilePath, item.Line, item.TriggerToken))
		}
		s.Rules = append(s.Rules, rs)
	}
	sort.Slice(s.Rules, func(i, j int) bool { return s.Rules[i].RuleID < s.Rules[j].RuleID })
	return s
}
