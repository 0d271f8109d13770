package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateScanArgs(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(archive, []byte("zip"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		opts    RunOptionsScan
		args    []string
		wantErr string
	}{
		{
			name: "archive path is valid",
			opts: RunOptionsScan{ReportFormat: "json"},
			args: []string{archive},
		},
		{
			name: "repo flag is valid",
			opts: RunOptionsScan{Repo: "https://example.com/org/widget.git", ReportFormat: "json"},
		},
		{
			name: "repo with branch is valid",
			opts: RunOptionsScan{Repo: "https://example.com/org/widget.git", Branch: "main", ReportFormat: "sarif"},
		},
		{
			name:    "repo and archive are mutually exclusive",
			opts:    RunOptionsScan{Repo: "https://example.com/org/widget.git", ReportFormat: "json"},
			args:    []string{archive},
			wantErr: "at the same time",
		},
		{
			name:    "no input at all",
			opts:    RunOptionsScan{ReportFormat: "json"},
			wantErr: "must be specified",
		},
		{
			name:    "more than one archive",
			opts:    RunOptionsScan{ReportFormat: "json"},
			args:    []string{archive, archive},
			wantErr: "only one archive path",
		},
		{
			name:    "missing archive",
			opts:    RunOptionsScan{ReportFormat: "json"},
			args:    []string{filepath.Join(t.TempDir(), "nope.zip")},
			wantErr: "does not exist",
		},
		{
			name:    "branch without repo",
			opts:    RunOptionsScan{Branch: "main", ReportFormat: "json"},
			args:    []string{archive},
			wantErr: "requires the 'repo' flag",
		},
		{
			name:    "unsupported report format",
			opts:    RunOptionsScan{ReportFormat: "xml"},
			args:    []string{archive},
			wantErr: "unsupported report format",
		},
		{
			name:    "negative workers",
			opts:    RunOptionsScan{ReportFormat: "json", Workers: -1},
			args:    []string{archive},
			wantErr: "must not be negative",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateScanArgs(&tc.opts, tc.args)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}
