package scan

import (
	"fmt"
	"os"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(opts *RunOptionsScan, args []string) error {
	if opts.Repo != "" {
		if len(args) > 0 {
			return fmt.Errorf("you cannot use the 'repo' flag and an archive path at the same time")
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("either the 'repo' flag or an archive path must be specified")
		}
		if len(args) > 1 {
			return fmt.Errorf("only one archive path may be specified")
		}
		if _, err := os.Stat(args[0]); os.IsNotExist(err) {
			return fmt.Errorf("the archive path does not exist: %v", args[0])
		}
	}

	if opts.Branch != "" && opts.Repo == "" {
		return fmt.Errorf("the 'branch' flag requires the 'repo' flag")
	}

	if opts.ReportFormat != "json" && opts.ReportFormat != "sarif" {
		return fmt.Errorf("unsupported report format %q: expected json or sarif", opts.ReportFormat)
	}

	if opts.Workers < 0 {
		return fmt.Errorf("the 'workers' flag must not be negative")
	}

	return nil
}
